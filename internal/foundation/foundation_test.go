package foundation

import (
	"bytes"
	"testing"

	"github.com/nxarchive/typedstream/archive"
	"github.com/nxarchive/typedstream/wire"
)

var signature = []byte("\x04\x0bstreamtyped")

func buildStream(t *testing.T, groups ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(signature)
	buf.WriteByte(wire.SupportedStreamerVersion)
	buf.WriteByte('L')
	buf.WriteByte(1)
	for _, g := range groups {
		buf.Write(g)
	}
	return buf.Bytes()
}

func newSharedString(s string) []byte {
	return append([]byte{wire.HeadNew, byte(len(s))}, []byte(s)...)
}

func classChain(name string, version byte) []byte {
	return append(append(append([]byte{wire.HeadNew}, newSharedString(name)...), version), wire.HeadNil)
}

func objectOf(chain []byte, ivars ...[]byte) []byte {
	obj := append([]byte{wire.HeadNew}, chain...)
	for _, g := range ivars {
		obj = append(obj, g...)
	}
	return append(obj, wire.HeadEndObject)
}

func TestDecodeString(t *testing.T) {
	ivar := append(newSharedString("*"), newSharedString("hi")...)
	object := objectOf(classChain("NSString", 1), ivar)
	data := buildStream(t, append(newSharedString("@"), object...))

	reg := archive.NewRegistry()
	Register(reg)
	u, err := archive.NewUnarchiver(bytes.NewReader(data), reg)
	if err != nil {
		t.Fatalf("NewUnarchiver: %v", err)
	}
	values, err := u.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	s, ok := values[0].(*String)
	if !ok {
		t.Fatalf("got %T, want *String", values[0])
	}
	if s.Value != "hi" || s.Mutable {
		t.Fatalf("got %+v, want {hi false}", s)
	}
}

func TestDecodeArray(t *testing.T) {
	countGroup := append(newSharedString("i"), 2)
	elem1 := append(newSharedString("i"), 10)
	elem2 := append(newSharedString("i"), 20)
	object := objectOf(classChain("NSArray", 0), countGroup, elem1, elem2)
	data := buildStream(t, append(newSharedString("@"), object...))

	reg := archive.NewRegistry()
	Register(reg)
	u, err := archive.NewUnarchiver(bytes.NewReader(data), reg)
	if err != nil {
		t.Fatalf("NewUnarchiver: %v", err)
	}
	values, err := u.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	arr, ok := values[0].(*Array)
	if !ok || len(arr.Elements) != 2 {
		t.Fatalf("got %+v, want 2-element *Array", values[0])
	}
	if arr.Elements[0].(int64) != 10 || arr.Elements[1].(int64) != 20 {
		t.Fatalf("got %v, want [10 20]", arr.Elements)
	}
}

func TestDecodeNumber(t *testing.T) {
	ivar := append(newSharedString("i"), 99)
	object := objectOf(classChain("NSNumber", 0), ivar)
	data := buildStream(t, append(newSharedString("@"), object...))

	reg := archive.NewRegistry()
	Register(reg)
	u, err := archive.NewUnarchiver(bytes.NewReader(data), reg)
	if err != nil {
		t.Fatalf("NewUnarchiver: %v", err)
	}
	values, err := u.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	n, ok := values[0].(*Number)
	if !ok || n.Value.(int64) != 99 || n.Encoding != "i" {
		t.Fatalf("got %+v, want {99 i}", values[0])
	}
}
