package archive

import (
	"bytes"
	"testing"

	"github.com/nxarchive/typedstream/wire"
)

var signature = []byte("\x04\x0bstreamtyped")

func buildStream(t *testing.T, groups ...[]byte) []byte {
	t.Helper()
	return buildStreamWithOrder(t, 'L', groups...)
}

func buildStreamWithOrder(t *testing.T, order byte, groups ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(signature)
	buf.WriteByte(wire.SupportedStreamerVersion)
	buf.WriteByte(order)
	buf.WriteByte(1)
	for _, g := range groups {
		buf.Write(g)
	}
	return buf.Bytes()
}

func newSharedString(s string) []byte {
	return append([]byte{wire.HeadNew, byte(len(s))}, []byte(s)...)
}

func nsObjectNoIvars() []byte {
	classChain := append(append(append([]byte{wire.HeadNew}, newSharedString("NSObject")...), 0), wire.HeadNil)
	object := append([]byte{wire.HeadNew}, classChain...)
	return append(object, wire.HeadEndObject)
}

func TestUnarchiverDecodesScalar(t *testing.T) {
	group := append(newSharedString("i"), 42)
	data := buildStream(t, group)

	u, err := NewUnarchiver(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("NewUnarchiver: %v", err)
	}
	values, err := u.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(values) != 1 || values[0].(int64) != 42 {
		t.Fatalf("got %v, want [42]", values)
	}
}

func TestUnarchiverGenericObjectFallback(t *testing.T) {
	group := append(newSharedString("@"), nsObjectNoIvars()...)
	data := buildStream(t, group)

	u, err := NewUnarchiver(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("NewUnarchiver: %v", err)
	}
	values, err := u.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("got %d values, want 1", len(values))
	}
	obj, ok := values[0].(*GenericArchivedObject)
	if !ok {
		t.Fatalf("got %T, want *GenericArchivedObject", values[0])
	}
	if obj.ClassName() != "NSObject" || len(obj.Contents) != 0 {
		t.Fatalf("got %+v", obj)
	}
}

func TestUnarchiverObjectReferenceIdentity(t *testing.T) {
	group1 := append(newSharedString("@"), nsObjectNoIvars()...)
	group2 := append(newSharedString("@"), wire.HeadRef, 0)
	data := buildStream(t, group1, group2)

	u, err := NewUnarchiver(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("NewUnarchiver: %v", err)
	}
	values, err := u.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("got %d values, want 2", len(values))
	}
	first, ok1 := values[0].(*GenericArchivedObject)
	second, ok2 := values[1].(*GenericArchivedObject)
	if !ok1 || !ok2 {
		t.Fatalf("got %T, %T, want *GenericArchivedObject both", values[0], values[1])
	}
	if first != second {
		t.Fatalf("reference did not resolve to the same object identity")
	}
}

func TestUnarchiverRegisteredDecoder(t *testing.T) {
	classChain := append(append(append([]byte{wire.HeadNew}, newSharedString("Counter")...), 1), wire.HeadNil)
	ivarGroup := append(newSharedString("i"), 7)
	object := append([]byte{wire.HeadNew}, classChain...)
	object = append(object, ivarGroup...)
	object = append(object, wire.HeadEndObject)
	group := append(newSharedString("@"), object...)
	data := buildStream(t, group)

	type counter struct{ n int64 }

	reg := NewRegistry()
	reg.Register("Counter", func(u *Unarchiver, chain []wire.ClassLink) (any, error) {
		_, values, done, err := u.ReadGroup()
		if err != nil {
			return nil, err
		}
		if done {
			t.Fatal("expected one ivar group before done")
		}
		c := &counter{n: values[0].(int64)}
		_, _, done, err = u.ReadGroup()
		if err != nil {
			return nil, err
		}
		if !done {
			t.Fatal("expected no further ivar groups")
		}
		return c, nil
	})

	u, err := NewUnarchiver(bytes.NewReader(data), reg)
	if err != nil {
		t.Fatalf("NewUnarchiver: %v", err)
	}
	values, err := u.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	c, ok := values[0].(*counter)
	if !ok || c.n != 7 {
		t.Fatalf("got %+v, want counter{n:7}", values[0])
	}
}

func TestUnarchiverClassDecoderFailedWraps(t *testing.T) {
	group := append(newSharedString("@"), nsObjectNoIvars()...)
	data := buildStream(t, group)

	reg := NewRegistry()
	wantErr := &wire.MalformedStreamError{Reason: "boom"}
	reg.Register("NSObject", func(u *Unarchiver, chain []wire.ClassLink) (any, error) {
		return nil, wantErr
	})

	u, err := NewUnarchiver(bytes.NewReader(data), reg)
	if err != nil {
		t.Fatalf("NewUnarchiver: %v", err)
	}
	_, err = u.DecodeAll()
	if err == nil {
		t.Fatal("expected error")
	}
	cdf, ok := err.(*ClassDecoderFailedError)
	if !ok {
		t.Fatalf("got %T, want *ClassDecoderFailedError", err)
	}
	if cdf.ClassName != "NSObject" || cdf.Unwrap() != error(wantErr) {
		t.Fatalf("got %+v", cdf)
	}
}

func TestUnarchiverArrayOfInts(t *testing.T) {
	group := append(newSharedString("[2i]"), 42, 0xF9) // 0xF9 is -7 as a signed literal byte
	data := buildStream(t, group)

	u, err := NewUnarchiver(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("NewUnarchiver: %v", err)
	}
	values, err := u.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	arr, ok := values[0].([]any)
	if !ok || len(arr) != 2 {
		t.Fatalf("got %+v, want a 2-element slice", values[0])
	}
	if arr[0].(int64) != 42 || arr[1].(int64) != -7 {
		t.Fatalf("got %v, want [42 -7]", arr)
	}
}

func TestUnarchiverStructOfFloats(t *testing.T) {
	// {?=ff} with two float32 values 1.5 and 2.5, each HeadFloat-tagged.
	enc := newSharedString("{?=ff}")
	f1 := []byte{wire.HeadFloat, 0x3F, 0xC0, 0x00, 0x00} // 1.5 big-endian
	f2 := []byte{wire.HeadFloat, 0x40, 0x20, 0x00, 0x00} // 2.5 big-endian
	group := append(append(enc, f1...), f2...)
	data := buildStreamWithOrder(t, 'B', group)

	u, err := NewUnarchiver(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("NewUnarchiver: %v", err)
	}
	values, err := u.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	sv, ok := values[0].(StructValue)
	if !ok || len(sv.Fields) != 2 {
		t.Fatalf("got %+v, want a 2-field StructValue", values[0])
	}
	if sv.Fields[0].(float32) != 1.5 || sv.Fields[1].(float32) != 2.5 {
		t.Fatalf("got %v, want [1.5 2.5]", sv.Fields)
	}
}

func TestUnarchiverUnionDecodesEveryArm(t *testing.T) {
	group := append(newSharedString("(Tag=ii)"), 7, 9)
	data := buildStream(t, group)

	u, err := NewUnarchiver(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("NewUnarchiver: %v", err)
	}
	values, err := u.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	sv, ok := values[0].(StructValue)
	if !ok || len(sv.Fields) != 2 {
		t.Fatalf("got %+v, want a 2-field StructValue", values[0])
	}
	if sv.Fields[0].(int64) != 7 || sv.Fields[1].(int64) != 9 {
		t.Fatalf("got %v, want [7 9]", sv.Fields)
	}
}

func TestUnarchiverTypeMismatch(t *testing.T) {
	group := append(newSharedString("i"), 42)
	data := buildStream(t, group)

	u, err := NewUnarchiver(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("NewUnarchiver: %v", err)
	}
	wantEncoding, err := wire.ParseTypeEncoding([]byte("@"))
	if err != nil {
		t.Fatalf("ParseTypeEncoding: %v", err)
	}
	_, err = u.DecodeTypedValues([]wire.Encoding{wantEncoding})
	if _, ok := err.(*TypeMismatchError); !ok {
		t.Fatalf("got %T (%v), want *TypeMismatchError", err, err)
	}
}
