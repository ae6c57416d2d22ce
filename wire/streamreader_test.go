package wire

import (
	"bytes"
	"io"
	"testing"
)

// buildStream assembles a minimal, valid typedstream byte sequence by hand,
// following exactly the grammar StreamReader decodes: a header, then
// zero or more "new shared type-encoding string" + value groups.
func buildStream(t *testing.T, groups ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(streamSignature)
	buf.WriteByte(SupportedStreamerVersion)
	buf.WriteByte(byteOrderLittle)
	buf.WriteByte(1) // system version, arbitrary literal
	for _, g := range groups {
		buf.Write(g)
	}
	return buf.Bytes()
}

// newSharedString encodes a fresh "new" shared string/type-encoding: tag,
// literal length, raw bytes. Only valid for lengths within the literal byte
// range, which is all this test package needs.
func newSharedString(s string) []byte {
	return append([]byte{HeadNew, byte(len(s))}, []byte(s)...)
}

func TestStreamReaderHeader(t *testing.T) {
	data := buildStream(t)
	sr, err := NewStreamReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewStreamReader: %v", err)
	}
	ev, err := sr.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	h, ok := ev.(Header)
	if !ok {
		t.Fatalf("got %T, want Header", ev)
	}
	if h.StreamerVersion != SupportedStreamerVersion || h.ByteOrder != byteOrderLittle || h.SystemVersion != 1 {
		t.Fatalf("unexpected header: %+v", h)
	}
	if _, err := sr.Next(); err == nil {
		t.Fatal("Next after header: got no error, want *TruncatedError")
	} else if _, ok := err.(*TruncatedError); !ok {
		t.Fatalf("Next after header: got %T (%v), want *TruncatedError", err, err)
	}
}

func TestStreamReaderRejectsBadSignature(t *testing.T) {
	_, err := NewStreamReader(bytes.NewReader([]byte("not a typedstream at all")))
	if err == nil {
		t.Fatal("expected InvalidSignatureError")
	}
	if _, ok := err.(*InvalidSignatureError); !ok {
		t.Fatalf("got %T, want *InvalidSignatureError", err)
	}
}

func TestStreamReaderScalarGroup(t *testing.T) {
	group := append(newSharedString("i"), 42)
	data := buildStream(t, group)
	sr, err := NewStreamReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewStreamReader: %v", err)
	}

	want := []string{"Header", "BeginTypedValues", "Atom", "EndTypedValues"}
	var got []string
	for {
		ev, err := sr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, ev.eventTag())
		if atom, ok := ev.(Atom); ok && atom.Int != 42 {
			t.Fatalf("atom = %+v, want Int 42", atom)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestStreamReaderObjectWithNoIvars(t *testing.T) {
	// @ slot -> new object -> new class "NSObject" version 0, nil superclass
	// -> no ivar groups -> end of object.
	classChain := append(append(append([]byte{HeadNew}, newSharedString("NSObject")...), 0), HeadNil)
	object := append([]byte{HeadNew}, classChain...)
	object = append(object, HeadEndObject)

	group := append(newSharedString("@"), object...)
	data := buildStream(t, group)

	sr, err := NewStreamReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewStreamReader: %v", err)
	}

	var got []Event
	for {
		ev, err := sr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, ev)
	}

	wantTags := []string{
		"Header", "BeginTypedValues", "BeginObject", "SingleClass", "Nil", "EndObject", "EndTypedValues",
	}
	if len(got) != len(wantTags) {
		t.Fatalf("got %d events %v, want %d: %v", len(got), tagsOf(got), len(wantTags), wantTags)
	}
	for i, tag := range wantTags {
		if got[i].eventTag() != tag {
			t.Fatalf("event %d: got %s, want %s (all: %v)", i, got[i].eventTag(), tag, tagsOf(got))
		}
	}
	sc := got[3].(SingleClass)
	if sc.Name != "NSObject" || sc.Version != 0 {
		t.Fatalf("SingleClass = %+v, want NSObject v0", sc)
	}
}

func tagsOf(events []Event) []string {
	tags := make([]string, len(events))
	for i, e := range events {
		tags[i] = e.eventTag()
	}
	return tags
}

func TestStreamReaderObjectReference(t *testing.T) {
	classChain := append(append(append([]byte{HeadNew}, newSharedString("NSObject")...), 0), HeadNil)
	firstObject := append([]byte{HeadNew}, classChain...)
	firstObject = append(firstObject, HeadEndObject)

	group1 := append(newSharedString("@"), firstObject...)
	group2 := append(newSharedString("@"), HeadRef, 0)
	data := buildStream(t, group1, group2)

	sr, err := NewStreamReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewStreamReader: %v", err)
	}

	var got []Event
	for {
		ev, err := sr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, ev)
	}

	last := got[len(got)-1]
	// EndTypedValues closes group2; the reference itself is second-to-last.
	ref, ok := got[len(got)-2].(ObjectReference)
	if !ok {
		t.Fatalf("got %T (tags %v), want ObjectReference", got[len(got)-2], tagsOf(got))
	}
	if ref.ID != 0 {
		t.Fatalf("ObjectReference.ID = %d, want 0", ref.ID)
	}
	if last.eventTag() != "EndTypedValues" {
		t.Fatalf("last event = %s, want EndTypedValues", last.eventTag())
	}
}

func TestStreamReaderUnknownObjectReferenceErrors(t *testing.T) {
	group := append(newSharedString("@"), HeadRef, 5)
	data := buildStream(t, group)
	sr, err := NewStreamReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewStreamReader: %v", err)
	}
	for {
		_, err := sr.Next()
		if err != nil {
			if _, ok := err.(*UnknownReferenceError); !ok {
				t.Fatalf("got %T (%v), want *UnknownReferenceError", err, err)
			}
			return
		}
	}
}

func TestStreamReaderTruncatedInput(t *testing.T) {
	full := buildStream(t, append(newSharedString("i"), 42))
	truncated := full[:len(full)-1]
	sr, err := NewStreamReader(bytes.NewReader(truncated))
	if err != nil {
		t.Fatalf("NewStreamReader: %v", err)
	}
	for {
		_, err := sr.Next()
		if err != nil {
			if _, ok := err.(*TruncatedError); !ok {
				t.Fatalf("got %T (%v), want *TruncatedError", err, err)
			}
			return
		}
	}
}

func TestStreamReaderArrayOfInts(t *testing.T) {
	group := append(newSharedString("[3i]"), 1, 2, 3)
	data := buildStream(t, group)
	sr, err := NewStreamReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewStreamReader: %v", err)
	}
	var ints []int64
	var tags []string
	for {
		ev, err := sr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		tags = append(tags, ev.eventTag())
		if atom, ok := ev.(Atom); ok {
			ints = append(ints, atom.Int)
		}
	}
	wantTags := []string{"Header", "BeginTypedValues", "BeginArray", "Atom", "Atom", "Atom", "EndArray", "EndTypedValues"}
	if len(tags) != len(wantTags) {
		t.Fatalf("got %v, want %v", tags, wantTags)
	}
	for i := range wantTags {
		if tags[i] != wantTags[i] {
			t.Fatalf("got %v, want %v", tags, wantTags)
		}
	}
	if len(ints) != 3 || ints[0] != 1 || ints[1] != 2 || ints[2] != 3 {
		t.Fatalf("ints = %v, want [1 2 3]", ints)
	}
}

func TestStreamReaderUnsignedAtomsMaskToDeclaredWidth(t *testing.T) {
	// A literal 0xFF byte is read by ReadInt as the sign-extended int8 -1;
	// each unsigned kind must mask that back down to its declared width
	// instead of carrying the sign extension into Atom.Uint.
	cases := []struct {
		encoding string
		want     uint64
	}{
		{"C", 0xFF},
		{"I", 0xFFFFFFFF},
	}
	for _, c := range cases {
		group := append(newSharedString(c.encoding), 0xFF)
		data := buildStream(t, group)
		sr, err := NewStreamReader(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("NewStreamReader: %v", err)
		}
		var got *Atom
		for {
			ev, err := sr.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if atom, ok := ev.(Atom); ok {
				got = &atom
			}
		}
		if got == nil || got.Uint != c.want {
			t.Fatalf("encoding %q: got %+v, want Uint %d", c.encoding, got, c.want)
		}
	}
}

func TestStreamReaderUnionDecodesEveryArm(t *testing.T) {
	// (Tag=ii) with both arms present: the stream carries no tag saying
	// which one was active, so both are decoded in declaration order.
	group := append(newSharedString("(Tag=ii)"), 7, 9)
	data := buildStream(t, group)
	sr, err := NewStreamReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewStreamReader: %v", err)
	}
	var tags []string
	var ints []int64
	for {
		ev, err := sr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		tags = append(tags, ev.eventTag())
		if atom, ok := ev.(Atom); ok {
			ints = append(ints, atom.Int)
		}
	}
	wantTags := []string{"Header", "BeginTypedValues", "BeginStruct", "Atom", "Atom", "EndStruct", "EndTypedValues"}
	if len(tags) != len(wantTags) {
		t.Fatalf("got %v, want %v", tags, wantTags)
	}
	for i := range wantTags {
		if tags[i] != wantTags[i] {
			t.Fatalf("got %v, want %v", tags, wantTags)
		}
	}
	if len(ints) != 2 || ints[0] != 7 || ints[1] != 9 {
		t.Fatalf("ints = %v, want [7 9]", ints)
	}
}
