package wire

import (
	"bytes"
	"encoding/binary"
	"io"
)

var streamSignature = []byte("\x04\x0bstreamtyped")

// Byte-order marker values following the streamer version in the header.
const (
	byteOrderLittle byte = 'L'
	byteOrderBig    byte = 'B'
)

// StreamReader is a forward, pull-based iterator over the events of a
// typedstream. Construct one with NewStreamReader, then call Next
// repeatedly until it returns io.EOF.
//
// A StreamReader owns its byte source for its lifetime and keeps no global
// state: every namespace it resolves references through lives on the
// instance, so independent decodes never interfere with each other.
type StreamReader struct {
	br    *ByteReader
	hb    *HeadByteCodec
	refs  *ReferenceTable
	trace func(format string, args ...any)

	queue []Event
	done  bool
}

// NewStreamReader validates the stream preamble and returns a reader
// positioned to emit the Header event first, followed by the decoded value
// groups.
func NewStreamReader(r io.Reader) (*StreamReader, error) {
	br := NewByteReader(r)

	sig, err := br.ReadN(len(streamSignature))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, streamSignature) {
		return nil, &InvalidSignatureError{Got: sig}
	}

	hb := NewHeadByteCodec(br)

	sv, err := hb.ReadInt()
	if err != nil {
		return nil, err
	}
	if int(sv) != SupportedStreamerVersion {
		return nil, &UnsupportedStreamerVersionError{Version: int(sv)}
	}

	order, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	switch order {
	case byteOrderBig:
		br.SetByteOrder(binary.BigEndian)
	case byteOrderLittle:
		br.SetByteOrder(binary.LittleEndian)
	default:
		return nil, &MalformedHeadError{Offset: br.Offset() - 1, Head: order, Want: "byte-order marker ('L' or 'B')"}
	}

	sysv, err := hb.ReadInt()
	if err != nil {
		return nil, err
	}

	s := &StreamReader{
		br:    br,
		hb:    hb,
		refs:  NewReferenceTable(),
		trace: func(string, ...any) {},
	}
	header := Header{
		StreamerVersion: int(sv),
		ByteOrder:       order,
		SystemVersion:   int(sysv),
	}
	s.emit(header)
	s.trace("header: streamer=%d order=%c system=%d", sv, order, sysv)
	return s, nil
}

// WithTrace installs a callback invoked once per event, after the event has
// been fully decoded, for diagnostic output. It defaults to a no-op; the
// library never writes to stdout on its own.
func (s *StreamReader) WithTrace(fn func(format string, args ...any)) *StreamReader {
	if fn != nil {
		s.trace = fn
	}
	return s
}

// Offset returns the current byte offset into the source, for error
// reporting by callers.
func (s *StreamReader) Offset() int64 {
	return s.br.Offset()
}

// Next returns the next event, or io.EOF once the stream is exhausted. A
// stream that ends right after its header, before any value group, yields
// *TruncatedError instead. Any other error leaves the reader unusable;
// callers should stop calling Next.
func (s *StreamReader) Next() (Event, error) {
	for len(s.queue) == 0 {
		if s.done {
			return nil, io.EOF
		}
		if s.br.AtEOF() {
			s.done = true
			// Every group opens with a shared type-encoding string, so an
			// empty c-string namespace means no group was ever read.
			if s.refs.cstrings.count() == 0 {
				return nil, &TruncatedError{Offset: s.br.Offset(), Want: 1, Got: 0}
			}
			return nil, io.EOF
		}
		if err := s.decodeTypedValuesGroup(); err != nil {
			s.done = true
			return nil, err
		}
	}
	e := s.queue[0]
	s.queue = s.queue[1:]
	return e, nil
}

func (s *StreamReader) emit(e Event) {
	s.queue = append(s.queue, e)
	s.trace("%s: %+v", e.eventTag(), e)
}

// readSharedBytes reads the HeadNil/HeadRef/HeadNew triad common to
// c-strings, selectors, and type-encoding lists. isNil reports a HeadNil
// tag; id is meaningless when isNil is true.
func (s *StreamReader) readSharedBytes() (data []byte, id int, isNil bool, err error) {
	tag, err := s.hb.ReadTag()
	if err != nil {
		return nil, 0, false, err
	}
	switch tag {
	case HeadNil:
		return nil, 0, true, nil
	case HeadRef:
		id, err = s.hb.ReadUnsignedID()
		if err != nil {
			return nil, 0, false, err
		}
		data, err = s.refs.ResolveCString(id)
		return data, id, false, err
	case HeadNew:
		n, err := s.hb.ReadUnsignedID()
		if err != nil {
			return nil, 0, false, err
		}
		data, err = s.br.ReadCString(n)
		if err != nil {
			return nil, 0, false, err
		}
		id = s.refs.NewCString(data)
		return data, id, false, nil
	default:
		return nil, 0, false, &MalformedHeadError{Offset: s.br.Offset() - 1, Head: tag, Want: "shared string (new, reference, or nil)"}
	}
}

// decodeTypedValuesGroup reads one type-encoding list and the values it
// describes, emitting BeginTypedValues ... EndTypedValues around them. Used
// both for top-level groups and for each group inside an object body.
func (s *StreamReader) decodeTypedValuesGroup() error {
	data, _, isNil, err := s.readSharedBytes()
	if err != nil {
		return err
	}
	if isNil {
		return &MalformedStreamError{Offset: s.br.Offset(), Reason: "nil type-encoding list"}
	}
	encodings, err := ParseTypeEncodingList(data)
	if err != nil {
		return err
	}
	s.emit(BeginTypedValues{Encodings: encodings})
	for _, enc := range encodings {
		if err := s.decodeValue(enc); err != nil {
			return err
		}
	}
	s.emit(EndTypedValues{})
	return nil
}

// unsignedBitWidth gives the width a primitive unsigned kind is stored at on
// the wire, matching the signed counterpart it shares a head-byte encoding
// with (c/C 8-bit, s/S 16-bit, i/I and l/L 32-bit, q/Q 64-bit).
func unsignedBitWidth(kind Kind) uint {
	switch kind {
	case KindUChar:
		return 8
	case KindUShort:
		return 16
	case KindUInt, KindULong:
		return 32
	case KindULongLong:
		return 64
	default:
		return 64
	}
}

// maskUnsigned reinterprets a sign-extended ReadInt result as an unsigned
// value of the width its declared kind actually occupies on the wire, so a
// literal 0xFF under "C" reads back as 255 rather than the sign-extended
// 18446744073709551615.
func maskUnsigned(v int64, kind Kind) uint64 {
	width := unsignedBitWidth(kind)
	if width >= 64 {
		return uint64(v)
	}
	return uint64(v) & (uint64(1)<<width - 1)
}

// decodeValue reads and emits the event(s) for a single value of the given
// encoding, recursing into composite kinds as needed.
func (s *StreamReader) decodeValue(enc Encoding) error {
	switch enc.Kind {
	case KindChar, KindShort, KindInt, KindLong, KindLongLong:
		v, err := s.hb.ReadInt()
		if err != nil {
			return err
		}
		if (enc.Kind == KindChar && (v < -128 || v > 127)) ||
			(enc.Kind == KindShort && (v < -32768 || v > 32767)) {
			return &ValueOutOfRangeError{Encoding: enc.Raw[0], Raw: v}
		}
		s.emit(Atom{Encoding: enc, Int: v})
		return nil

	case KindUChar, KindUShort, KindUInt, KindULong, KindULongLong:
		v, err := s.hb.ReadInt()
		if err != nil {
			return err
		}
		if w := unsignedBitWidth(enc.Kind); w < 64 && (v < -(int64(1)<<(w-1)) || v > int64(1)<<w-1) {
			return &ValueOutOfRangeError{Encoding: enc.Raw[0], Raw: v}
		}
		s.emit(Atom{Encoding: enc, Uint: maskUnsigned(v, enc.Kind)})
		return nil

	case KindBool:
		v, err := s.hb.ReadInt()
		if err != nil {
			return err
		}
		s.emit(Atom{Encoding: enc, Bool: v != 0})
		return nil

	case KindFloat:
		v, err := s.hb.ReadFloat32()
		if err != nil {
			return err
		}
		s.emit(Atom{Encoding: enc, Float32: v})
		return nil

	case KindDouble:
		v, err := s.hb.ReadFloat64()
		if err != nil {
			return err
		}
		s.emit(Atom{Encoding: enc, Float64: v})
		return nil

	case KindBitfield:
		off := s.br.Offset()
		v, err := s.hb.ReadInt()
		if err != nil {
			return err
		}
		if enc.BitWidth <= 0 || enc.BitWidth > 63 {
			return &UnsupportedTypeError{Encoding: string(enc.Raw), Reason: "bitfield width out of supported range"}
		}
		mask := int64(1)<<uint(enc.BitWidth) - 1
		if v < 0 || v > mask {
			return &ValueOutOfRangeError{Encoding: enc.Raw[0], Raw: v}
		}
		_ = off
		s.emit(Atom{Encoding: enc, Uint: uint64(v) & uint64(mask)})
		return nil

	case KindCString:
		data, id, isNil, err := s.readSharedBytes()
		if err != nil {
			return err
		}
		if isNil {
			s.emit(Nil{})
			return nil
		}
		s.emit(CString{ID: id, Value: data})
		return nil

	case KindSelector:
		data, id, isNil, err := s.readSharedBytes()
		if err != nil {
			return err
		}
		if isNil {
			s.emit(Nil{})
			return nil
		}
		s.emit(Selector{ID: id, Value: data})
		return nil

	case KindObject:
		return s.decodeObject()

	case KindClass:
		_, events, err := s.decodeClassChain()
		if err != nil {
			return err
		}
		for _, e := range events {
			s.emit(e)
		}
		return nil

	case KindArray:
		if enc.ArrayElem == nil {
			return &BadTypeEncodingError{Encoding: enc.Raw, Offset: int(s.br.Offset())}
		}
		s.emit(BeginArray{Encoding: *enc.ArrayElem, Len: enc.ArrayLen})
		for i := 0; i < enc.ArrayLen; i++ {
			if err := s.decodeValue(*enc.ArrayElem); err != nil {
				return err
			}
		}
		s.emit(EndArray{})
		return nil

	case KindStruct:
		s.emit(BeginStruct{Encoding: enc})
		for _, f := range enc.Fields {
			if err := s.decodeValue(f); err != nil {
				return err
			}
		}
		s.emit(EndStruct{})
		return nil

	case KindUnion:
		// The archived byte stream carries no tag for which arm was active
		// when the union was written, so every arm is decoded in
		// declaration order, mirroring the original NXTypedStream's own
		// behavior rather than attempting to infer which one is "real".
		// This reuses the struct event pair since the shape (a sequence of
		// member values terminated by a close event) is identical.
		s.emit(BeginStruct{Encoding: enc})
		for _, f := range enc.Fields {
			if err := s.decodeValue(f); err != nil {
				return err
			}
		}
		s.emit(EndStruct{})
		return nil

	case KindPointer:
		return &UnsupportedTypeError{Encoding: string(enc.Raw), Reason: "raw pointers are not resolvable from an archived byte stream"}

	case KindVoid, KindUnknown:
		return &UnsupportedTypeError{Encoding: string(enc.Raw), Reason: "not a decodable value type"}

	default:
		return &UnsupportedTypeError{Encoding: string(enc.Raw), Reason: "unrecognized type encoding"}
	}
}

// decodeObject reads the HeadNil/HeadRef/HeadNew triad for an `@` slot. A
// freshly introduced object is assigned its ID before its class chain or
// ivars are read, so a cyclic ObjectReference appearing inside its own ivar
// list resolves correctly.
func (s *StreamReader) decodeObject() error {
	tag, err := s.hb.ReadTag()
	if err != nil {
		return err
	}
	switch tag {
	case HeadNil:
		s.emit(Nil{})
		return nil

	case HeadRef:
		id, err := s.hb.ReadUnsignedID()
		if err != nil {
			return err
		}
		if err := s.refs.ResolveObject(id); err != nil {
			return err
		}
		s.emit(ObjectReference{ID: id})
		return nil

	case HeadNew:
		id := s.refs.NewObject()
		s.emit(BeginObject{ID: id})

		chain, classEvents, err := s.decodeClassChain()
		if err != nil {
			return err
		}
		if len(chain) == 0 {
			return &MalformedStreamError{Offset: s.br.Offset(), Reason: "object class chain ends in Nil before any class"}
		}
		for _, e := range classEvents {
			s.emit(e)
		}

		for {
			peek, err := s.hb.PeekTag()
			if err != nil {
				return err
			}
			if peek == HeadEndObject {
				if _, err := s.hb.ReadTag(); err != nil {
					return err
				}
				break
			}
			if err := s.decodeTypedValuesGroup(); err != nil {
				return err
			}
		}
		s.emit(EndObject{})
		return nil

	default:
		return &MalformedHeadError{Offset: s.br.Offset() - 1, Head: tag, Want: "object (new, reference, or nil)"}
	}
}

// decodeClassChain reads the HeadNil/HeadRef/HeadNew triad for a class link,
// recursing into the superclass link until HeadNil terminates the chain. It
// returns the resolved chain (most-derived first) and the events
// representing it, without emitting them, so callers can interleave them
// with a preceding BeginObject.
func (s *StreamReader) decodeClassChain() ([]ClassLink, []Event, error) {
	tag, err := s.hb.ReadTag()
	if err != nil {
		return nil, nil, err
	}
	switch tag {
	case HeadNil:
		return nil, []Event{Nil{}}, nil

	case HeadRef:
		id, err := s.hb.ReadUnsignedID()
		if err != nil {
			return nil, nil, err
		}
		chain, err := s.refs.ResolveClassChain(id)
		if err != nil {
			return nil, nil, err
		}
		return chain, []Event{ClassReference{ID: id}}, nil

	case HeadNew:
		name, _, isNil, err := s.readSharedBytes()
		if err != nil {
			return nil, nil, err
		}
		if isNil {
			return nil, nil, &MalformedStreamError{Offset: s.br.Offset(), Reason: "nil class name"}
		}
		version, err := s.hb.ReadInt()
		if err != nil {
			return nil, nil, err
		}
		// Reserve this link's ID before reading its superclass so IDs follow
		// encounter order; the chain is filled in once the suffix is known.
		id := s.refs.NewClassChain(nil)
		superChain, superEvents, err := s.decodeClassChain()
		if err != nil {
			return nil, nil, err
		}
		link := ClassLink{Name: string(name), Version: int(version)}
		chain := append([]ClassLink{link}, superChain...)
		s.refs.classes.values[id] = chain
		events := append([]Event{SingleClass{ID: id, Name: link.Name, Version: link.Version}}, superEvents...)
		return chain, events, nil

	default:
		return nil, nil, &MalformedHeadError{Offset: s.br.Offset() - 1, Head: tag, Want: "class chain link (new, reference, or nil)"}
	}
}
