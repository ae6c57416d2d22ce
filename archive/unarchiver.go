package archive

import (
	"io"

	"github.com/nxarchive/typedstream/wire"
)

// Unarchiver drives a wire.StreamReader and reconstructs the object graph it
// describes, dispatching each archived object to a registered ClassDecoder
// or DefaultDecoder when none matches.
//
// Like the StreamReader it wraps, an Unarchiver is single-use, synchronous,
// and keeps no state beyond its own fields: independent decodes never
// interfere with each other.
type Unarchiver struct {
	sr       *wire.StreamReader
	registry *Registry
	header   wire.Header

	objects     map[int]any
	classChains map[int][]wire.ClassLink
}

// NewUnarchiver validates the stream header and returns an Unarchiver ready
// to decode the value groups that follow. registry may be nil, in which
// case every object falls back to DefaultDecoder.
func NewUnarchiver(r io.Reader, registry *Registry) (*Unarchiver, error) {
	sr, err := wire.NewStreamReader(r)
	if err != nil {
		return nil, err
	}
	if registry == nil {
		registry = NewRegistry()
	}
	u := &Unarchiver{
		sr:          sr,
		registry:    registry,
		objects:     make(map[int]any),
		classChains: make(map[int][]wire.ClassLink),
	}
	ev, err := sr.Next()
	if err != nil {
		return nil, err
	}
	header, ok := ev.(wire.Header)
	if !ok {
		return nil, &wire.MalformedStreamError{Offset: sr.Offset(), Reason: "stream did not start with a header"}
	}
	u.header = header
	return u, nil
}

// WithTrace forwards to the underlying StreamReader's trace hook.
func (u *Unarchiver) WithTrace(fn func(format string, args ...any)) *Unarchiver {
	u.sr.WithTrace(fn)
	return u
}

// Header returns the stream's parsed preamble.
func (u *Unarchiver) Header() wire.Header {
	return u.header
}

// DecodeAll drains the stream, decoding every top-level typed-value group
// and returning every value produced, in order.
func (u *Unarchiver) DecodeAll() ([]any, error) {
	var all []any
	for {
		values, err := u.decodeGroup(nil)
		if err == io.EOF {
			return all, nil
		}
		if err != nil {
			return nil, err
		}
		all = append(all, values...)
	}
}

// DecodeTypedValues decodes exactly one top-level typed-value group. If
// expected is non-empty, the group's declared encodings must match it
// exactly (see TypeMismatchError) before any value is decoded.
func (u *Unarchiver) DecodeTypedValues(expected []wire.Encoding) ([]any, error) {
	return u.decodeGroup(expected)
}

func (u *Unarchiver) nextEvent() (wire.Event, error) {
	return u.sr.Next()
}

func (u *Unarchiver) decodeGroup(expected []wire.Encoding) ([]any, error) {
	ev, err := u.nextEvent()
	if err != nil {
		return nil, err
	}
	begin, ok := ev.(wire.BeginTypedValues)
	if !ok {
		return nil, &wire.MalformedStreamError{Offset: u.sr.Offset(), Reason: "expected BeginTypedValues"}
	}
	if len(expected) > 0 {
		if err := checkEncodingsMatch(expected, begin.Encodings); err != nil {
			return nil, err
		}
	}

	values := make([]any, 0, len(begin.Encodings))
	for _, enc := range begin.Encodings {
		v, err := u.decodeValue(enc)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	end, err := u.nextEvent()
	if err != nil {
		return nil, err
	}
	if _, ok := end.(wire.EndTypedValues); !ok {
		return nil, &wire.MalformedStreamError{Offset: u.sr.Offset(), Reason: "expected EndTypedValues"}
	}
	return values, nil
}

// ReadGroup reads one ivar group belonging to the object currently being
// decoded by a ClassDecoder, or reports done=true once EndObject is
// reached. A decoder must call ReadGroup until it reports done before
// returning, or the remaining groups will desynchronize the rest of the
// decode.
func (u *Unarchiver) ReadGroup() (encodings []wire.Encoding, values []any, done bool, err error) {
	ev, err := u.nextEvent()
	if err != nil {
		return nil, nil, false, err
	}
	switch e := ev.(type) {
	case wire.EndObject:
		return nil, nil, true, nil

	case wire.BeginTypedValues:
		vals := make([]any, 0, len(e.Encodings))
		for _, enc := range e.Encodings {
			v, err := u.decodeValue(enc)
			if err != nil {
				return nil, nil, false, err
			}
			vals = append(vals, v)
		}
		end, err := u.nextEvent()
		if err != nil {
			return nil, nil, false, err
		}
		if _, ok := end.(wire.EndTypedValues); !ok {
			return nil, nil, false, &wire.MalformedStreamError{Offset: u.sr.Offset(), Reason: "expected EndTypedValues"}
		}
		return e.Encodings, vals, false, nil

	default:
		return nil, nil, false, &wire.MalformedStreamError{Offset: u.sr.Offset(), Reason: "expected an object ivar group or end of object"}
	}
}

func (u *Unarchiver) decodeValue(enc wire.Encoding) (any, error) {
	switch enc.Kind {
	case wire.KindChar, wire.KindShort, wire.KindInt, wire.KindLong, wire.KindLongLong,
		wire.KindUChar, wire.KindUShort, wire.KindUInt, wire.KindULong, wire.KindULongLong,
		wire.KindBool, wire.KindFloat, wire.KindDouble, wire.KindBitfield:
		ev, err := u.nextEvent()
		if err != nil {
			return nil, err
		}
		atom, ok := ev.(wire.Atom)
		if !ok {
			return nil, &wire.MalformedStreamError{Offset: u.sr.Offset(), Reason: "expected a scalar value"}
		}
		return atomValue(atom), nil

	case wire.KindCString:
		ev, err := u.nextEvent()
		if err != nil {
			return nil, err
		}
		switch e := ev.(type) {
		case wire.CString:
			return e.Value, nil
		case wire.Nil:
			return nil, nil
		default:
			return nil, &wire.MalformedStreamError{Offset: u.sr.Offset(), Reason: "expected a c-string value"}
		}

	case wire.KindSelector:
		ev, err := u.nextEvent()
		if err != nil {
			return nil, err
		}
		switch e := ev.(type) {
		case wire.Selector:
			return e.Value, nil
		case wire.Nil:
			return nil, nil
		default:
			return nil, &wire.MalformedStreamError{Offset: u.sr.Offset(), Reason: "expected a selector value"}
		}

	case wire.KindObject:
		return u.decodeObject()

	case wire.KindClass:
		chain, err := u.decodeClassChainOrReference()
		if err != nil {
			return nil, err
		}
		return chain, nil

	case wire.KindArray:
		ev, err := u.nextEvent()
		if err != nil {
			return nil, err
		}
		begin, ok := ev.(wire.BeginArray)
		if !ok {
			return nil, &wire.MalformedStreamError{Offset: u.sr.Offset(), Reason: "expected an array value"}
		}
		elems := make([]any, 0, begin.Len)
		for i := 0; i < begin.Len; i++ {
			v, err := u.decodeValue(begin.Encoding)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
		end, err := u.nextEvent()
		if err != nil {
			return nil, err
		}
		if _, ok := end.(wire.EndArray); !ok {
			return nil, &wire.MalformedStreamError{Offset: u.sr.Offset(), Reason: "expected EndArray"}
		}
		return elems, nil

	case wire.KindStruct, wire.KindUnion:
		// A union's arms are decoded the same way a struct's fields are
		// (see wire.StreamReader.decodeValue): every arm in declaration
		// order, since the stream carries no tag saying which one was
		// active when it was archived.
		ev, err := u.nextEvent()
		if err != nil {
			return nil, err
		}
		begin, ok := ev.(wire.BeginStruct)
		if !ok {
			return nil, &wire.MalformedStreamError{Offset: u.sr.Offset(), Reason: "expected a struct or union value"}
		}
		fields := make([]any, 0, len(enc.Fields))
		for _, f := range enc.Fields {
			v, err := u.decodeValue(f)
			if err != nil {
				return nil, err
			}
			fields = append(fields, v)
		}
		end, err := u.nextEvent()
		if err != nil {
			return nil, err
		}
		if _, ok := end.(wire.EndStruct); !ok {
			return nil, &wire.MalformedStreamError{Offset: u.sr.Offset(), Reason: "expected EndStruct"}
		}
		return StructValue{Name: begin.Encoding.Name, Fields: fields}, nil

	default:
		return nil, &wire.UnsupportedTypeError{Encoding: string(enc.Raw), Reason: "not a decodable value type"}
	}
}

func (u *Unarchiver) decodeObject() (any, error) {
	ev, err := u.nextEvent()
	if err != nil {
		return nil, err
	}
	switch e := ev.(type) {
	case wire.Nil:
		return nil, nil

	case wire.ObjectReference:
		v, ok := u.objects[e.ID]
		if !ok {
			return nil, &wire.UnknownReferenceError{ID: e.ID, Namespace: wire.NamespaceObject}
		}
		return v, nil

	case wire.BeginObject:
		u.objects[e.ID] = &Placeholder{ID: e.ID}

		chain, err := u.decodeClassChainEvents()
		if err != nil {
			return nil, err
		}

		decode := DefaultDecoder
		name := ""
		if len(chain) > 0 {
			name = chain[0].Name
		}
		if dec, ok := u.registry.Lookup(name); ok {
			decode = dec
		}

		value, err := decode(u, chain)
		if err != nil {
			return nil, &ClassDecoderFailedError{ClassName: name, Err: err}
		}
		u.objects[e.ID] = value
		return value, nil

	default:
		return nil, &wire.MalformedStreamError{Offset: u.sr.Offset(), Reason: "expected an object value"}
	}
}

// decodeClassChainEvents reads the SingleClass/Nil or ClassReference
// sequence following a BeginObject, caching the chain suffix starting at
// each SingleClass link's ID so a later ClassReference to any of them
// resolves without the wire layer needing to expose its own tables.
func (u *Unarchiver) decodeClassChainEvents() ([]wire.ClassLink, error) {
	var ids []int
	var chain []wire.ClassLink
	for {
		ev, err := u.nextEvent()
		if err != nil {
			return nil, err
		}
		switch e := ev.(type) {
		case wire.SingleClass:
			ids = append(ids, e.ID)
			chain = append(chain, wire.ClassLink{Name: e.Name, Version: e.Version})
			continue
		case wire.Nil:
			u.cacheClassChainSuffixes(ids, chain)
			return chain, nil
		case wire.ClassReference:
			resolved, ok := u.classChains[e.ID]
			if !ok {
				return nil, &wire.UnknownReferenceError{ID: e.ID, Namespace: wire.NamespaceClass}
			}
			chain = append(chain, resolved...)
			u.cacheClassChainSuffixes(ids, chain)
			return chain, nil
		default:
			return nil, &wire.MalformedStreamError{Offset: u.sr.Offset(), Reason: "expected a class chain link"}
		}
	}
}

// decodeClassChainOrReference is the entry point for a bare `#` (Class)
// slot, which reads the same chain shape as an object's class but is not
// preceded by a BeginObject/ObjectReference/Nil triad of its own.
func (u *Unarchiver) decodeClassChainOrReference() ([]wire.ClassLink, error) {
	return u.decodeClassChainEvents()
}

func (u *Unarchiver) cacheClassChainSuffixes(ids []int, fullChain []wire.ClassLink) {
	for i, id := range ids {
		u.classChains[id] = append([]wire.ClassLink{}, fullChain[i:]...)
	}
}

func atomValue(a wire.Atom) any {
	switch a.Encoding.Kind {
	case wire.KindBool:
		return a.Bool
	case wire.KindFloat:
		return a.Float32
	case wire.KindDouble:
		return a.Float64
	case wire.KindUChar, wire.KindUShort, wire.KindUInt, wire.KindULong, wire.KindULongLong, wire.KindBitfield:
		return a.Uint
	default:
		return a.Int
	}
}

func encodingsEqual(a, b wire.Encoding) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case wire.KindArray:
		if a.ArrayLen != b.ArrayLen || a.ArrayElem == nil || b.ArrayElem == nil {
			return false
		}
		return encodingsEqual(*a.ArrayElem, *b.ArrayElem)
	case wire.KindStruct, wire.KindUnion:
		if a.Name != "" && b.Name != "" && a.Name != b.Name {
			return false
		}
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if !encodingsEqual(a.Fields[i], b.Fields[i]) {
				return false
			}
		}
		return true
	case wire.KindBitfield:
		return a.BitWidth == b.BitWidth
	case wire.KindPointer:
		if a.Pointee == nil || b.Pointee == nil {
			return false
		}
		return encodingsEqual(*a.Pointee, *b.Pointee)
	default:
		return true
	}
}

func checkEncodingsMatch(expected, actual []wire.Encoding) error {
	if len(expected) != len(actual) {
		return &TypeMismatchError{Expected: expected, Actual: actual}
	}
	for i := range expected {
		if !encodingsEqual(expected[i], actual[i]) {
			return &TypeMismatchError{Expected: expected, Actual: actual}
		}
	}
	return nil
}
