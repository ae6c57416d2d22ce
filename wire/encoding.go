package wire

import "strconv"

// Kind identifies the shape of a parsed Objective-C type encoding.
type Kind int

const (
	KindUnknown Kind = iota
	KindChar
	KindUChar
	KindShort
	KindUShort
	KindInt
	KindUInt
	KindLong
	KindULong
	KindLongLong
	KindULongLong
	KindFloat
	KindDouble
	KindBool
	KindVoid
	KindCString // *
	KindObject  // @
	KindClass   // #
	KindSelector // :
	KindArray
	KindStruct
	KindUnion
	KindBitfield
	KindPointer
)

func (k Kind) String() string {
	switch k {
	case KindChar:
		return "char"
	case KindUChar:
		return "unsigned char"
	case KindShort:
		return "short"
	case KindUShort:
		return "unsigned short"
	case KindInt:
		return "int"
	case KindUInt:
		return "unsigned int"
	case KindLong:
		return "long"
	case KindULong:
		return "unsigned long"
	case KindLongLong:
		return "long long"
	case KindULongLong:
		return "unsigned long long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	case KindVoid:
		return "void"
	case KindCString:
		return "cstring"
	case KindObject:
		return "object"
	case KindClass:
		return "class"
	case KindSelector:
		return "selector"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindBitfield:
		return "bitfield"
	case KindPointer:
		return "pointer"
	default:
		return "unknown"
	}
}

// Encoding is one parsed element of an Objective-C @encode type string: a
// primitive, or a composite (array, struct, union, bitfield, pointer) built
// from nested Encodings.
type Encoding struct {
	Kind Kind
	Raw  []byte

	// KindArray
	ArrayLen  int
	ArrayElem *Encoding

	// KindStruct, KindUnion
	Name   string
	Fields []Encoding

	// KindBitfield
	BitWidth int

	// KindPointer
	Pointee *Encoding
}

var primitiveKinds = map[byte]Kind{
	'c': KindChar,
	'C': KindUChar,
	's': KindShort,
	'S': KindUShort,
	'i': KindInt,
	'I': KindUInt,
	'l': KindLong,
	'L': KindULong,
	'q': KindLongLong,
	'Q': KindULongLong,
	'f': KindFloat,
	'd': KindDouble,
	'B': KindBool,
	'v': KindVoid,
	'*': KindCString,
	'@': KindObject,
	'#': KindClass,
	':': KindSelector,
}

// ParseTypeEncoding parses a single complete type encoding from raw (an
// @encode string such as "@", "{NSPoint=ff}", or "[3i]"). It returns an
// error if raw contains trailing bytes after the first complete encoding or
// violates the grammar.
func ParseTypeEncoding(raw []byte) (Encoding, error) {
	p := &encodingParser{src: raw}
	enc, err := p.parseOne()
	if err != nil {
		return Encoding{}, err
	}
	if p.pos != len(p.src) {
		return Encoding{}, &BadTypeEncodingError{Encoding: raw, Offset: p.pos}
	}
	return enc, nil
}

// ParseTypeEncodingList parses raw as a sequence of one or more
// back-to-back encodings (the common "ii" for two ints, "@@" for two
// objects, or a single "@" case), as carried by a BeginTypedValues group.
func ParseTypeEncodingList(raw []byte) ([]Encoding, error) {
	p := &encodingParser{src: raw}
	var list []Encoding
	for p.pos < len(p.src) {
		enc, err := p.parseOne()
		if err != nil {
			return nil, err
		}
		list = append(list, enc)
	}
	if len(list) == 0 {
		return nil, &BadTypeEncodingError{Encoding: raw, Offset: 0}
	}
	return list, nil
}

type encodingParser struct {
	src []byte
	pos int
}

func (p *encodingParser) fail() error {
	return &BadTypeEncodingError{Encoding: p.src, Offset: p.pos}
}

func (p *encodingParser) peek() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *encodingParser) next() (byte, bool) {
	b, ok := p.peek()
	if ok {
		p.pos++
	}
	return b, ok
}

// readDigits consumes a run of ASCII digits and returns their value.
func (p *encodingParser) readDigits() (int, error) {
	start := p.pos
	for {
		b, ok := p.peek()
		if !ok || b < '0' || b > '9' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return 0, p.fail()
	}
	n, err := strconv.Atoi(string(p.src[start:p.pos]))
	if err != nil {
		return 0, p.fail()
	}
	return n, nil
}

func (p *encodingParser) parseOne() (Encoding, error) {
	start := p.pos
	b, ok := p.next()
	if !ok {
		return Encoding{}, p.fail()
	}

	if kind, isPrim := primitiveKinds[b]; isPrim {
		return Encoding{Kind: kind, Raw: p.src[start:p.pos]}, nil
	}

	switch b {
	case '^':
		pointee, err := p.parseOne()
		if err != nil {
			return Encoding{}, err
		}
		return Encoding{Kind: KindPointer, Pointee: &pointee, Raw: p.src[start:p.pos]}, nil

	case '?':
		return Encoding{Kind: KindUnknown, Raw: p.src[start:p.pos]}, nil

	case '[':
		n, err := p.readDigits()
		if err != nil {
			return Encoding{}, err
		}
		elem, err := p.parseOne()
		if err != nil {
			return Encoding{}, err
		}
		close, ok := p.next()
		if !ok || close != ']' {
			return Encoding{}, p.fail()
		}
		return Encoding{Kind: KindArray, ArrayLen: n, ArrayElem: &elem, Raw: p.src[start:p.pos]}, nil

	case '{':
		return p.parseAggregate(start, '}', KindStruct)

	case '(':
		return p.parseAggregate(start, ')', KindUnion)

	case 'b':
		n, err := p.readDigits()
		if err != nil {
			return Encoding{}, err
		}
		return Encoding{Kind: KindBitfield, BitWidth: n, Raw: p.src[start:p.pos]}, nil

	default:
		return Encoding{Kind: KindUnknown, Raw: p.src[start:p.pos]}, nil
	}
}

// parseAggregate parses the body of a struct/union: `NAME=member...` up to
// and including closeTag, after the opening brace/paren has already been
// consumed. The name and the `=member...` section are both optional: a bare
// "{?}" (name omitted) or a reference-only "{NAME}" (members omitted,
// referring to a previously declared struct of that name) are both valid.
func (p *encodingParser) parseAggregate(start int, closeTag byte, kind Kind) (Encoding, error) {
	nameStart := p.pos
	for {
		b, ok := p.peek()
		if !ok {
			return Encoding{}, p.fail()
		}
		if b == '=' || b == closeTag {
			break
		}
		p.pos++
	}
	name := string(p.src[nameStart:p.pos])
	if name == "?" {
		name = ""
	}

	var fields []Encoding
	if b, ok := p.peek(); ok && b == '=' {
		p.pos++
		for {
			b, ok := p.peek()
			if !ok {
				return Encoding{}, p.fail()
			}
			if b == closeTag {
				break
			}
			field, err := p.parseOne()
			if err != nil {
				return Encoding{}, err
			}
			fields = append(fields, field)
		}
	}

	b, ok := p.next()
	if !ok || b != closeTag {
		return Encoding{}, p.fail()
	}
	return Encoding{Kind: kind, Name: name, Fields: fields, Raw: p.src[start:p.pos]}, nil
}
