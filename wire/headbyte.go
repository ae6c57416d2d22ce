package wire

// Head-byte tags. Every scalar or reference in the format is introduced by
// one of these single bytes. Values outside this reserved set are literal
// signed byte values taken directly (the "small signed integer literal"
// fast path described in the format notes).
const (
	// HeadNil marks either a nil object in an `@` slot or the end of a
	// class chain (both read as the single Nil event).
	HeadNil byte = 0x80
	// HeadIntExt2 introduces a 2-byte signed integer extension.
	HeadIntExt2 byte = 0x81
	// HeadIntExt4 introduces a 4-byte signed integer extension.
	HeadIntExt4 byte = 0x82
	// HeadFloat introduces an IEEE float; the caller's expected type
	// (4 or 8 bytes) decides how many bytes follow.
	HeadFloat byte = 0x83
	// HeadNew introduces a freshly shared value: object, class link,
	// c-string, or type-encoding.
	HeadNew byte = 0x84
	// HeadRef introduces a reference into a namespace: the ID follows as
	// a head-byte-coded unsigned integer.
	HeadRef byte = 0x85
	// HeadEndObject terminates the sequence of typed-value groups inside
	// an object.
	HeadEndObject byte = 0x86
)

// SupportedStreamerVersion is the only streamer version this decoder
// understands; headers declaring any other version are rejected.
const SupportedStreamerVersion = 4

// HeadByteCodec decodes the format's variable-width integer and tag-byte
// scheme on top of a ByteReader.
type HeadByteCodec struct {
	br *ByteReader
}

// NewHeadByteCodec wraps br.
func NewHeadByteCodec(br *ByteReader) *HeadByteCodec {
	return &HeadByteCodec{br: br}
}

// PeekTag returns the next byte without consuming it.
func (c *HeadByteCodec) PeekTag() (byte, error) {
	b, err := c.br.ReadByte()
	if err != nil {
		return 0, err
	}
	if err := c.br.UnreadByte(); err != nil {
		return 0, err
	}
	return b, nil
}

// ReadTag consumes and returns the next raw head byte, for callers (the
// Stream Reader) that need to branch on HeadNil/HeadNew/HeadRef/HeadEndObject
// themselves rather than have this codec interpret it as a scalar.
func (c *HeadByteCodec) ReadTag() (byte, error) {
	return c.br.ReadByte()
}

// ReadInt reads a signed integer: a literal byte value, or a sign-extended
// 2- or 4-byte extension introduced by HeadIntExt2/HeadIntExt4.
func (c *HeadByteCodec) ReadInt() (int64, error) {
	off := c.br.Offset()
	tag, err := c.br.ReadByte()
	if err != nil {
		return 0, err
	}
	switch tag {
	case HeadIntExt2:
		v, err := c.br.ReadInt16()
		if err != nil {
			return 0, err
		}
		return int64(v), nil
	case HeadIntExt4:
		v, err := c.br.ReadInt32()
		if err != nil {
			return 0, err
		}
		return int64(v), nil
	case HeadNil, HeadFloat, HeadNew, HeadRef, HeadEndObject:
		return 0, &MalformedHeadError{Offset: off, Head: tag, Want: "integer"}
	default:
		return int64(int8(tag)), nil
	}
}

// ReadUnsignedID reads an integer intended to be used as a reference ID or
// count and rejects negative values.
func (c *HeadByteCodec) ReadUnsignedID() (int, error) {
	off := c.br.Offset()
	v, err := c.ReadInt()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, &MalformedHeadError{Offset: off, Head: byte(v), Want: "non-negative integer"}
	}
	return int(v), nil
}

// ReadFloat32 reads a HeadFloat-tagged 4-byte IEEE float.
func (c *HeadByteCodec) ReadFloat32() (float32, error) {
	off := c.br.Offset()
	tag, err := c.br.ReadByte()
	if err != nil {
		return 0, err
	}
	if tag != HeadFloat {
		return 0, &MalformedHeadError{Offset: off, Head: tag, Want: "float"}
	}
	return c.br.ReadFloat32()
}

// ReadFloat64 reads a HeadFloat-tagged 8-byte IEEE float.
func (c *HeadByteCodec) ReadFloat64() (float64, error) {
	off := c.br.Offset()
	tag, err := c.br.ReadByte()
	if err != nil {
		return 0, err
	}
	if tag != HeadFloat {
		return 0, &MalformedHeadError{Offset: off, Head: tag, Want: "float"}
	}
	return c.br.ReadFloat64()
}
