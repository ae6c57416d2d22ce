package wire

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// ByteReader provides positioned byte-level primitives over an input
// source. It tracks the number of bytes consumed so far for diagnostics and
// switches its multi-byte integer/float interpretation to the byte order
// recorded in the stream header once SetByteOrder has been called.
type ByteReader struct {
	r         *bufio.Reader
	bytesRead int64
	order     binary.ByteOrder
}

// NewByteReader wraps r. Multi-byte reads default to little-endian (the
// typedstream format's overwhelmingly common case) until SetByteOrder
// records the order declared by the stream header.
func NewByteReader(r io.Reader) *ByteReader {
	return &ByteReader{
		r:     bufio.NewReader(r),
		order: binary.LittleEndian,
	}
}

// Offset returns the number of bytes consumed so far.
func (b *ByteReader) Offset() int64 {
	return b.bytesRead
}

// SetByteOrder changes the byte order used for all subsequent multi-byte
// reads. The stream header carries this flag and it applies to everything
// that follows it.
func (b *ByteReader) SetByteOrder(order binary.ByteOrder) {
	b.order = order
}

// ReadN reads exactly n bytes, failing with *TruncatedError if the source is
// exhausted first.
func (b *ByteReader) ReadN(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(b.r, buf)
	b.bytesRead += int64(got)
	if err != nil {
		return nil, &TruncatedError{Offset: b.bytesRead - int64(got), Want: n, Got: got}
	}
	return buf, nil
}

// ReadByte reads a single byte. It satisfies io.ByteReader.
func (b *ByteReader) ReadByte() (byte, error) {
	c, err := b.r.ReadByte()
	if err != nil {
		return 0, &TruncatedError{Offset: b.bytesRead, Want: 1, Got: 0}
	}
	b.bytesRead++
	return c, nil
}

// UnreadByte pushes the most recently read byte back onto the stream. It
// must only be called once per ReadByte.
func (b *ByteReader) UnreadByte() error {
	if err := b.r.UnreadByte(); err != nil {
		return err
	}
	b.bytesRead--
	return nil
}

// ReadUint16 reads an unsigned 16-bit integer in the current byte order.
func (b *ByteReader) ReadUint16() (uint16, error) {
	buf, err := b.ReadN(2)
	if err != nil {
		return 0, err
	}
	return b.order.Uint16(buf), nil
}

// ReadUint32 reads an unsigned 32-bit integer in the current byte order.
func (b *ByteReader) ReadUint32() (uint32, error) {
	buf, err := b.ReadN(4)
	if err != nil {
		return 0, err
	}
	return b.order.Uint32(buf), nil
}

// ReadInt16 reads a signed 16-bit integer in the current byte order.
func (b *ByteReader) ReadInt16() (int16, error) {
	v, err := b.ReadUint16()
	return int16(v), err
}

// ReadInt32 reads a signed 32-bit integer in the current byte order.
func (b *ByteReader) ReadInt32() (int32, error) {
	v, err := b.ReadUint32()
	return int32(v), err
}

// ReadFloat32 reads an IEEE-754 single precision float in the current byte
// order.
func (b *ByteReader) ReadFloat32() (float32, error) {
	v, err := b.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFloat64 reads an IEEE-754 double precision float in the current byte
// order.
func (b *ByteReader) ReadFloat64() (float64, error) {
	buf, err := b.ReadN(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(b.order.Uint64(buf)), nil
}

// AtEOF reports whether the source has no more bytes to give, without
// consuming anything. Used by the Stream Reader to distinguish a clean end
// of input from a truncated value mid-read.
func (b *ByteReader) AtEOF() bool {
	_, err := b.r.Peek(1)
	return err != nil
}

// ReadCString reads a length-prefixed byte string (the typedstream format
// never null-terminates its shared strings; length always precedes data).
func (b *ByteReader) ReadCString(length int) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	return b.ReadN(length)
}
