package wire

import "fmt"

// InvalidSignatureError is returned when the first 13 bytes of the input are
// not the "streamtyped" preamble.
type InvalidSignatureError struct {
	Got []byte
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("typedstream: invalid signature %q, want \"\\x04\\x0bstreamtyped\"", e.Got)
}

// UnsupportedStreamerVersionError is returned when the header declares a
// streamer version other than the one this decoder understands.
type UnsupportedStreamerVersionError struct {
	Version int
}

func (e *UnsupportedStreamerVersionError) Error() string {
	return fmt.Sprintf("typedstream: unsupported streamer version %d, only version %d is known", e.Version, SupportedStreamerVersion)
}

// TruncatedError is returned when the byte source is exhausted mid-value.
type TruncatedError struct {
	Offset int64
	Want   int
	Got    int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("typedstream: truncated at offset %d, wanted %d bytes, got %d", e.Offset, e.Want, e.Got)
}

// MalformedHeadError is returned when a head byte is incompatible with the
// interpretation requested by its caller.
type MalformedHeadError struct {
	Offset int64
	Head   byte
	Want   string
}

func (e *MalformedHeadError) Error() string {
	return fmt.Sprintf("typedstream: malformed head byte 0x%02x at offset %d, expected %s", e.Head, e.Offset, e.Want)
}

// Namespace identifies one of the three independent reference tables kept
// by the Reference Table component.
type Namespace int

const (
	NamespaceObject Namespace = iota
	NamespaceClass
	NamespaceCString
)

func (n Namespace) String() string {
	switch n {
	case NamespaceObject:
		return "object"
	case NamespaceClass:
		return "class"
	case NamespaceCString:
		return "cstring"
	default:
		return fmt.Sprintf("Namespace(%d)", int(n))
	}
}

// UnknownReferenceError is returned when a reference ID does not resolve to
// a prior "new" occurrence in the given namespace.
type UnknownReferenceError struct {
	ID        int
	Namespace Namespace
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("typedstream: unknown %s reference %d", e.Namespace, e.ID)
}

// BadTypeEncodingError is returned when a type-encoding byte string violates
// the Objective-C @encode grammar.
type BadTypeEncodingError struct {
	Encoding []byte
	Offset   int
}

func (e *BadTypeEncodingError) Error() string {
	return fmt.Sprintf("typedstream: bad type encoding %q at offset %d", e.Encoding, e.Offset)
}

// ValueOutOfRangeError is returned when a decoded numeric value does not fit
// the declared type encoding.
type ValueOutOfRangeError struct {
	Encoding byte
	Raw      int64
}

func (e *ValueOutOfRangeError) Error() string {
	return fmt.Sprintf("typedstream: value %d out of range for encoding %q", e.Raw, string(e.Encoding))
}

// UnsupportedTypeError is returned for an encoding the core declines to
// decode, such as a bitfield too wide to represent or a function pointer.
type UnsupportedTypeError struct {
	Encoding string
	Reason   string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("typedstream: unsupported type %q: %s", e.Encoding, e.Reason)
}

// MalformedStreamError covers structural violations of the event grammar
// that are not better described by a more specific error above, such as a
// class chain that ends in Nil before any SingleClass link.
type MalformedStreamError struct {
	Offset int64
	Reason string
}

func (e *MalformedStreamError) Error() string {
	return fmt.Sprintf("typedstream: malformed stream at offset %d: %s", e.Offset, e.Reason)
}
