package archive

import (
	"fmt"
	"strings"

	"github.com/nxarchive/typedstream/wire"
)

// TypeMismatchError is returned by DecodeTypedValues when the caller's
// expected encodings differ from what the stream actually declares.
type TypeMismatchError struct {
	Expected []wire.Encoding
	Actual   []wire.Encoding
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("typedstream: type mismatch: expected %s, got %s",
		encodingsString(e.Expected), encodingsString(e.Actual))
}

func encodingsString(encs []wire.Encoding) string {
	parts := make([]string, len(encs))
	for i, e := range encs {
		parts[i] = string(e.Raw)
	}
	return strings.Join(parts, "")
}

// ClassDecoderFailedError wraps an error returned by a registered
// ClassDecoder, attaching the class name that was being decoded.
type ClassDecoderFailedError struct {
	ClassName string
	Err       error
}

func (e *ClassDecoderFailedError) Error() string {
	return fmt.Sprintf("typedstream: class decoder for %q failed: %v", e.ClassName, e.Err)
}

func (e *ClassDecoderFailedError) Unwrap() error {
	return e.Err
}
