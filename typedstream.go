// Package typedstream decodes the NXTypedStream binary archive format used
// by NeXTSTEP and Foundation's NSArchiver/NSUnarchiver. It is a thin facade
// over wire (the low-level event stream) and archive (the object-graph
// unarchiver); most callers only need the two functions below.
package typedstream

import (
	"bytes"
	"io"

	"github.com/nxarchive/typedstream/archive"
	"github.com/nxarchive/typedstream/wire"
)

// Registry maps archived class names to decoders. See archive.Registry.
type Registry = archive.Registry

// NewRegistry returns an empty class decoder registry.
func NewRegistry() *Registry {
	return archive.NewRegistry()
}

// ClassDecoder reconstructs one archived object. See archive.ClassDecoder.
type ClassDecoder = archive.ClassDecoder

// GenericArchivedObject is the fallback representation for a class with no
// registered decoder. See archive.GenericArchivedObject.
type GenericArchivedObject = archive.GenericArchivedObject

// UnarchiveFromBytes decodes data and returns its single root value. registry
// may be nil to use only the built-in generic fallback decoder.
//
// The stream must decode to exactly one value in total; more than one
// (whether from several top-level groups or one group declaring several
// encodings) is an error, since the name promises one value. Use
// UnarchiveAll for multi-value streams.
func UnarchiveFromBytes(data []byte, registry *Registry) (any, error) {
	values, err := UnarchiveAll(data, registry)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, &wire.MalformedStreamError{Reason: "expected exactly one root value"}
	}
	return values[0], nil
}

// UnarchiveAll decodes every top-level typed-value group in data and returns
// every value produced, in order.
func UnarchiveAll(data []byte, registry *Registry) ([]any, error) {
	return UnarchiveReader(bytes.NewReader(data), registry)
}

// UnarchiveReader is the streaming form of UnarchiveAll, for callers that
// have an io.Reader instead of an in-memory buffer.
func UnarchiveReader(r io.Reader, registry *Registry) ([]any, error) {
	u, err := archive.NewUnarchiver(r, registry)
	if err != nil {
		return nil, err
	}
	return u.DecodeAll()
}
