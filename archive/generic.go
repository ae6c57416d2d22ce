package archive

import "github.com/nxarchive/typedstream/wire"

// GenericArchivedObject is the fallback representation for any class with
// no registered decoder: its class chain plus the raw contents of each ivar
// group it contained, each group a list of already-decoded values in
// declaration order.
type GenericArchivedObject struct {
	ClassChain []wire.ClassLink
	Contents   [][]any
}

// ClassName returns the most-derived class name in the chain, or "" for an
// empty chain.
func (g *GenericArchivedObject) ClassName() string {
	if len(g.ClassChain) == 0 {
		return ""
	}
	return g.ClassChain[0].Name
}

// DefaultDecoder gathers every remaining ivar group of an object into a
// GenericArchivedObject. It is used whenever no decoder is registered for
// the object's class.
func DefaultDecoder(u *Unarchiver, chain []wire.ClassLink) (any, error) {
	obj := &GenericArchivedObject{ClassChain: chain}
	for {
		_, values, done, err := u.ReadGroup()
		if err != nil {
			return nil, err
		}
		if done {
			return obj, nil
		}
		obj.Contents = append(obj.Contents, values)
	}
}

// StructValue is the decoded form of a struct- or union-typed value: the
// struct's tag name (empty for an anonymous "?" struct) and its field
// values in declaration order. Typedstream carries no field names, only
// types, so fields are positional.
type StructValue struct {
	Name   string
	Fields []any
}

// Placeholder stands in for an object whose class decoder has not finished
// running yet. Seeing one means the archive contains a reference cycle: an
// ObjectReference pointing back to an object that is still in the middle of
// being decoded. The Unarchiver replaces the placeholder in its own ID table
// once the decoder returns, but it does not rewrite placeholders already
// stored inside other decoded values, and it exposes no lookup of objects by
// ID; ID records which object the placeholder stands for.
type Placeholder struct {
	ID int
}
