package wire

// refTable is an append-only, ID-indexed table. Each namespace (objects,
// classes, c-strings/type-encodings) gets its own instance; IDs are assigned
// in encounter order starting at 0 and are never reused or removed, matching
// the format's "new" values accumulating for the life of the stream.
//
// Unlike the generic registry this is modeled on, refTable carries no mutex:
// a single decode walks the stream synchronously and never shares a
// ReferenceTable across goroutines.
type refTable[V any] struct {
	ns     Namespace
	values []V
}

func newRefTable[V any](ns Namespace) *refTable[V] {
	return &refTable[V]{ns: ns}
}

// add assigns the next ID to v and returns it.
func (t *refTable[V]) add(v V) int {
	t.values = append(t.values, v)
	return len(t.values) - 1
}

// get resolves id, returning *UnknownReferenceError if it was never
// assigned.
func (t *refTable[V]) get(id int) (V, error) {
	if id < 0 || id >= len(t.values) {
		var zero V
		return zero, &UnknownReferenceError{ID: id, Namespace: t.ns}
	}
	return t.values[id], nil
}

func (t *refTable[V]) count() int {
	return len(t.values)
}

// ClassLink is one link of a class chain: a class name and its archived
// version number, as produced by a SingleClass event.
type ClassLink struct {
	Name    string
	Version int
}

// ReferenceTable holds the three independent namespaces a typedstream shares
// values through. Objects are tracked only as an ID count: the wire layer
// never inspects or replays object content, so there is nothing to store
// beyond "this ID exists" for bounds-checking ObjectReference. Classes store
// the full remaining ancestor-chain suffix starting at each link, since a
// ClassReference must resolve to a complete chain, not just one name.
// C-strings and type-encoding strings share a namespace and store their raw
// bytes; a per-ID map for parsed type-encodings sits alongside them.
type ReferenceTable struct {
	objects  *refTable[struct{}]
	classes  *refTable[[]ClassLink]
	cstrings *refTable[[]byte]

	encodingCache map[int]Encoding
}

// NewReferenceTable returns an empty set of namespaces for a fresh decode.
func NewReferenceTable() *ReferenceTable {
	return &ReferenceTable{
		objects:       newRefTable[struct{}](NamespaceObject),
		classes:       newRefTable[[]ClassLink](NamespaceClass),
		cstrings:      newRefTable[[]byte](NamespaceCString),
		encodingCache: make(map[int]Encoding),
	}
}

// NewObject assigns and returns the next object ID.
func (t *ReferenceTable) NewObject() int {
	return t.objects.add(struct{}{})
}

// ResolveObject checks that id was previously assigned by NewObject.
func (t *ReferenceTable) ResolveObject(id int) error {
	_, err := t.objects.get(id)
	return err
}

// NewClassChain assigns the next class ID to chain, the sequence of
// ancestor links starting at the class just read (most-derived first).
func (t *ReferenceTable) NewClassChain(chain []ClassLink) int {
	return t.classes.add(chain)
}

// ResolveClassChain resolves id to the chain recorded by NewClassChain.
func (t *ReferenceTable) ResolveClassChain(id int) ([]ClassLink, error) {
	return t.classes.get(id)
}

// NewCString assigns the next c-string/type-encoding ID to raw.
func (t *ReferenceTable) NewCString(raw []byte) int {
	return t.cstrings.add(raw)
}

// ResolveCString resolves id to the bytes recorded by NewCString.
func (t *ReferenceTable) ResolveCString(id int) ([]byte, error) {
	return t.cstrings.get(id)
}

// CachedEncoding returns the parsed Encoding previously stored for a
// c-string ID via CacheEncoding, if any.
func (t *ReferenceTable) CachedEncoding(id int) (Encoding, bool) {
	enc, ok := t.encodingCache[id]
	return enc, ok
}

// CacheEncoding records the parsed form of the type-encoding string at id.
// StreamReader does not call it: each typed-values group parses its
// encoding string again, whether it arrived new or by c-string reference.
func (t *ReferenceTable) CacheEncoding(id int, enc Encoding) {
	t.encodingCache[id] = enc
}
