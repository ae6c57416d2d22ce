package archive

import "github.com/nxarchive/typedstream/wire"

// ClassDecoder reconstructs one archived object. It runs after the object's
// class chain has already been read; it reads the object's own ivar groups
// by calling u.ReadGroup until done, and returns whatever representation it
// chooses.
type ClassDecoder func(u *Unarchiver, chain []wire.ClassLink) (any, error)

// Registry maps archived class names to decoders. It is a plain map, not a
// mutex-guarded one: a decode walks a single stream synchronously (see the
// concurrency model), so nothing ever mutates or reads a Registry
// concurrently with itself.
type Registry struct {
	decoders map[string]ClassDecoder
}

// NewRegistry returns an empty registry. Callers register decoders with
// Register before passing the registry to NewUnarchiver.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]ClassDecoder)}
}

// Register associates name with dec, overwriting any previous decoder for
// that name. Multiple class names may share a decoder by calling Register
// once per name.
func (r *Registry) Register(name string, dec ClassDecoder) {
	r.decoders[name] = dec
}

// Lookup returns the decoder registered for name, if any.
func (r *Registry) Lookup(name string) (ClassDecoder, bool) {
	dec, ok := r.decoders[name]
	return dec, ok
}
