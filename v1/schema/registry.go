package schema

import (
	"reflect"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Registry is the immutable type to descriptor map produced by Builder.Build.
// It holds no locks; every method is safe for concurrent use.
type Registry struct {
	types       map[string]*TypeDescriptor
	names       []string
	byType      map[reflect.Type]*TypeDescriptor
	interfaces  map[reflect.Type]*TypeDescriptor
	ancestors   map[reflect.Type]Ancestor
	fingerprint uint64
}

// Ancestor is the result of resolving a Go type against the registry.
type Ancestor struct {
	// Descriptor is the registered type the value is encoded as.
	Descriptor *TypeDescriptor

	// Index is the embedded field path from the resolved Go type to the
	// descriptor's Go type. Empty for exact matches. Callers must not modify it.
	Index []int

	// Exact reports whether the Go type itself is registered.
	Exact bool
}

// Resolve returns the descriptor for t, or for its nearest declared registered
// ancestor. Pointer types resolve as their element type.
func (r *Registry) Resolve(t reflect.Type) (*TypeDescriptor, error) {
	a, err := r.ResolveAncestor(t)
	if err != nil {
		return nil, err
	}
	return a.Descriptor, nil
}

// ResolveAncestor is Resolve plus the embedding path needed to view a value of
// t as the resolved descriptor's Go type.
func (r *Registry) ResolveAncestor(t reflect.Type) (Ancestor, error) {
	if t == nil {
		return Ancestor{}, &UnresolvedTypeError{Type: "<nil>"}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if d, ok := r.byType[t]; ok {
		return Ancestor{Descriptor: d, Exact: true}, nil
	}
	if a, ok := r.ancestors[t]; ok {
		return a, nil
	}
	return Ancestor{}, &UnresolvedTypeError{Type: t.String()}
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*TypeDescriptor, bool) {
	d, ok := r.types[name]
	return d, ok
}

// ForType returns the descriptor bound exactly to the struct type t.
func (r *Registry) ForType(t reflect.Type) (*TypeDescriptor, bool) {
	d, ok := r.byType[t]
	return d, ok
}

// InterfaceBase returns the base descriptor bound to the interface type t.
func (r *Registry) InterfaceBase(t reflect.Type) (*TypeDescriptor, bool) {
	d, ok := r.interfaces[t]
	return d, ok
}

// Types returns every descriptor ordered by name.
func (r *Registry) Types() []*TypeDescriptor {
	out := make([]*TypeDescriptor, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.types[n])
	}
	return out
}

// Len returns the number of registered types.
func (r *Registry) Len() int { return len(r.types) }

// Fingerprint identifies the binding table the registry was built from. Go type
// bindings do not contribute; two processes with the same table agree on it.
func (r *Registry) Fingerprint() uint64 { return r.fingerprint }

func fingerprint(r *Registry) uint64 {
	h := xxhash.New()
	for _, name := range r.names {
		d := r.types[name]
		_, _ = h.WriteString("type " + name)
		if d.parent != nil {
			_, _ = h.WriteString(" < " + d.parent.name + " @" + strconv.Itoa(int(d.discriminator)))
		}
		if d.abstract {
			_, _ = h.WriteString(" abstract")
		}
		_, _ = h.WriteString("\n")
		for _, f := range d.fields {
			_, _ = h.WriteString(" " + strconv.Itoa(int(f.Tag)) + " " + f.Name + "\n")
		}
	}
	return h.Sum64()
}
