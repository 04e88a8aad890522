package schema

import (
	"fmt"
	"reflect"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"
)

// Builder collects the binding table and the Go type catalogue and compiles
// them into an immutable Registry. A Builder is not safe for concurrent use and
// can be built only once.
//
// Example:
//
//	b := schema.NewBuilder()
//	_ = b.Register("Shape", []schema.FieldBinding{{Tag: 1, Name: "Id"}}, "")
//	_ = b.Register("Polygon", []schema.FieldBinding{{Tag: 6, Name: "ExteriorRing"}}, "")
//	_ = b.RegisterSubtype("Shape", 5, "Polygon")
//	_ = b.Bind("Shape", reflect.TypeFor[Shape]())
//	_ = b.Bind("Polygon", reflect.TypeFor[Polygon]())
//	reg, err := b.Build()
type Builder struct {
	types      map[string]*TypeDescriptor
	order      []string
	bindings   map[string]reflect.Type
	interfaces map[reflect.Type]string
	ancestors  map[reflect.Type]reflect.Type
	sealed     bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		types:      make(map[string]*TypeDescriptor),
		bindings:   make(map[string]reflect.Type),
		interfaces: make(map[reflect.Type]string),
		ancestors:  make(map[reflect.Type]reflect.Type),
	}
}

// Register adds a descriptor for name with its own fields. A non-empty parent
// must already be registered; the new fields may not reuse any tag of the
// parent's chain.
func (b *Builder) Register(name string, fields []FieldBinding, parent string) error {
	if b.sealed {
		return ErrRegistrySealed
	}
	if name == "" {
		return &BindingError{Type: name, Reason: "empty type name"}
	}
	if _, exists := b.types[name]; exists {
		return &DuplicateTypeError{Type: name}
	}

	var parentDesc *TypeDescriptor
	if parent != "" {
		p, ok := b.types[parent]
		if !ok {
			return &UnknownBaseTypeError{Base: parent}
		}
		parentDesc = p
	}

	own := slices.Clone(fields)
	slices.SortFunc(own, func(a, c FieldBinding) int { return int(a.Tag) - int(c.Tag) })

	names := make(map[string]struct{}, len(own))
	for i, f := range own {
		if err := validateTag(name, f.Tag); err != nil {
			return err
		}
		if f.Name == "" {
			return &BindingError{Type: name, Reason: fmt.Sprintf("tag %d has no field name", f.Tag)}
		}
		if _, dup := names[f.Name]; dup {
			return &BindingError{Type: name, Field: f.Name, Reason: "field bound twice"}
		}
		names[f.Name] = struct{}{}
		if i > 0 && own[i-1].Tag == f.Tag {
			return &DuplicateTagError{Type: name, Tag: f.Tag, Owner: "field " + name + "." + own[i-1].Name}
		}
	}

	if parentDesc != nil {
		inherited := parentDesc.chainTags()
		for _, f := range own {
			if owner, taken := inherited[f.Tag]; taken {
				return &DuplicateTagError{Type: name, Tag: f.Tag, Owner: owner}
			}
		}
	}

	b.types[name] = &TypeDescriptor{
		name:         name,
		fields:       own,
		parent:       parentDesc,
		subtypeByTag: make(map[int32]*TypeDescriptor),
	}
	b.order = append(b.order, name)
	return nil
}

// SetAbstract marks a registered type as abstract: it is never instantiated on
// decode, so a value of it must carry a discriminator selecting a subtype.
func (b *Builder) SetAbstract(name string) error {
	if b.sealed {
		return ErrRegistrySealed
	}
	d, ok := b.types[name]
	if !ok {
		return &UnresolvedTypeError{Type: name}
	}
	d.abstract = true
	return nil
}

// RegisterSubtype attaches the registered type subtype to base under the
// discriminator tag.
func (b *Builder) RegisterSubtype(base string, tag int32, subtype string) error {
	if b.sealed {
		return ErrRegistrySealed
	}
	baseDesc, ok := b.types[base]
	if !ok {
		return &UnknownBaseTypeError{Base: base}
	}
	sub, ok := b.types[subtype]
	if !ok {
		return &UnresolvedTypeError{Type: subtype}
	}
	if err := validateTag(base, tag); err != nil {
		return err
	}
	if baseDesc.IsA(sub) {
		return &BindingError{Type: subtype, Reason: fmt.Sprintf("cannot derive from its own descendant %s", base)}
	}
	if sub.discriminator != 0 {
		return &BindingError{Type: subtype, Reason: fmt.Sprintf("already attached to %s under tag %d", sub.parent.name, sub.discriminator)}
	}
	if sub.parent != nil && sub.parent != baseDesc {
		return &BindingError{Type: subtype, Reason: fmt.Sprintf("registered with parent %s, not %s", sub.parent.name, base)}
	}

	visible := baseDesc.chainTags()
	for t, owner := range b.subtreeTags(baseDesc) {
		visible[t] = owner
	}
	if owner, taken := visible[tag]; taken {
		return &DuplicateTagError{Type: base, Tag: tag, Owner: owner}
	}
	subTags := b.subtreeTags(sub)
	if owner, taken := subTags[tag]; taken {
		return &DuplicateTagError{Type: base, Tag: tag, Owner: owner}
	}
	if sub.parent == nil {
		inherited := baseDesc.chainTags()
		for t := range subTags {
			if owner, taken := inherited[t]; taken {
				return &DuplicateTagError{Type: subtype, Tag: t, Owner: owner}
			}
		}
	}

	sub.parent = baseDesc
	sub.discriminator = tag
	baseDesc.subtypes = append(baseDesc.subtypes, SubtypeBinding{Tag: tag, Subtype: sub})
	slices.SortFunc(baseDesc.subtypes, func(a, c SubtypeBinding) int { return int(a.Tag) - int(c.Tag) })
	baseDesc.subtypeByTag[tag] = sub
	return nil
}

// Bind associates a registered (or to-be-registered) type name with its Go struct type.
func (b *Builder) Bind(name string, t reflect.Type) error {
	if b.sealed {
		return ErrRegistrySealed
	}
	if t == nil || t.Kind() != reflect.Struct {
		return &BindingError{Type: name, Reason: fmt.Sprintf("Go type %v is not a struct", t)}
	}
	if prev, ok := b.bindings[name]; ok {
		return &BindingError{Type: name, Reason: fmt.Sprintf("already bound to %v", prev)}
	}
	for other, bound := range b.bindings {
		if bound == t {
			return &BindingError{Type: name, Reason: fmt.Sprintf("Go type %v is already bound to %s", t, other)}
		}
	}
	b.bindings[name] = t
	return nil
}

// BindInterface declares the Go interface that holds polymorphic values of base.
func (b *Builder) BindInterface(t reflect.Type, base string) error {
	if b.sealed {
		return ErrRegistrySealed
	}
	if t == nil || t.Kind() != reflect.Interface {
		return &BindingError{Type: base, Reason: fmt.Sprintf("Go type %v is not an interface", t)}
	}
	if prev, ok := b.interfaces[t]; ok {
		return &BindingError{Type: base, Reason: fmt.Sprintf("interface %v is already bound to %s", t, prev)}
	}
	b.interfaces[t] = base
	return nil
}

// DeclareAncestor records that the unregistered struct type child embeds
// ancestor and may be encoded as it. Chains of declarations are followed until
// a registered type is reached.
func (b *Builder) DeclareAncestor(child, ancestor reflect.Type) error {
	if b.sealed {
		return ErrRegistrySealed
	}
	if child == nil || child.Kind() != reflect.Struct || ancestor == nil || ancestor.Kind() != reflect.Struct {
		return &BindingError{Type: fmt.Sprint(child), Reason: "ancestor declarations take two struct types"}
	}
	if child == ancestor {
		return &BindingError{Type: child.String(), Reason: "a type cannot be its own ancestor"}
	}
	if prev, ok := b.ancestors[child]; ok {
		return &BindingError{Type: child.String(), Reason: fmt.Sprintf("ancestor already declared as %v", prev)}
	}
	b.ancestors[child] = ancestor
	return nil
}

// Build validates the collected table against the Go types and returns the
// immutable Registry. The Builder is sealed afterwards, even on failure.
func (b *Builder) Build() (*Registry, error) {
	if b.sealed {
		return nil, ErrRegistrySealed
	}
	b.sealed = true

	reg := &Registry{
		types:      make(map[string]*TypeDescriptor, len(b.types)),
		byType:     make(map[reflect.Type]*TypeDescriptor, len(b.types)),
		interfaces: make(map[reflect.Type]*TypeDescriptor, len(b.interfaces)),
		ancestors:  make(map[reflect.Type]Ancestor, len(b.ancestors)),
	}

	for name := range b.bindings {
		if _, ok := b.types[name]; !ok {
			return nil, &BindingError{Type: name, Reason: "bound to a Go type but never registered"}
		}
	}

	for _, name := range b.order {
		d := b.types[name]
		t, ok := b.bindings[name]
		if !ok {
			return nil, &BindingError{Type: name, Reason: "no Go type bound"}
		}
		d.goType = t
		reg.types[name] = d
		reg.byType[t] = d
	}

	for _, name := range b.order {
		if err := checkDescriptor(b.types[name]); err != nil {
			return nil, err
		}
	}

	for iface, base := range b.interfaces {
		d, ok := reg.types[base]
		if !ok {
			return nil, &UnknownBaseTypeError{Base: base}
		}
		for _, member := range b.subtree(d) {
			if !reflect.PointerTo(member.goType).Implements(iface) {
				return nil, &BindingError{Type: member.name, Reason: fmt.Sprintf("*%v does not implement %v", member.goType, iface)}
			}
		}
		reg.interfaces[iface] = d
	}

	for child := range b.ancestors {
		a, err := b.resolveDeclared(reg, child)
		if err != nil {
			return nil, err
		}
		reg.ancestors[child] = a
	}

	reg.names = slices.Clone(b.order)
	slices.Sort(reg.names)
	reg.fingerprint = fingerprint(reg)
	return reg, nil
}

func checkDescriptor(d *TypeDescriptor) error {
	for _, f := range d.fields {
		sf, ok := d.goType.FieldByName(f.Name)
		if !ok {
			return &BindingError{Type: d.name, Field: f.Name, Reason: fmt.Sprintf("no such field on %v", d.goType)}
		}
		if !sf.IsExported() {
			return &BindingError{Type: d.name, Field: f.Name, Reason: "field is not exported"}
		}
	}
	if d.parent == nil {
		return nil
	}
	if d.discriminator == 0 {
		return &BindingError{Type: d.name, Reason: fmt.Sprintf("derives from %s without a discriminator", d.parent.name)}
	}
	if _, ok := EmbedPath(d.goType, d.parent.goType); !ok {
		return &BindingError{Type: d.name, Reason: fmt.Sprintf("%v does not embed %v", d.goType, d.parent.goType)}
	}
	return checkInheritedFields(d)
}

// checkInheritedFields rejects a binding of d that reaches a Go field one of
// d's ancestors already binds under another tag.
func checkInheritedFields(d *TypeDescriptor) error {
	bound := make(map[string]*TypeDescriptor)
	for _, a := range d.Chain() {
		var prefix []int
		if a != d {
			p, ok := EmbedPath(d.goType, a.goType)
			if !ok {
				// reported when the type between them is checked
				return nil
			}
			prefix = p
		}
		for _, f := range a.fields {
			sf, ok := a.goType.FieldByName(f.Name)
			if !ok {
				continue
			}
			key := fmt.Sprint(append(slices.Clone(prefix), sf.Index...))
			if owner, dup := bound[key]; dup {
				return &BindingError{
					Type:   d.name,
					Field:  f.Name,
					Reason: fmt.Sprintf("tag %d binds a field %s already binds", f.Tag, owner.name),
				}
			}
			bound[key] = a
		}
	}
	return nil
}

// resolveDeclared follows ancestor declarations from child to the first
// registered type, concatenating the embedding paths.
func (b *Builder) resolveDeclared(reg *Registry, child reflect.Type) (Ancestor, error) {
	if _, registered := reg.byType[child]; registered {
		return Ancestor{}, &BindingError{Type: child.String(), Reason: "registered types cannot declare an ancestor"}
	}

	var index []int
	seen := map[reflect.Type]bool{child: true}
	cur := child
	for {
		next, ok := b.ancestors[cur]
		if !ok {
			return Ancestor{}, &UnresolvedTypeError{Type: child.String()}
		}
		path, ok := EmbedPath(cur, next)
		if !ok {
			return Ancestor{}, &BindingError{Type: cur.String(), Reason: fmt.Sprintf("does not embed declared ancestor %v", next)}
		}
		index = append(index, path...)
		if d, registered := reg.byType[next]; registered {
			return Ancestor{Descriptor: d, Index: index}, nil
		}
		if seen[next] {
			return Ancestor{}, &BindingError{Type: child.String(), Reason: "ancestor declarations form a cycle"}
		}
		seen[next] = true
		cur = next
	}
}

// subtree returns d and every registered type deriving from it.
func (b *Builder) subtree(d *TypeDescriptor) []*TypeDescriptor {
	var out []*TypeDescriptor
	for _, name := range b.order {
		if t := b.types[name]; t.IsA(d) {
			out = append(out, t)
		}
	}
	return out
}

// subtreeTags collects the own tags of d and every type deriving from it.
func (b *Builder) subtreeTags(d *TypeDescriptor) map[int32]string {
	tags := make(map[int32]string)
	for _, t := range b.subtree(d) {
		t.collectOwnTags(tags)
	}
	return tags
}

func validateTag(typeName string, tag int32) error {
	n := protowire.Number(tag)
	if n < protowire.MinValidNumber || n > protowire.MaxValidNumber {
		return &BindingError{Type: typeName, Reason: fmt.Sprintf("tag %d is outside the valid range", tag)}
	}
	if n >= protowire.FirstReservedNumber && n <= protowire.LastReservedNumber {
		return &BindingError{Type: typeName, Reason: fmt.Sprintf("tag %d is in the reserved range", tag)}
	}
	return nil
}

// EmbedPath returns the field index path through value-embedded structs from
// child to target, breadth first so the shallowest embedding wins.
func EmbedPath(child, target reflect.Type) ([]int, bool) {
	type node struct {
		t    reflect.Type
		path []int
	}
	queue := []node{{t: child}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for i := 0; i < n.t.NumField(); i++ {
			f := n.t.Field(i)
			if !f.Anonymous || f.Type.Kind() != reflect.Struct {
				continue
			}
			path := append(slices.Clone(n.path), i)
			if f.Type == target {
				return path, true
			}
			queue = append(queue, node{t: f.Type, path: path})
		}
	}
	return nil, false
}
