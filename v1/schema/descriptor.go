package schema

import (
	"reflect"
	"slices"
)

// FieldBinding assigns a permanent wire tag to a named struct field.
type FieldBinding struct {
	Tag  int32  `yaml:"tag"`
	Name string `yaml:"name"`
}

// SubtypeBinding attaches a subtype to its base under a discriminator tag.
type SubtypeBinding struct {
	Tag     int32
	Subtype *TypeDescriptor
}

// TypeDescriptor is the compiled schema of one domain type.
// Descriptors are created by a Builder and are read-only once Build returns.
type TypeDescriptor struct {
	name          string
	goType        reflect.Type
	abstract      bool
	fields        []FieldBinding
	parent        *TypeDescriptor
	discriminator int32
	subtypes      []SubtypeBinding
	subtypeByTag  map[int32]*TypeDescriptor
}

// Name returns the schema name of the type.
func (d *TypeDescriptor) Name() string { return d.name }

// GoType returns the struct type bound to the descriptor.
func (d *TypeDescriptor) GoType() reflect.Type { return d.goType }

// Abstract reports whether values can only exist as one of the subtypes.
func (d *TypeDescriptor) Abstract() bool { return d.abstract }

// Parent returns the base type, or nil for a root type.
func (d *TypeDescriptor) Parent() *TypeDescriptor { return d.parent }

// Discriminator returns the tag this type is attached under in its parent, or 0.
func (d *TypeDescriptor) Discriminator() int32 { return d.discriminator }

// Fields returns the type's own fields in ascending tag order.
func (d *TypeDescriptor) Fields() []FieldBinding { return slices.Clone(d.fields) }

// Subtypes returns the direct subtypes in ascending discriminator order.
func (d *TypeDescriptor) Subtypes() []SubtypeBinding { return slices.Clone(d.subtypes) }

// Subtype returns the direct subtype attached under tag.
func (d *TypeDescriptor) Subtype(tag int32) (*TypeDescriptor, bool) {
	s, ok := d.subtypeByTag[tag]
	return s, ok
}

// Chain returns the inheritance chain from the root type down to d.
func (d *TypeDescriptor) Chain() []*TypeDescriptor {
	var chain []*TypeDescriptor
	for t := d; t != nil; t = t.parent {
		chain = append(chain, t)
	}
	slices.Reverse(chain)
	return chain
}

// Root returns the top of the inheritance chain.
func (d *TypeDescriptor) Root() *TypeDescriptor {
	t := d
	for t.parent != nil {
		t = t.parent
	}
	return t
}

// IsA reports whether d is other or derives from it.
func (d *TypeDescriptor) IsA(other *TypeDescriptor) bool {
	for t := d; t != nil; t = t.parent {
		if t == other {
			return true
		}
	}
	return false
}

// AllFields returns inherited then own fields, each level in ascending tag order.
func (d *TypeDescriptor) AllFields() []FieldBinding {
	var out []FieldBinding
	for _, t := range d.Chain() {
		out = append(out, t.fields...)
	}
	return out
}

func (d *TypeDescriptor) String() string { return d.name }

// chainTags maps every tag visible at d (fields and discriminators of d and its
// ancestors) to a description of its owner.
func (d *TypeDescriptor) chainTags() map[int32]string {
	tags := make(map[int32]string)
	for t := d; t != nil; t = t.parent {
		t.collectOwnTags(tags)
	}
	return tags
}

func (d *TypeDescriptor) collectOwnTags(into map[int32]string) {
	for _, f := range d.fields {
		into[f.Tag] = "field " + d.name + "." + f.Name
	}
	for _, s := range d.subtypes {
		into[s.Tag] = "discriminator of " + s.Subtype.name + " on " + d.name
	}
}
