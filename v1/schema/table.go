package schema

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"gopkg.in/yaml.v3"
)

// Table is the field binding table: the static, data-only description of every
// type's tags, parent and subtypes.
type Table struct {
	Version int         `yaml:"version"`
	Types   []TypeEntry `yaml:"types"`
}

// TypeEntry is one row of the binding table.
type TypeEntry struct {
	Name     string         `yaml:"name"`
	Parent   string         `yaml:"parent,omitempty"`
	Abstract bool           `yaml:"abstract,omitempty"`
	Fields   []FieldBinding `yaml:"fields,omitempty"`
	Subtypes []SubtypeEntry `yaml:"subtypes,omitempty"`
}

// SubtypeEntry names a subtype and its discriminator tag.
type SubtypeEntry struct {
	Tag  int32  `yaml:"tag"`
	Type string `yaml:"type"`
}

// LoadTable decodes a YAML binding table. Unknown keys are rejected.
func LoadTable(r io.Reader) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var t Table
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return &t, nil
		}
		return nil, fmt.Errorf("schema: decode binding table: %w", err)
	}
	return &t, nil
}

// Apply registers every entry on b, parents before children, then attaches
// the subtypes. Errors are the Builder's.
func (t *Table) Apply(b *Builder) error {
	parentOf := make(map[string]string)
	for _, e := range t.Types {
		if e.Parent != "" {
			parentOf[e.Name] = e.Parent
		}
	}
	for _, e := range t.Types {
		for _, s := range e.Subtypes {
			if p, ok := parentOf[s.Type]; ok && p != e.Name {
				return &BindingError{Type: s.Type, Reason: fmt.Sprintf("listed as subtype of %s but declares parent %s", e.Name, p)}
			}
			parentOf[s.Type] = e.Name
		}
	}

	pending := make([]TypeEntry, len(t.Types))
	copy(pending, t.Types)
	for len(pending) > 0 {
		var next []TypeEntry
		for _, e := range pending {
			parent := parentOf[e.Name]
			if _, ok := b.types[parent]; parent != "" && !ok {
				next = append(next, e)
				continue
			}
			if err := b.Register(e.Name, e.Fields, parent); err != nil {
				return err
			}
		}
		if len(next) == len(pending) {
			// No progress: the first entry's parent is missing or part of a cycle.
			e := next[0]
			return b.Register(e.Name, e.Fields, parentOf[e.Name])
		}
		pending = next
	}

	for _, e := range t.Types {
		if e.Abstract {
			if err := b.SetAbstract(e.Name); err != nil {
				return err
			}
		}
		for _, s := range e.Subtypes {
			if err := b.RegisterSubtype(e.Name, s.Tag, s.Type); err != nil {
				return err
			}
		}
	}
	return nil
}

// Catalog is the explicit Go side of the bindings: which struct implements
// each type name, which interfaces hold polymorphic values, and which
// unregistered types may be encoded as a registered ancestor.
type Catalog struct {
	Types      map[string]reflect.Type
	Interfaces map[reflect.Type]string
	Ancestors  map[reflect.Type]reflect.Type
}

// Apply binds the catalogue on b.
func (c Catalog) Apply(b *Builder) error {
	for name, t := range c.Types {
		if err := b.Bind(name, t); err != nil {
			return err
		}
	}
	for iface, base := range c.Interfaces {
		if err := b.BindInterface(iface, base); err != nil {
			return err
		}
	}
	for child, ancestor := range c.Ancestors {
		if err := b.DeclareAncestor(child, ancestor); err != nil {
			return err
		}
	}
	return nil
}

// Build applies table and catalog on a fresh Builder and builds it.
func Build(table *Table, catalog Catalog) (*Registry, error) {
	b := NewBuilder()
	if err := table.Apply(b); err != nil {
		return nil, err
	}
	if err := catalog.Apply(b); err != nil {
		return nil, err
	}
	return b.Build()
}
