package codec

import (
	"reflect"
	"slices"
	"time"

	"github.com/Aleph-Alpha/admcodec/v1/schema"
	"google.golang.org/protobuf/encoding/protowire"
)

type kind uint8

const (
	kindBool kind = iota + 1
	kindInt
	kindUint
	kindFloat32
	kindFloat64
	kindString
	kindBytes
	kindTime
	kindDuration
	kindMessage
	kindInterface
	kindPointer
	kindSlice
	kindMap
)

var (
	timeType     = reflect.TypeFor[time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
)

// coder describes how one Go type maps to the wire.
type coder struct {
	kind kind
	typ  reflect.Type

	// elem is the pointee, slice element or map value.
	elem *coder
	// key is the map key.
	key *coder
	// plan is set for kindMessage.
	plan *plan
	// base is set for kindInterface.
	base *schema.TypeDescriptor
}

// wireType is the wire type a single value of c is written with.
func (c *coder) wireType() protowire.Type {
	switch c.kind {
	case kindBool, kindInt, kindUint:
		return protowire.VarintType
	case kindFloat32:
		return protowire.Fixed32Type
	case kindFloat64:
		return protowire.Fixed64Type
	case kindPointer:
		return c.elem.wireType()
	default:
		return protowire.BytesType
	}
}

func (c *coder) packable() bool {
	switch c.kind {
	case kindBool, kindInt, kindUint, kindFloat32, kindFloat64:
		return true
	}
	return false
}

// fieldPlan is one bound field of a message plan.
type fieldPlan struct {
	num   protowire.Number
	name  string
	owner string
	index []int
	coder *coder
}

// plan is the compiled encode/decode layout of one descriptor.
type plan struct {
	desc *schema.TypeDescriptor
	typ  reflect.Type

	// discriminators of the chain, root first.
	discriminators []protowire.Number
	discLen        int

	// fields of the chain, root level first, each level in ascending tag order.
	fields []fieldPlan
	byNum  map[protowire.Number]*fieldPlan
}

type compiler struct {
	reg   *schema.Registry
	plans map[*schema.TypeDescriptor]*plan
}

// compile builds a plan for every registered descriptor. Plans reference each
// other by pointer, so recursive types compile without special casing.
func compile(reg *schema.Registry) (map[*schema.TypeDescriptor]*plan, error) {
	types := reg.Types()
	c := &compiler{reg: reg, plans: make(map[*schema.TypeDescriptor]*plan, len(types))}
	for _, d := range types {
		c.plans[d] = &plan{
			desc:  d,
			typ:   d.GoType(),
			byNum: make(map[protowire.Number]*fieldPlan),
		}
	}
	for _, d := range types {
		if err := c.fill(c.plans[d]); err != nil {
			return nil, err
		}
	}
	return c.plans, nil
}

func (c *compiler) fill(p *plan) error {
	chain := p.desc.Chain()
	for _, level := range chain[1:] {
		p.discriminators = append(p.discriminators, protowire.Number(level.Discriminator()))
	}
	p.discLen = len(appendDiscriminators(nil, p.discriminators))

	for _, level := range chain {
		var prefix []int
		if level != p.desc {
			path, ok := schema.EmbedPath(p.typ, level.GoType())
			if !ok {
				return &schema.BindingError{Type: p.desc.Name(), Reason: "does not embed " + level.Name()}
			}
			prefix = path
		}
		for _, f := range level.Fields() {
			sf, ok := level.GoType().FieldByName(f.Name)
			if !ok {
				return &schema.BindingError{Type: level.Name(), Field: f.Name, Reason: "no such field"}
			}
			cd, err := c.coderFor(sf.Type)
			if err != nil {
				return &UnsupportedTypeError{Type: level.Name(), Field: f.Name, GoType: sf.Type}
			}
			p.fields = append(p.fields, fieldPlan{
				num:   protowire.Number(f.Tag),
				name:  f.Name,
				owner: level.Name(),
				index: append(slices.Clone(prefix), sf.Index...),
				coder: cd,
			})
		}
	}
	for i := range p.fields {
		p.byNum[p.fields[i].num] = &p.fields[i]
	}
	return nil
}

// coderFor maps a Go type to its coder. Types the wire format cannot express
// unambiguously are rejected.
func (c *compiler) coderFor(t reflect.Type) (*coder, error) {
	switch t {
	case timeType:
		return &coder{kind: kindTime, typ: t}, nil
	case durationType:
		return &coder{kind: kindDuration, typ: t}, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return &coder{kind: kindBool, typ: t}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &coder{kind: kindInt, typ: t}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &coder{kind: kindUint, typ: t}, nil
	case reflect.Float32:
		return &coder{kind: kindFloat32, typ: t}, nil
	case reflect.Float64:
		return &coder{kind: kindFloat64, typ: t}, nil
	case reflect.String:
		return &coder{kind: kindString, typ: t}, nil

	case reflect.Struct:
		d, ok := c.reg.ForType(t)
		if !ok {
			return nil, &UnsupportedTypeError{GoType: t}
		}
		return &coder{kind: kindMessage, typ: t, plan: c.plans[d]}, nil

	case reflect.Interface:
		base, ok := c.reg.InterfaceBase(t)
		if !ok {
			return nil, &UnsupportedTypeError{GoType: t}
		}
		return &coder{kind: kindInterface, typ: t, base: base}, nil

	case reflect.Pointer:
		switch t.Elem().Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
			return nil, &UnsupportedTypeError{GoType: t}
		}
		elem, err := c.coderFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return &coder{kind: kindPointer, typ: t, elem: elem}, nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return &coder{kind: kindBytes, typ: t}, nil
		}
		elem, err := c.coderFor(t.Elem())
		if err != nil {
			return nil, err
		}
		if !repeatable(elem) {
			return nil, &UnsupportedTypeError{GoType: t}
		}
		return &coder{kind: kindSlice, typ: t, elem: elem}, nil

	case reflect.Map:
		switch t.Key().Kind() {
		case reflect.Bool,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.String:
		default:
			return nil, &UnsupportedTypeError{GoType: t}
		}
		key, err := c.coderFor(t.Key())
		if err != nil {
			return nil, err
		}
		elem, err := c.coderFor(t.Elem())
		if err != nil {
			return nil, err
		}
		if !repeatable(elem) {
			return nil, &UnsupportedTypeError{GoType: t}
		}
		return &coder{kind: kindMap, typ: t, key: key, elem: elem}, nil
	}
	return nil, &UnsupportedTypeError{GoType: t}
}

// repeatable reports whether values of c can be repeated element by element.
// Nested collections and optional scalars have no distinct wire form.
func repeatable(c *coder) bool {
	switch c.kind {
	case kindSlice, kindMap:
		return false
	case kindPointer:
		return c.elem.kind == kindMessage
	}
	return true
}

func appendDiscriminators(b []byte, discs []protowire.Number) []byte {
	for _, d := range discs {
		b = protowire.AppendTag(b, d, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	return b
}
