package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"

	"github.com/Aleph-Alpha/admcodec/v1/schema"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// decodeTop dispatches Unmarshal on the kind of the target.
func (e *Engine) decodeTop(data []byte, ptr any) (string, error) {
	rv := reflect.ValueOf(ptr)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return "", ErrInvalidTarget
	}
	target := rv.Elem()
	target.SetZero()

	t := target.Type()
	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct && t.Elem() != timeType {
		fresh := reflect.New(t.Elem())
		name, err := e.decodeTop(data, fresh.Interface())
		if err == nil {
			target.Set(fresh)
		}
		return name, err
	}

	switch {
	case t.Kind() == reflect.Struct && t != timeType:
		if p, ok := e.planFor(t); ok {
			return p.desc.Name(), e.decodeMessage(p, data, target, 0)
		}
		a, err := e.reg.ResolveAncestor(t)
		if err != nil {
			return t.String(), err
		}
		p := e.plans[a.Descriptor]
		return p.desc.Name(), e.decodeMessage(p, data, target.FieldByIndex(a.Index), 0)

	case t.Kind() == reflect.Interface:
		base, ok := e.reg.InterfaceBase(t)
		if !ok {
			return t.String(), &UnsupportedTypeError{GoType: t}
		}
		v, err := e.decodePolymorphic(base, data, 0)
		if err != nil {
			return base.Name(), err
		}
		target.Set(v)
		return base.Name(), nil
	}

	c, err := e.coderFor(t)
	if err != nil {
		return t.String(), err
	}
	name := t.String()
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return name, parseError(name, 0, n)
		}
		data = data[n:]
		if num != 1 {
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return name, parseError(name, num, m)
			}
			data = data[m:]
			continue
		}
		m, err := e.decodeField(name, nil, c, typ, data, target, 0)
		if err != nil {
			return name, err
		}
		data = data[m:]
	}
	return name, nil
}

// selection is the outcome of reading the leading discriminators of a message.
type selection struct {
	desc *schema.TypeDescriptor
	// rest is the data after the discriminators.
	rest []byte
	// next is the first tag after the discriminators, 0 at end of data.
	next protowire.Number
}

// selectType consumes the leading discriminator keys of data starting at
// root and returns the deepest subtype they name.
func selectType(root *schema.TypeDescriptor, data []byte) (selection, error) {
	sel := root
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return selection{}, parseError(sel.Name(), 0, n)
		}
		sub, ok := sel.Subtype(int32(num))
		if !ok {
			return selection{desc: sel, rest: data, next: num}, nil
		}
		if typ != protowire.VarintType {
			return selection{}, &SchemaMismatchError{
				Type: sel.Name(), Tag: int32(num), Expected: protowire.VarintType, Got: typ,
				Reason: "discriminator must be a varint",
			}
		}
		_, m := protowire.ConsumeVarint(data[n:])
		if m < 0 {
			return selection{}, parseError(sel.Name(), num, m)
		}
		data = data[n+m:]
		sel = sub
	}
	return selection{desc: sel, rest: data}, nil
}

// unknownDiscriminator reports the tag of a key directly after the
// discriminators that looks like a discriminator of a subtype this registry
// does not know: a varint with value 1 that is not a field of sel.desc.
func (e *Engine) unknownDiscriminator(sel selection) (int32, bool) {
	if sel.next == 0 {
		return 0, false
	}
	p, ok := e.plans[sel.desc]
	if !ok {
		return 0, false
	}
	if _, isField := p.byNum[sel.next]; isField {
		return 0, false
	}
	_, typ, n := protowire.ConsumeTag(sel.rest)
	if n < 0 || typ != protowire.VarintType {
		return 0, false
	}
	v, m := protowire.ConsumeVarint(sel.rest[n:])
	if m < 0 || v != 1 {
		return 0, false
	}
	return int32(sel.next), true
}

// decodeMessage decodes data into v, a struct of p's Go type. Data written
// for a subtype is narrowed to p; data written for an ancestor fills only the
// ancestor's fields.
func (e *Engine) decodeMessage(p *plan, data []byte, v reflect.Value, depth int) error {
	if depth > e.cfg.MaxDepth {
		return fmt.Errorf("%s: %w", p.desc.Name(), ErrMaxDepthExceeded)
	}
	sel, err := selectType(p.desc.Root(), data)
	if err != nil {
		return err
	}
	written := sel.desc
	switch {
	case written.IsA(p.desc):
	case p.desc.IsA(written):
		written = p.desc
	default:
		return &SchemaMismatchError{
			Type:   p.desc.Name(),
			Reason: fmt.Sprintf("data was written as %s", sel.desc.Name()),
		}
	}
	if tag, ok := e.unknownDiscriminator(sel); ok {
		e.discriminatorFallback(sel.desc, tag)
	}
	return e.decodeFields(p, written, sel.rest, v, depth)
}

// decodePolymorphic decodes a value held by an interface bound to base and
// returns a pointer to the concrete struct.
func (e *Engine) decodePolymorphic(base *schema.TypeDescriptor, data []byte, depth int) (reflect.Value, error) {
	if depth > e.cfg.MaxDepth {
		return reflect.Value{}, fmt.Errorf("%s: %w", base.Name(), ErrMaxDepthExceeded)
	}
	sel, err := selectType(base.Root(), data)
	if err != nil {
		return reflect.Value{}, err
	}

	var chosen *schema.TypeDescriptor
	switch {
	case sel.desc.IsA(base):
		chosen = sel.desc
	case base.IsA(sel.desc):
		chosen = base
	default:
		return reflect.Value{}, &SchemaMismatchError{
			Type:   base.Name(),
			Reason: fmt.Sprintf("data was written as %s", sel.desc.Name()),
		}
	}

	p := e.plans[chosen]
	if chosen.Abstract() {
		tag := int32(sel.next)
		if _, isField := p.byNum[sel.next]; isField {
			tag = 0
		}
		return reflect.Value{}, &UnresolvedDiscriminatorError{Base: base.Name(), Tag: tag}
	}
	if tag, ok := e.unknownDiscriminator(sel); ok {
		e.discriminatorFallback(chosen, tag)
	}

	ptr := reflect.New(p.typ)
	if err := e.decodeFields(p, chosen, sel.rest, ptr.Elem(), depth); err != nil {
		return reflect.Value{}, err
	}
	return ptr, nil
}

// decodeFields reads keyed fields until data is exhausted. Unknown tags are
// skipped; a discriminator of written's chain after field data is rejected.
func (e *Engine) decodeFields(p *plan, written *schema.TypeDescriptor, data []byte, v reflect.Value, depth int) error {
	name := p.desc.Name()
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return parseError(name, 0, n)
		}
		data = data[n:]

		fp, ok := p.byNum[num]
		if !ok {
			if isDiscriminator(written, num) {
				return &SchemaMismatchError{Type: name, Tag: int32(num), Reason: "discriminator after field data"}
			}
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return parseError(name, num, m)
			}
			data = data[m:]
			continue
		}

		m, err := e.decodeField(name, fp, fp.coder, typ, data, v.FieldByIndex(fp.index), depth)
		if err != nil {
			return err
		}
		data = data[m:]
	}
	return nil
}

// decodeField decodes one occurrence of a field into v and returns the number
// of bytes consumed. Repeated fields and maps accumulate.
func (e *Engine) decodeField(typeName string, fp *fieldPlan, c *coder, typ protowire.Type, data []byte, v reflect.Value, depth int) (int, error) {
	switch c.kind {
	case kindSlice:
		if typ == protowire.BytesType && c.elem.packable() {
			body, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return 0, parseError(typeName, numOf(fp), n)
			}
			for len(body) > 0 {
				ev := reflect.New(c.elem.typ).Elem()
				m, err := e.decodeValue(typeName, fp, c.elem, c.elem.wireType(), body, ev, depth)
				if err != nil {
					return 0, err
				}
				v.Set(reflect.Append(v, ev))
				body = body[m:]
			}
			return n, nil
		}
		ev := reflect.New(c.elem.typ).Elem()
		n, err := e.decodeSingle(typeName, fp, c.elem, typ, data, ev, depth)
		if err != nil {
			return 0, err
		}
		v.Set(reflect.Append(v, ev))
		return n, nil

	case kindMap:
		if typ != protowire.BytesType {
			return 0, mismatch(typeName, fp, protowire.BytesType, typ)
		}
		entry, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return 0, parseError(typeName, numOf(fp), n)
		}
		key := reflect.New(c.key.typ).Elem()
		val := reflect.New(c.elem.typ).Elem()
		for len(entry) > 0 {
			num, etyp, k := protowire.ConsumeTag(entry)
			if k < 0 {
				return 0, parseError(typeName, numOf(fp), k)
			}
			entry = entry[k:]
			var (
				m   int
				err error
			)
			switch num {
			case 1:
				m, err = e.decodeSingle(typeName, fp, c.key, etyp, entry, key, depth)
			case 2:
				m, err = e.decodeSingle(typeName, fp, c.elem, etyp, entry, val, depth)
			default:
				if m = protowire.ConsumeFieldValue(num, etyp, entry); m < 0 {
					err = parseError(typeName, numOf(fp), m)
				}
			}
			if err != nil {
				return 0, err
			}
			entry = entry[m:]
		}
		if isNilElement(val) {
			return 0, nilElement(fp, key.Interface())
		}
		if v.IsNil() {
			v.Set(reflect.MakeMap(c.typ))
		}
		v.SetMapIndex(key, val)
		return n, nil
	}
	return e.decodeSingle(typeName, fp, c, typ, data, v, depth)
}

// decodeSingle decodes one value, allocating pointers as needed.
func (e *Engine) decodeSingle(typeName string, fp *fieldPlan, c *coder, typ protowire.Type, data []byte, v reflect.Value, depth int) (int, error) {
	if c.kind == kindPointer {
		elem := reflect.New(c.elem.typ)
		n, err := e.decodeValue(typeName, fp, c.elem, typ, data, elem.Elem(), depth)
		if err != nil {
			return 0, err
		}
		v.Set(elem)
		return n, nil
	}
	return e.decodeValue(typeName, fp, c, typ, data, v, depth)
}

// decodeValue decodes the payload of a single non-pointer value.
func (e *Engine) decodeValue(typeName string, fp *fieldPlan, c *coder, typ protowire.Type, data []byte, v reflect.Value, depth int) (int, error) {
	if want := c.wireType(); typ != want {
		return 0, mismatch(typeName, fp, want, typ)
	}
	num := numOf(fp)

	switch c.kind {
	case kindBool, kindInt, kindUint:
		x, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return 0, parseError(typeName, num, n)
		}
		switch c.kind {
		case kindBool:
			v.SetBool(protowire.DecodeBool(x))
		case kindInt:
			if v.OverflowInt(int64(x)) {
				return 0, overflow(typeName, fp, c)
			}
			v.SetInt(int64(x))
		case kindUint:
			if v.OverflowUint(x) {
				return 0, overflow(typeName, fp, c)
			}
			v.SetUint(x)
		}
		return n, nil

	case kindFloat32:
		x, n := protowire.ConsumeFixed32(data)
		if n < 0 {
			return 0, parseError(typeName, num, n)
		}
		v.SetFloat(float64(math.Float32frombits(x)))
		return n, nil

	case kindFloat64:
		x, n := protowire.ConsumeFixed64(data)
		if n < 0 {
			return 0, parseError(typeName, num, n)
		}
		v.SetFloat(math.Float64frombits(x))
		return n, nil
	}

	body, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return 0, parseError(typeName, num, n)
	}

	switch c.kind {
	case kindString:
		v.SetString(string(body))

	case kindBytes:
		v.SetBytes(bytes.Clone(body))

	case kindTime:
		var ts timestamppb.Timestamp
		if err := proto.Unmarshal(body, &ts); err != nil {
			return 0, &SchemaMismatchError{Type: typeName, Field: nameOf(fp), Tag: int32(num), Reason: "invalid timestamp: " + err.Error()}
		}
		if err := ts.CheckValid(); err != nil {
			return 0, &SchemaMismatchError{Type: typeName, Field: nameOf(fp), Tag: int32(num), Reason: err.Error()}
		}
		v.Set(reflect.ValueOf(ts.AsTime()))

	case kindDuration:
		var d durationpb.Duration
		if err := proto.Unmarshal(body, &d); err != nil {
			return 0, &SchemaMismatchError{Type: typeName, Field: nameOf(fp), Tag: int32(num), Reason: "invalid duration: " + err.Error()}
		}
		v.SetInt(int64(d.AsDuration()))

	case kindMessage:
		if err := e.decodeMessage(c.plan, body, v, depth+1); err != nil {
			return 0, err
		}

	case kindInterface:
		ptr, err := e.decodePolymorphic(c.base, body, depth+1)
		if err != nil {
			return 0, err
		}
		v.Set(ptr)
	}
	return n, nil
}

// isDiscriminator reports whether num attaches a subtype to any type of the
// chain ending at d.
func isDiscriminator(d *schema.TypeDescriptor, num protowire.Number) bool {
	for t := d; t != nil; t = t.Parent() {
		if _, ok := t.Subtype(int32(num)); ok {
			return true
		}
	}
	return false
}

// parseError maps a protowire failure to the codec's error taxonomy.
func parseError(typeName string, num protowire.Number, n int) error {
	err := protowire.ParseError(n)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return &UnexpectedEndOfDataError{Type: typeName, Tag: int32(num)}
	}
	return &SchemaMismatchError{Type: typeName, Tag: int32(num), Reason: err.Error()}
}

func mismatch(typeName string, fp *fieldPlan, want, got protowire.Type) error {
	return &SchemaMismatchError{Type: typeName, Field: nameOf(fp), Tag: int32(numOf(fp)), Expected: want, Got: got}
}

func overflow(typeName string, fp *fieldPlan, c *coder) error {
	return &SchemaMismatchError{Type: typeName, Field: nameOf(fp), Tag: int32(numOf(fp)), Reason: "value overflows " + c.typ.String()}
}

func numOf(fp *fieldPlan) protowire.Number {
	if fp == nil {
		return 1
	}
	return fp.num
}

func nameOf(fp *fieldPlan) string {
	if fp == nil {
		return ""
	}
	return fp.name
}
