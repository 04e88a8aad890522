package codec

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"slices"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

var deterministic = proto.MarshalOptions{Deterministic: true}

// appendTop encodes a value handed to Marshal and returns the name it was
// encoded as.
func (e *Engine) appendTop(b []byte, v any) ([]byte, string, error) {
	if v == nil {
		return b, "", ErrNilValue
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return b, e.typeName(rv.Type()), ErrNilValue
		}
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Struct && rv.Type() != timeType {
		p, index, err := e.resolve(rv.Type())
		if err != nil {
			return b, rv.Type().String(), err
		}
		out, err := e.appendMessage(b, p, rv.FieldByIndex(index), 0)
		return out, p.desc.Name(), err
	}

	c, err := e.coderFor(rv.Type())
	if err != nil {
		return b, rv.Type().String(), err
	}
	out, err := e.appendField(b, nil, 1, c, rv, 0)
	return out, rv.Type().String(), err
}

// appendMessage writes the body of a message: the discriminators of the chain
// then every field, root level first.
func (e *Engine) appendMessage(b []byte, p *plan, v reflect.Value, depth int) ([]byte, error) {
	if depth > e.cfg.MaxDepth {
		return b, fmt.Errorf("%s: %w", p.desc.Name(), ErrMaxDepthExceeded)
	}
	b = appendDiscriminators(b, p.discriminators)
	var err error
	for i := range p.fields {
		fp := &p.fields[i]
		b, err = e.appendField(b, fp, fp.num, fp.coder, v.FieldByIndex(fp.index), depth)
		if err != nil {
			return b, err
		}
	}
	return b, nil
}

// appendField writes a field of any kind, expanding repeated fields and maps.
func (e *Engine) appendField(b []byte, fp *fieldPlan, num protowire.Number, c *coder, v reflect.Value, depth int) ([]byte, error) {
	switch c.kind {
	case kindSlice:
		return e.appendRepeated(b, fp, num, c, v, depth)
	case kindMap:
		return e.appendMap(b, fp, num, c, v, depth)
	default:
		return e.appendSingle(b, num, c, v, e.cfg.EmitDefaults, depth)
	}
}

func (e *Engine) appendRepeated(b []byte, fp *fieldPlan, num protowire.Number, c *coder, v reflect.Value, depth int) ([]byte, error) {
	n := v.Len()
	if n == 0 {
		return b, nil
	}
	if c.elem.packable() {
		var body []byte
		for i := 0; i < n; i++ {
			body = appendScalar(body, c.elem, v.Index(i))
		}
		b = protowire.AppendTag(b, num, protowire.BytesType)
		return protowire.AppendBytes(b, body), nil
	}
	var err error
	for i := 0; i < n; i++ {
		ev := v.Index(i)
		if isNilElement(ev) {
			return b, nilElement(fp, i)
		}
		if b, err = e.appendSingle(b, num, c.elem, ev, true, depth); err != nil {
			return b, err
		}
	}
	return b, nil
}

func (e *Engine) appendMap(b []byte, fp *fieldPlan, num protowire.Number, c *coder, v reflect.Value, depth int) ([]byte, error) {
	if v.Len() == 0 {
		return b, nil
	}
	keys := v.MapKeys()
	slices.SortFunc(keys, compareKeys)

	var (
		entry []byte
		err   error
	)
	for _, k := range keys {
		val := v.MapIndex(k)
		if isNilElement(val) {
			return b, nilElement(fp, k.Interface())
		}
		entry = entry[:0]
		if entry, err = e.appendSingle(entry, 1, c.key, k, true, depth); err != nil {
			return b, err
		}
		if entry, err = e.appendSingle(entry, 2, c.elem, val, true, depth); err != nil {
			return b, err
		}
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b, nil
}

// appendSingle writes one value with its key. Zero scalars and empty messages
// are skipped unless force is set.
func (e *Engine) appendSingle(b []byte, num protowire.Number, c *coder, v reflect.Value, force bool, depth int) ([]byte, error) {
	switch c.kind {
	case kindPointer:
		if v.IsNil() {
			return b, nil
		}
		return e.appendSingle(b, num, c.elem, v.Elem(), true, depth)

	case kindInterface:
		if v.IsNil() {
			return b, nil
		}
		concrete := v.Elem()
		if concrete.Kind() == reflect.Pointer {
			if concrete.IsNil() {
				return b, nil
			}
			concrete = concrete.Elem()
		}
		if concrete.Kind() != reflect.Struct {
			return b, fmt.Errorf("%s holds %v: %w", c.base.Name(), concrete.Type(), ErrIncompatibleType)
		}
		p, index, err := e.resolve(concrete.Type())
		if err != nil {
			return b, err
		}
		if !p.desc.IsA(c.base) {
			return b, fmt.Errorf("%s is not a %s: %w", p.desc.Name(), c.base.Name(), ErrIncompatibleType)
		}
		body, err := e.appendMessage(nil, p, concrete.FieldByIndex(index), depth+1)
		if err != nil {
			return b, err
		}
		b = protowire.AppendTag(b, num, protowire.BytesType)
		return protowire.AppendBytes(b, body), nil

	case kindMessage:
		body, err := e.appendMessage(nil, c.plan, v, depth+1)
		if err != nil {
			return b, err
		}
		if len(body) == c.plan.discLen && !force {
			return b, nil
		}
		b = protowire.AppendTag(b, num, protowire.BytesType)
		return protowire.AppendBytes(b, body), nil

	case kindTime:
		t := v.Interface().(time.Time)
		if t.IsZero() && !force {
			return b, nil
		}
		body, err := deterministic.Marshal(timestamppb.New(t))
		if err != nil {
			return b, fmt.Errorf("codec: timestamp: %w", err)
		}
		b = protowire.AppendTag(b, num, protowire.BytesType)
		return protowire.AppendBytes(b, body), nil

	case kindDuration:
		d := time.Duration(v.Int())
		if d == 0 && !force {
			return b, nil
		}
		body, err := deterministic.Marshal(durationpb.New(d))
		if err != nil {
			return b, fmt.Errorf("codec: duration: %w", err)
		}
		b = protowire.AppendTag(b, num, protowire.BytesType)
		return protowire.AppendBytes(b, body), nil

	case kindString:
		if v.Len() == 0 && !force {
			return b, nil
		}
		b = protowire.AppendTag(b, num, protowire.BytesType)
		return protowire.AppendString(b, v.String()), nil

	case kindBytes:
		if v.Len() == 0 && !force {
			return b, nil
		}
		b = protowire.AppendTag(b, num, protowire.BytesType)
		return protowire.AppendBytes(b, v.Bytes()), nil
	}

	if !force && isZeroScalar(c, v) {
		return b, nil
	}
	b = protowire.AppendTag(b, num, c.wireType())
	return appendScalar(b, c, v), nil
}

// appendScalar writes a bool, integer or float without a key.
func appendScalar(b []byte, c *coder, v reflect.Value) []byte {
	switch c.kind {
	case kindBool:
		return protowire.AppendVarint(b, protowire.EncodeBool(v.Bool()))
	case kindInt:
		return protowire.AppendVarint(b, uint64(v.Int()))
	case kindUint:
		return protowire.AppendVarint(b, v.Uint())
	case kindFloat32:
		return protowire.AppendFixed32(b, math.Float32bits(float32(v.Float())))
	case kindFloat64:
		return protowire.AppendFixed64(b, math.Float64bits(v.Float()))
	}
	return b
}

func isZeroScalar(c *coder, v reflect.Value) bool {
	switch c.kind {
	case kindBool:
		return !v.Bool()
	case kindInt:
		return v.Int() == 0
	case kindUint:
		return v.Uint() == 0
	case kindFloat32, kindFloat64:
		f := v.Float()
		return f == 0 && !math.Signbit(f)
	}
	return false
}

func isNilElement(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer:
		return v.IsNil()
	case reflect.Interface:
		if v.IsNil() {
			return true
		}
		inner := v.Elem()
		return inner.Kind() == reflect.Pointer && inner.IsNil()
	}
	return false
}

func nilElement(fp *fieldPlan, at any) error {
	if fp == nil {
		return fmt.Errorf("element %v: %w", at, ErrNilElement)
	}
	return fmt.Errorf("%s.%s element %v: %w", fp.owner, fp.name, at, ErrNilElement)
}

func compareKeys(a, b reflect.Value) int {
	switch a.Kind() {
	case reflect.Bool:
		switch {
		case a.Bool() == b.Bool():
			return 0
		case !a.Bool():
			return -1
		default:
			return 1
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cmp.Compare(a.Uint(), b.Uint())
	default:
		return cmp.Compare(a.String(), b.String())
	}
}
