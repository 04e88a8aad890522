package codec

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"time"

	"github.com/Aleph-Alpha/admcodec/v1/observability"
	"github.com/Aleph-Alpha/admcodec/v1/schema"
)

// Engine encodes and decodes registered domain values. It holds the registry
// and the plans compiled from it, both immutable, so a single Engine can be
// shared by any number of goroutines.
type Engine struct {
	reg      *schema.Registry
	plans    map[*schema.TypeDescriptor]*plan
	cfg      Config
	logger   Logger
	observer observability.Observer
}

// NewEngine compiles an encode/decode plan for every descriptor of reg.
// Fields whose Go type has no wire form fail here with UnsupportedTypeError.
//
// Example:
//
//	reg, err := adm.NewRegistry()
//	if err != nil {
//		return err
//	}
//	engine, err := codec.NewEngine(reg, codec.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	data, err := engine.Marshal(&adm.Point{X: 1, Y: 2, Z: 3})
func NewEngine(reg *schema.Registry, cfg Config) (*Engine, error) {
	if reg == nil {
		return nil, fmt.Errorf("codec: registry is nil")
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	plans, err := compile(reg)
	if err != nil {
		return nil, err
	}
	return &Engine{reg: reg, plans: plans, cfg: cfg}, nil
}

// WithLogger attaches a logger. Ancestor fallbacks are logged at warn level.
func (e *Engine) WithLogger(l Logger) *Engine {
	e.logger = l
	return e
}

// WithObserver attaches an observer notified of every encode, decode and
// ancestor fallback.
func (e *Engine) WithObserver(o observability.Observer) *Engine {
	e.observer = o
	return e
}

// Registry returns the registry the engine was compiled from.
func (e *Engine) Registry() *schema.Registry { return e.reg }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Marshal encodes v. Registered structs (or pointers to them) are written as
// a message body; slices and maps are written as repeated field 1.
func (e *Engine) Marshal(v any) ([]byte, error) {
	return e.AppendMarshal(nil, v)
}

// AppendMarshal appends the encoding of v to b.
func (e *Engine) AppendMarshal(b []byte, v any) ([]byte, error) {
	start := time.Now()
	n := len(b)
	out, name, err := e.appendTop(b, v)
	e.observe("encode", name, time.Since(start), err, int64(len(out)-n))
	if err != nil {
		return b, err
	}
	return out, nil
}

// Encode writes the encoding of v to w.
func (e *Engine) Encode(w io.Writer, v any) error {
	data, err := e.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("codec: write: %w", err)
	}
	return nil
}

// Unmarshal decodes data into the value ptr points to, replacing it.
// ptr may point to a registered struct, a pointer to one, an interface bound
// to a base type, or a slice or map written by Marshal.
func (e *Engine) Unmarshal(data []byte, ptr any) error {
	start := time.Now()
	name, err := e.decodeTop(data, ptr)
	e.observe("decode", name, time.Since(start), err, int64(len(data)))
	return err
}

// Decode reads r to the end and decodes the bytes into ptr.
func (e *Engine) Decode(r io.Reader, ptr any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("codec: read: %w", err)
	}
	return e.Unmarshal(data, ptr)
}

// DecodeValue decodes data as a T. For an interface T the concrete subtype is
// chosen by the discriminators in data.
//
// Example:
//
//	shape, err := codec.DecodeValue[adm.AnyShape](engine, data)
//	if poly, ok := shape.(*adm.Polygon); ok {
//		fmt.Println(len(poly.InteriorRings))
//	}
func DecodeValue[T any](e *Engine, data []byte) (T, error) {
	var out T
	err := e.Unmarshal(data, &out)
	return out, err
}

// resolve returns the plan used to encode values of the struct type t and the
// embedding path to reach it. Unregistered types with a declared ancestor are
// reported as fallbacks.
func (e *Engine) resolve(t reflect.Type) (*plan, []int, error) {
	a, err := e.reg.ResolveAncestor(t)
	if err != nil {
		return nil, nil, err
	}
	if !a.Exact {
		e.fallback(t, a.Descriptor)
	}
	return e.plans[a.Descriptor], a.Index, nil
}

func (e *Engine) planFor(t reflect.Type) (*plan, bool) {
	d, ok := e.reg.ForType(t)
	if !ok {
		return nil, false
	}
	return e.plans[d], true
}

// coderFor compiles a coder for a type that is not part of any plan, such as
// a top-level slice.
func (e *Engine) coderFor(t reflect.Type) (*coder, error) {
	c := &compiler{reg: e.reg, plans: e.plans}
	return c.coderFor(t)
}

func (e *Engine) fallback(t reflect.Type, ancestor *schema.TypeDescriptor) {
	if e.logger != nil {
		e.logger.Warn("encoding unregistered type as registered ancestor; subtype fields are dropped", nil, map[string]interface{}{
			"go_type":  t.String(),
			"ancestor": ancestor.Name(),
		})
	}
	if e.observer != nil {
		e.observer.ObserveOperation(observability.OperationContext{
			Component:   "codec",
			Operation:   "ancestor_fallback",
			Resource:    ancestor.Name(),
			SubResource: t.String(),
		})
	}
}

// discriminatorFallback reports data written for an unknown subtype of known
// that is decoded as known; the subtype's own fields are skipped.
func (e *Engine) discriminatorFallback(known *schema.TypeDescriptor, tag int32) {
	if e.logger != nil {
		e.logger.Warn("decoding unknown subtype as its registered base; subtype fields are skipped", nil, map[string]interface{}{
			"base":          known.Name(),
			"discriminator": tag,
		})
	}
	if e.observer != nil {
		e.observer.ObserveOperation(observability.OperationContext{
			Component:   "codec",
			Operation:   "discriminator_fallback",
			Resource:    known.Name(),
			SubResource: strconv.Itoa(int(tag)),
		})
	}
}

func (e *Engine) observe(operation, resource string, d time.Duration, err error, size int64) {
	if e.observer == nil {
		return
	}
	e.observer.ObserveOperation(observability.OperationContext{
		Component: "codec",
		Operation: operation,
		Resource:  resource,
		Duration:  d,
		Error:     err,
		Size:      size,
	})
}

// typeName names t for errors and observations: the schema name when t is
// registered, the Go type otherwise.
func (e *Engine) typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if d, ok := e.reg.ForType(t); ok {
		return d.Name()
	}
	return t.String()
}

// Equal reports whether a and b encode to the same bytes.
func (e *Engine) Equal(a, b any) (bool, error) {
	x, err := e.Marshal(a)
	if err != nil {
		return false, err
	}
	y, err := e.Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(x, y), nil
}
