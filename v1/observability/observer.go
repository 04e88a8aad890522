package observability

import "time"

// Observer receives a notification for every operation a component performs.
// Implementations must be safe for concurrent use; the codec, stream and store
// packages call ObserveOperation from whichever goroutine runs the operation.
//
// The metrics package ships a Prometheus-backed implementation.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes a single observed operation.
type OperationContext struct {
	// Component is the package that performed the operation, e.g. "codec", "stream", "store".
	Component string

	// Operation names what was done, e.g. "encode", "decode", "ancestor_fallback", "write".
	Operation string

	// Resource is the primary subject: a schema type name, a path or a bucket.
	Resource string

	// SubResource refines Resource: a runtime Go type, an object key.
	SubResource string

	// Duration is how long the operation took. Zero for instantaneous events.
	Duration time.Duration

	// Error is the error the operation returned, if any.
	Error error

	// Size is the number of bytes or records processed, depending on the operation.
	Size int64

	// Metadata carries operation specific details.
	Metadata map[string]interface{}
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}
