// Package observability defines the hook every admcodec component reports its
// operations through.
//
// Components never depend on a concrete metrics or tracing backend. They accept an
// optional Observer and call ObserveOperation after each encode, decode, stream
// pass or storage operation. A nil Observer disables the hook.
//
// Example:
//
//	engine = engine.WithObserver(observability.ObserverFunc(func(op observability.OperationContext) {
//	    if op.Operation == "ancestor_fallback" {
//	        fmt.Printf("%s encoded as %s\n", op.SubResource, op.Resource)
//	    }
//	}))
package observability
