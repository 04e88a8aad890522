package tracer

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/admcodec/v1/logger"
)

// FXModule provides a Uber FX module that configures distributed tracing for your application.
// This module registers the tracer client with the dependency injection system and
// sets up proper lifecycle management to ensure graceful startup and shutdown of the tracer.
//
// The module:
// 1. Provides the tracer client through the NewClient constructor
// 2. Registers shutdown hooks to flush spans on application termination
//
// A tracer.Config must be available; config.FXModule provides one.
//
// Usage:
//
//	app := fx.New(
//	    tracer.FXModule,
//	    // other modules...
//	)
//	app.Run()
//
// This module should be included in your main application to enable distributed tracing
// throughout your dependency graph without manual wiring.
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClient,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// LifecycleParams groups the dependencies of RegisterTracerLifecycle.
type LifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Tracer    *Tracer
	Logger    *logger.Logger `optional:"true"`
}

// RegisterTracerLifecycle registers an OnStop hook that flushes pending spans
// and shuts the tracer provider down. It is invoked by FXModule.
func RegisterTracerLifecycle(p LifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if p.Logger != nil {
				p.Logger.Info("shutting down tracer", nil, nil)
			}
			return p.Tracer.Shutdown(ctx)
		},
	})
}
