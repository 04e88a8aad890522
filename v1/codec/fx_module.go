package codec

import (
	"github.com/Aleph-Alpha/admcodec/v1/logger"
	"github.com/Aleph-Alpha/admcodec/v1/observability"
	"github.com/Aleph-Alpha/admcodec/v1/schema"
	"go.uber.org/fx"
)

// FXModule provides the serialization engine.
//
// The module expects a *schema.Registry (adm.FXModule provides one) and a
// codec.Config (config.FXModule provides one). A *logger.Logger and an
// observability.Observer are used when present.
//
// Usage:
//
//	app := fx.New(
//	    config.FXModule,
//	    logger.FXModule,
//	    adm.FXModule,
//	    codec.FXModule,
//	)
var FXModule = fx.Module("codec",
	fx.Provide(
		NewEngineWithDI,
	),
)

// EngineParams groups the dependencies needed to create an Engine.
type EngineParams struct {
	fx.In

	Registry *schema.Registry
	Config   Config
	Logger   *logger.Logger         `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewEngineWithDI creates an Engine from injected dependencies.
func NewEngineWithDI(params EngineParams) (*Engine, error) {
	engine, err := NewEngine(params.Registry, params.Config)
	if err != nil {
		return nil, err
	}
	// A nil *logger.Logger stored in the Logger interface would not compare
	// equal to nil.
	if params.Logger != nil {
		engine.WithLogger(params.Logger)
	}
	if params.Observer != nil {
		engine.WithObserver(params.Observer)
	}
	return engine, nil
}
