package config

import (
	"github.com/Aleph-Alpha/admcodec/v1/codec"
	"github.com/Aleph-Alpha/admcodec/v1/logger"
	"github.com/Aleph-Alpha/admcodec/v1/metrics"
	"github.com/Aleph-Alpha/admcodec/v1/minio"
	"github.com/Aleph-Alpha/admcodec/v1/store"
	"github.com/Aleph-Alpha/admcodec/v1/tracer"
	"go.uber.org/fx"
)

// FXModule loads the configuration from ADMCODEC_CONFIG and provides each
// section to the modules that consume it.
//
// Usage:
//
//	app := fx.New(
//	    config.FXModule,
//	    logger.FXModule,
//	    adm.FXModule,
//	    codec.FXModule,
//	    store.FXModule,
//	)
//
// Tests supply a Config instead with fx.Supply and use Sections directly.
var FXModule = fx.Module("config",
	fx.Provide(
		LoadFromEnv,
		Sections,
	),
)

// Out carries every configuration section into the fx graph.
type Out struct {
	fx.Out

	Logger  logger.Config
	Metrics metrics.Config
	Tracer  tracer.Config
	Codec   codec.Config
	Minio   minio.Config
	Store   store.Config
}

// Sections splits cfg into the per-package configurations.
func Sections(cfg Config) Out {
	return Out{
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
		Tracer:  cfg.Tracer,
		Codec:   cfg.Codec,
		Minio:   cfg.Minio,
		Store:   cfg.Store,
	}
}
