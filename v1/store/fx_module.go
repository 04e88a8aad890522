package store

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/admcodec/v1/codec"
	"github.com/Aleph-Alpha/admcodec/v1/logger"
	"github.com/Aleph-Alpha/admcodec/v1/minio"
	"github.com/Aleph-Alpha/admcodec/v1/observability"
	"github.com/Aleph-Alpha/admcodec/v1/tracer"
	"go.uber.org/fx"
)

// FXModule provides the *Store.
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
// The minio backend additionally needs minio.FXModule. A *logger.Logger,
// an observability.Observer and a *tracer.Tracer are used when present.
var FXModule = fx.Module("store",
	fx.Provide(
		NewStoreWithDI,
	),
	fx.Invoke(RegisterStoreLifecycle),
)

// StoreParams groups the dependencies needed to create a Store.
type StoreParams struct {
	fx.In

	Config   Config
	Engine   *codec.Engine
	Minio    *minio.MinioClient     `optional:"true"`
	Logger   *logger.Logger         `optional:"true"`
	Observer observability.Observer `optional:"true"`
	Tracer   *tracer.Tracer         `optional:"true"`
}

// NewStoreWithDI creates a Store with the backend Config.Backend selects.
func NewStoreWithDI(params StoreParams) (*Store, error) {
	if err := params.Config.Validate(); err != nil {
		return nil, err
	}
	var client minio.Client
	if params.Minio != nil {
		client = params.Minio
	}
	backend, err := NewBackend(params.Config, client)
	if err != nil {
		return nil, err
	}

	s, err := New(backend, params.Engine, params.Config)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		s.WithLogger(params.Logger)
	}
	if params.Observer != nil {
		s.WithObserver(params.Observer)
	}
	if params.Tracer != nil {
		s.WithTracer(params.Tracer)
	}
	return s, nil
}

// NewBackend builds the backend named by cfg.Backend. client is only used,
// and then required, by the minio backend.
func NewBackend(cfg Config, client minio.Client) (Backend, error) {
	switch cfg.Backend {
	case BackendFile:
		return NewFileBackend(cfg.Root)
	case BackendMinio:
		if client == nil {
			return nil, fmt.Errorf("store: minio backend selected but no minio client is configured")
		}
		return NewObjectBackend(client, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// RegisterStoreLifecycle logs the schema in use when the application starts.
func RegisterStoreLifecycle(lc fx.Lifecycle, s *Store) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.LogSchema()
			return nil
		},
	})
}

// LogSchema logs the registry fingerprint and type count. Readers and
// writers of the same data must agree on the fingerprint.
func (s *Store) LogSchema() {
	if s.logger == nil {
		return
	}
	reg := s.engine.Registry()
	s.logger.Info("store ready", nil, map[string]interface{}{
		"backend":            s.backend.Name(),
		"schema_types":       reg.Len(),
		"schema_fingerprint": fmt.Sprintf("%016x", reg.Fingerprint()),
	})
}
