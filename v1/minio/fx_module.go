package minio

import (
	"context"

	"github.com/Aleph-Alpha/admcodec/v1/logger"
	"github.com/Aleph-Alpha/admcodec/v1/observability"
	"go.uber.org/fx"
)

// FXModule provides the MinIO client and runs its connection monitor for the
// lifetime of the application.
//
// Usage:
//
//	app := fx.New(
//	    config.FXModule,
//	    logger.FXModule,
//	    minio.FXModule,
//	)
//
// Dependencies required by this module:
// - A minio.Config instance must be available in the dependency injection container
// - A *logger.Logger and an observability.Observer are optional
var FXModule = fx.Module("minio",
	fx.Provide(
		NewClientWithDI,
	),
	fx.Invoke(RegisterLifecycle),
)

// ClientParams groups the dependencies needed to create a MinioClient.
type ClientParams struct {
	fx.In

	Config   Config
	Logger   *logger.Logger         `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates a MinioClient from injected dependencies.
func NewClientWithDI(params ClientParams) (*MinioClient, error) {
	var log Logger
	if params.Logger != nil {
		log = params.Logger
	}
	client, err := newClient(params.Config, log)
	if err != nil {
		return nil, err
	}
	if params.Observer != nil {
		client.WithObserver(params.Observer)
	}
	return client, nil
}

// RegisterLifecycle starts the connection monitor on start and shuts the
// client down on stop.
func RegisterLifecycle(lc fx.Lifecycle, client *MinioClient) {
	monitorCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			client.StartMonitoring(monitorCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			client.GracefulShutdown()
			cancel()
			return nil
		},
	})
}
