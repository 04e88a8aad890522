package logger

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides the *Logger built from logger.Config and flushes it when
// the application stops. config.FXModule supplies the Config; without it:
//
//	app := fx.New(
//	    fx.Supply(logger.DefaultConfig()),
//	    logger.FXModule,
//	)
var FXModule = fx.Module("logger",
	fx.Provide(
		NewLoggerClient,
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// RegisterLoggerLifecycle flushes buffered entries when the application stops.
func RegisterLoggerLifecycle(lc fx.Lifecycle, l *Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Sync on stderr returns EINVAL on some platforms; the entries are already written.
			_ = l.Zap.Sync()
			return nil
		},
	})
}
