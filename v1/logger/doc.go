// Package logger provides the structured logger used across admcodec.
//
// It wraps go.uber.org/zap with a small surface:
//
//	Debug/Info/Warn/Error(msg string, err error, fields ...map[string]interface{})
//
// plus *WithContext variants that attach the active trace and span IDs.
// Packages never import *Logger directly in their hot paths; each declares a
// local Logger interface that *Logger satisfies, so tests can inject gomock mocks.
//
// # Direct Usage
//
//	log := logger.NewLoggerClient(logger.Config{Level: logger.Debug, ServiceName: "adm-export"})
//	defer log.Zap.Sync()
//
//	log.Warn("value encoded through registered ancestor", nil, map[string]interface{}{
//	    "type":     "*main.SmartPolygon",
//	    "ancestor": "Polygon",
//	})
//
// # FX Module Integration
//
//	app := fx.New(
//	    logger.FXModule,
//	    fx.Provide(func() logger.Config { return logger.DefaultConfig() }),
//	)
package logger
