package tracer

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
)

func newResource(cfg Config) *resource.Resource {
	attrs := []attribute.KeyValue{attribute.String("service.name", cfg.ServiceName)}
	if cfg.AppEnv != "" {
		attrs = append(attrs, attribute.String("deployment.environment", cfg.AppEnv))
	}
	return resource.NewSchemaless(attrs...)
}
