package tracer

// Config defines the tracer configuration.
type Config struct {
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `yaml:"service_name"`

	// AppEnv is reported as the deployment.environment resource attribute.
	AppEnv string `yaml:"app_env"`

	// EnableExport sends spans to an OTLP/HTTP collector at Endpoint. When
	// false spans are created and sampled but never exported.
	EnableExport bool `yaml:"enable_export"`

	// Endpoint is the collector host and port, e.g. "otel-collector:4318".
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`
}

// DefaultConfig returns a tracer that records spans without exporting them.
func DefaultConfig() Config {
	return Config{
		ServiceName: "admcodec",
		AppEnv:      "development",
	}
}
