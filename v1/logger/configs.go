package logger

// Log levels accepted by Config.Level.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config defines the configuration for the logger.
type Config struct {
	// Level is the minimum level that is written.
	// One of "debug", "info", "warning", "error". Anything else means "info".
	Level string `yaml:"level"`

	// ServiceName is attached to every entry as the "service" field.
	ServiceName string `yaml:"service_name"`

	// EnableTracing adds trace_id and span_id to entries logged through the
	// *WithContext methods when the context carries an active span.
	EnableTracing bool `yaml:"enable_tracing"`
}

// DefaultConfig returns the logger configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Level:         Info,
		ServiceName:   "admcodec",
		EnableTracing: true,
	}
}
