package codec

// DefaultMaxDepth bounds message nesting when no limit is configured.
const DefaultMaxDepth = 100

// Config controls the wire output of an Engine.
type Config struct {
	// EmitDefaults writes zero-valued scalar fields and empty nested messages
	// instead of omitting them. Empty repeated fields and nil pointers are
	// always omitted.
	EmitDefaults bool `yaml:"emit_defaults"`

	// MaxDepth is the deepest message nesting accepted on encode and decode.
	// Zero or negative means DefaultMaxDepth.
	MaxDepth int `yaml:"max_depth"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{MaxDepth: DefaultMaxDepth}
}

// Logger is the logging surface the engine needs. *logger.Logger satisfies it.
//
//go:generate mockgen -source=configs.go -destination=mock_logger.go -package=codec
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}
