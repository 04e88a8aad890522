package metrics

// Config defines the metrics server configuration.
type Config struct {
	// Address is the listen address of the /metrics endpoint, e.g. ":9090".
	Address string `yaml:"address"`

	// ServiceName is attached to every metric as the constant "service" label.
	ServiceName string `yaml:"service_name"`

	// Namespace prefixes the codec metric names. Defaults to "admcodec".
	Namespace string `yaml:"namespace"`

	// EnableDefaultCollectors registers the Go runtime, process and build info
	// collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors"`
}

// DefaultNamespace prefixes metric names when Config.Namespace is empty.
const DefaultNamespace = "admcodec"

// DefaultConfig returns a configuration listening on :9090.
func DefaultConfig() Config {
	return Config{
		Address:                 ":9090",
		ServiceName:             "admcodec",
		Namespace:               DefaultNamespace,
		EnableDefaultCollectors: true,
	}
}
