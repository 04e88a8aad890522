package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Aleph-Alpha/admcodec/v1/codec"
	"github.com/Aleph-Alpha/admcodec/v1/logger"
	"github.com/Aleph-Alpha/admcodec/v1/metrics"
	"github.com/Aleph-Alpha/admcodec/v1/minio"
	"github.com/Aleph-Alpha/admcodec/v1/store"
	"github.com/Aleph-Alpha/admcodec/v1/tracer"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable holding the configuration file path.
const EnvPath = "ADMCODEC_CONFIG"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the complete application configuration. Each section belongs to
// the package of the same name.
type Config struct {
	Logger  logger.Config  `yaml:"logger"`
	Metrics metrics.Config `yaml:"metrics"`
	Tracer  tracer.Config  `yaml:"tracer"`
	Codec   codec.Config   `yaml:"codec"`
	Minio   minio.Config   `yaml:"minio"`
	Store   store.Config   `yaml:"store"`
}

// Default returns every section at its package default.
func Default() Config {
	return Config{
		Logger:  logger.DefaultConfig(),
		Metrics: metrics.DefaultConfig(),
		Tracer:  tracer.DefaultConfig(),
		Codec:   codec.DefaultConfig(),
		Minio:   minio.DefaultConfig(),
		Store:   store.DefaultConfig(),
	}
}

// Load reads the YAML file at path over the defaults. Keys the file leaves
// out keep their default; unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by ADMCODEC_CONFIG, or returns the
// defaults when the variable is unset or empty.
func LoadFromEnv() (Config, error) {
	path := os.Getenv(EnvPath)
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	return Load(path)
}

// Parse decodes a YAML document over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports sections the application cannot start with.
func (c Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("%w: store: %w", ErrInvalidConfig, err)
	}
	if c.Store.Backend == store.BackendMinio {
		if c.Minio.Connection.Endpoint == "" {
			return fmt.Errorf("%w: minio backend needs minio.connection.endpoint", ErrInvalidConfig)
		}
		if c.Minio.Connection.BucketName == "" {
			return fmt.Errorf("%w: minio backend needs minio.connection.bucket_name", ErrInvalidConfig)
		}
	}
	if c.Codec.MaxDepth < 0 {
		return fmt.Errorf("%w: codec.max_depth must not be negative", ErrInvalidConfig)
	}
	if c.Tracer.EnableExport && c.Tracer.Endpoint == "" {
		return fmt.Errorf("%w: tracer export needs tracer.endpoint", ErrInvalidConfig)
	}
	return nil
}
