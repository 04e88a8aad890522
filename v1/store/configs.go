package store

import (
	"fmt"

	"github.com/Aleph-Alpha/admcodec/v1/stream"
)

// Backend names accepted by Config.Backend.
const (
	BackendFile  = "file"
	BackendMinio = "minio"
)

// DefaultParallelism bounds WriteBatch when Config.Parallelism is not set.
const DefaultParallelism = 4

// Config defines where and how the store persists values.
type Config struct {
	// Backend is "file" or "minio".
	Backend string `yaml:"backend"`

	// Root is the directory the file backend writes under.
	Root string `yaml:"root"`

	// Prefix is prepended to every object key of the minio backend.
	Prefix string `yaml:"prefix"`

	// Parallelism bounds the concurrent writes of WriteBatch.
	Parallelism int `yaml:"parallelism"`

	// Records frames spatial record streams.
	Records stream.Config `yaml:"records"`
}

// DefaultConfig returns a file store rooted at ./data.
func DefaultConfig() Config {
	return Config{
		Backend:     BackendFile,
		Root:        "data",
		Parallelism: DefaultParallelism,
		Records:     stream.DefaultConfig(),
	}
}

// Validate reports settings the store cannot run with.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.Root == "" {
			return fmt.Errorf("store: file backend needs a root directory")
		}
	case BackendMinio:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("store: parallelism must not be negative")
	}
	return c.Records.Validate()
}

//go:generate mockgen -source=configs.go -destination=mock_logger.go -package=store

// Logger is the logging contract of the store. *logger.Logger satisfies it.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}
