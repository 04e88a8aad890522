package minio

import (
	"context"
	"time"
)

const (
	unknownSize                   int64 = -1
	connectionHealthCheckInterval       = 3 * time.Second

	// DefaultSmallObjectThreshold is the size below which Get reads an object
	// into an exactly sized slice instead of a pooled buffer.
	DefaultSmallObjectThreshold int64 = 1 << 20
)

// Config defines the object store configuration.
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	Download   DownloadConfig   `yaml:"download"`
}

// ConnectionConfig holds the MinIO server and bucket details.
type ConnectionConfig struct {
	Endpoint        string `yaml:"endpoint"` // e.g. "localhost:9000"
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl"`
	BucketName      string `yaml:"bucket_name"`
	Region          string `yaml:"region"`

	// AccessBucketCreation allows NewClient to create a missing bucket.
	AccessBucketCreation bool `yaml:"access_bucket_creation"`
}

// DownloadConfig tunes how Get buffers objects.
type DownloadConfig struct {
	SmallObjectThreshold int64 `yaml:"small_object_threshold"`
}

// DefaultConfig returns a configuration for a local, plain-HTTP MinIO.
func DefaultConfig() Config {
	return Config{
		Connection: ConnectionConfig{
			Endpoint:   "localhost:9000",
			BucketName: "adm",
			Region:     "us-east-1",
		},
		Download: DownloadConfig{SmallObjectThreshold: DefaultSmallObjectThreshold},
	}
}

//go:generate mockgen -source=configs.go -destination=mock_logger.go -package=minio

// Logger is the logging contract of the client. *logger.Logger satisfies it.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
