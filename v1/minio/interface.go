package minio

import (
	"context"
	"io"
)

// Client is the object store contract used by the store package's object
// backend. It is implemented by *MinioClient.
type Client interface {
	// Put uploads an object; a negative size streams until EOF.
	Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (int64, error)

	// Get retrieves an object's contents.
	Get(ctx context.Context, objectKey string) ([]byte, error)

	// Open returns a reader over an object and its size.
	Open(ctx context.Context, objectKey string) (io.ReadCloser, int64, error)

	// Stat returns an object's metadata.
	Stat(ctx context.Context, objectKey string) (ObjectInfo, error)

	// Delete removes an object.
	Delete(ctx context.Context, objectKey string) error

	// Bucket returns the bucket all keys are relative to.
	Bucket() string
}

var _ Client = (*MinioClient)(nil)
