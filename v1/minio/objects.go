package minio

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Put uploads size bytes from reader as objectKey. A negative size streams
// the reader until EOF.
func (m *MinioClient) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (int64, error) {
	start := time.Now()
	if size < 0 {
		size = unknownSize
	}
	info, err := m.client.Load().PutObject(ctx, m.Bucket(), objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	err = TranslateError(err)
	m.observeOperation("put", objectKey, time.Since(start), err, info.Size)
	if err != nil {
		return 0, fmt.Errorf("minio: put %s: %w", objectKey, err)
	}
	return info.Size, nil
}

// Get downloads objectKey. Small objects are read into an exactly sized
// slice; larger ones go through the buffer pool and are copied out.
func (m *MinioClient) Get(ctx context.Context, objectKey string) ([]byte, error) {
	start := time.Now()
	data, err := m.get(ctx, objectKey)
	m.observeOperation("get", objectKey, time.Since(start), err, int64(len(data)))
	return data, err
}

func (m *MinioClient) get(ctx context.Context, objectKey string) ([]byte, error) {
	reader, size, err := m.open(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			m.logWarn(ctx, "failed to close object reader", err, map[string]interface{}{"key": objectKey})
		}
	}()

	if size < m.cfg.Download.SmallObjectThreshold {
		data := make([]byte, size)
		if _, err := io.ReadFull(reader, data); err != nil {
			return nil, fmt.Errorf("minio: read %s: %w", objectKey, TranslateError(err))
		}
		return data, nil
	}

	buf := m.bufferPool.Get()
	defer m.bufferPool.Put(buf)
	buf.Grow(int(size))
	if _, err := io.Copy(buf, reader); err != nil {
		return nil, fmt.Errorf("minio: read %s: %w", objectKey, TranslateError(err))
	}
	data := make([]byte, buf.Len())
	copy(data, buf.Bytes())
	return data, nil
}

// Open returns a reader over objectKey and its size. The caller closes it.
func (m *MinioClient) Open(ctx context.Context, objectKey string) (io.ReadCloser, int64, error) {
	start := time.Now()
	rc, size, err := m.open(ctx, objectKey)
	m.observeOperation("open", objectKey, time.Since(start), err, size)
	return rc, size, err
}

func (m *MinioClient) open(ctx context.Context, objectKey string) (io.ReadCloser, int64, error) {
	obj, err := m.client.Load().GetObject(ctx, m.Bucket(), objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("minio: get %s: %w", objectKey, TranslateError(err))
	}
	// GetObject is lazy; Stat performs the request and surfaces NoSuchKey.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, 0, fmt.Errorf("minio: get %s: %w", objectKey, TranslateError(err))
	}
	return obj, info.Size, nil
}

// Stat returns the metadata of objectKey.
func (m *MinioClient) Stat(ctx context.Context, objectKey string) (ObjectInfo, error) {
	start := time.Now()
	info, err := m.client.Load().StatObject(ctx, m.Bucket(), objectKey, minio.StatObjectOptions{})
	err = TranslateError(err)
	m.observeOperation("stat", objectKey, time.Since(start), err, info.Size)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("minio: stat %s: %w", objectKey, err)
	}
	return ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

// Delete removes objectKey. Removing a missing object is not an error.
func (m *MinioClient) Delete(ctx context.Context, objectKey string) error {
	start := time.Now()
	err := TranslateError(m.client.Load().RemoveObject(ctx, m.Bucket(), objectKey, minio.RemoveObjectOptions{}))
	m.observeOperation("delete", objectKey, time.Since(start), err, 0)
	if err != nil {
		return fmt.Errorf("minio: delete %s: %w", objectKey, err)
	}
	return nil
}
