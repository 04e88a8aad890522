package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
)

// Source opens a fresh reader over a record stream. size is the number of
// bytes the reader will yield, or -1 when unknown. Every iteration of a
// sequence returned by ReadSequence opens the source once and closes the
// reader before the iteration ends.
type Source interface {
	Open(ctx context.Context) (rc io.ReadCloser, size int64, err error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (io.ReadCloser, int64, error)

// Open calls f(ctx).
func (f SourceFunc) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	return f(ctx)
}

// BytesSource reads records from an in-memory buffer.
func BytesSource(data []byte) Source {
	return SourceFunc(func(context.Context) (io.ReadCloser, int64, error) {
		return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
	})
}

// FileSource reads records from the file at path.
func FileSource(path string) Source {
	return SourceFunc(func(context.Context) (io.ReadCloser, int64, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, err
		}
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, 0, fmt.Errorf("stat %s: %w", path, err)
		}
		return f, info.Size(), nil
	})
}
