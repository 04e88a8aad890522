package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/Aleph-Alpha/admcodec/v1/minio"
)

const objectContentType = "application/vnd.adm.binary"

// ObjectBackend stores each value as an object. A staged value is streamed to
// the object store while it is written; the upload only completes on commit,
// so readers never observe a partial object.
type ObjectBackend struct {
	client minio.Client
	prefix string
}

// NewObjectBackend returns a backend writing below prefix in client's bucket.
func NewObjectBackend(client minio.Client, prefix string) *ObjectBackend {
	return &ObjectBackend{client: client, prefix: prefix}
}

// Name returns "minio".
func (b *ObjectBackend) Name() string { return BackendMinio }

func (b *ObjectBackend) key(p string) (string, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, p)
	}
	if b.prefix == "" {
		return clean, nil
	}
	return path.Join(b.prefix, clean), nil
}

// errAborted ends the upload of a discarded value.
var errAborted = errors.New("store: staged value discarded")

// Create starts an upload of unknown size for p. Bytes written to the staged
// value are handed to the upload as it reads them.
func (b *ObjectBackend) Create(ctx context.Context, p string) (Staged, error) {
	key, err := b.key(p)
	if err != nil {
		return nil, err
	}
	pr, pw := io.Pipe()
	s := &stagedObject{key: key, pw: pw, done: make(chan error, 1)}
	go func() {
		_, err := b.client.Put(ctx, key, pr, -1, objectContentType)
		// unblocks Write once the upload has stopped reading
		if err != nil {
			pr.CloseWithError(err)
		} else {
			pr.Close()
		}
		s.done <- err
	}()
	return s, nil
}

// Open streams the object at p.
func (b *ObjectBackend) Open(ctx context.Context, p string) (io.ReadCloser, int64, error) {
	key, err := b.key(p)
	if err != nil {
		return nil, 0, err
	}
	rc, size, err := b.client.Open(ctx, key)
	if minio.IsNotFound(err) {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return rc, size, err
}

// Remove deletes the object at p. A missing object is ErrNotFound, as on the
// file backend.
func (b *ObjectBackend) Remove(ctx context.Context, p string) error {
	key, err := b.key(p)
	if err != nil {
		return err
	}
	if _, err := b.client.Stat(ctx, key); err != nil {
		if minio.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return err
	}
	return b.client.Delete(ctx, key)
}

type stagedObject struct {
	key  string
	pw   *io.PipeWriter
	done chan error
}

func (s *stagedObject) Write(p []byte) (int, error) {
	n, err := s.pw.Write(p)
	if err != nil {
		return n, fmt.Errorf("store: upload %s: %w", s.key, err)
	}
	return n, nil
}

// Commit ends the stream and waits for the upload to finish.
func (s *stagedObject) Commit(ctx context.Context) error {
	if err := s.pw.Close(); err != nil {
		return err
	}
	select {
	case err := <-s.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Abort fails the upload so the object store discards what it received.
func (s *stagedObject) Abort() error {
	s.pw.CloseWithError(errAborted)
	<-s.done
	return nil
}
