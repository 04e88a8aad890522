package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileBackend stores each value as a file below a root directory. Writes go
// to a temporary file in the target directory that is synced and renamed
// over the target on commit.
type FileBackend struct {
	root string
}

// NewFileBackend returns a backend rooted at root, creating it if needed.
func NewFileBackend(root string) (*FileBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("store: create root: %w", err)
	}
	return &FileBackend{root: root}, nil
}

// Name returns "file".
func (b *FileBackend) Name() string { return BackendFile }

func (b *FileBackend) resolve(p string) (string, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, p)
	}
	return filepath.Join(b.root, filepath.FromSlash(clean)), nil
}

// Create opens a uniquely named temporary file next to the target.
func (b *FileBackend) Create(_ context.Context, p string) (Staged, error) {
	target, err := b.resolve(p)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	tmp := filepath.Join(dir, "."+filepath.Base(target)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: create temp file: %w", err)
	}
	return &stagedFile{f: f, target: target}, nil
}

// Open opens the file at p.
func (b *FileBackend) Open(_ context.Context, p string) (io.ReadCloser, int64, error) {
	target, err := b.resolve(p)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// Remove deletes the file at p.
func (b *FileBackend) Remove(_ context.Context, p string) error {
	target, err := b.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(target); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	} else if err != nil {
		return err
	}
	return nil
}

type stagedFile struct {
	f      *os.File
	target string
}

func (s *stagedFile) Write(p []byte) (int, error) { return s.f.Write(p) }

func (s *stagedFile) Commit(context.Context) error {
	if err := s.f.Sync(); err != nil {
		_ = s.Abort()
		return fmt.Errorf("store: sync: %w", err)
	}
	if err := s.f.Close(); err != nil {
		_ = os.Remove(s.f.Name())
		return fmt.Errorf("store: close: %w", err)
	}
	if err := os.Rename(s.f.Name(), s.target); err != nil {
		_ = os.Remove(s.f.Name())
		return fmt.Errorf("store: rename: %w", err)
	}
	return nil
}

func (s *stagedFile) Abort() error {
	_ = s.f.Close()
	return os.Remove(s.f.Name())
}
