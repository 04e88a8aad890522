package store

import (
	"context"
	"io"
	"path"
	"strings"
)

// Backend persists encoded values under slash-separated paths.
type Backend interface {
	// Create stages a new value for p. Nothing is visible at p until Commit.
	Create(ctx context.Context, p string) (Staged, error)

	// Open returns a reader over the value at p and its size.
	Open(ctx context.Context, p string) (io.ReadCloser, int64, error)

	// Remove deletes the value at p.
	Remove(ctx context.Context, p string) error

	// Name identifies the backend in logs and spans.
	Name() string
}

// Staged is a value being written. Exactly one of Commit or Abort is called.
type Staged interface {
	io.Writer

	// Commit atomically replaces the value at the staged path.
	Commit(ctx context.Context) error

	// Abort discards everything written.
	Abort() error
}

// cleanPath validates p and returns it in canonical form.
func cleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidPath
	}
	return clean, nil
}
