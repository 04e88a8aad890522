package store

import "errors"

var (
	// ErrNotFound is returned when reading a path nothing was written to.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidPath is returned for empty, absolute or escaping paths.
	ErrInvalidPath = errors.New("store: invalid path")

	// ErrUnknownBackend is returned for an unsupported Config.Backend.
	ErrUnknownBackend = errors.New("store: unknown backend")
)
