package stream

import "errors"

var (
	// ErrFrameTooLarge is returned when a record exceeds Config.MaxRecordSize.
	ErrFrameTooLarge = errors.New("stream: record exceeds maximum size")

	// ErrInvalidFrameHeader is returned when the bytes before a record are not
	// a key and length for the configured field number.
	ErrInvalidFrameHeader = errors.New("stream: invalid record header")
)
