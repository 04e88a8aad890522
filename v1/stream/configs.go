package stream

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	// DefaultFieldNumber is the field number of the key written before each
	// record's length.
	DefaultFieldNumber = 1

	// DefaultMaxRecordSize bounds a single record when no limit is configured.
	DefaultMaxRecordSize = 64 << 20

	// LegacyMinRecordSize is the smallest record the size heuristic assumes.
	// Files whose remaining bytes are fewer than this are treated as ended.
	LegacyMinRecordSize = 20
)

// Config controls record framing.
type Config struct {
	// FieldNumber is written as a length-delimited key before each record's
	// length. Zero writes bare length prefixes.
	FieldNumber int32 `yaml:"field_number"`

	// MaxRecordSize is the largest record accepted on write or read, in bytes.
	// Zero means DefaultMaxRecordSize.
	MaxRecordSize int `yaml:"max_record_size"`

	// MinRecordSize enables the size heuristic when positive: reading stops
	// as soon as fewer than MinRecordSize bytes remain in a source of known
	// size. Zero stops only at a clean end of data between records, and a
	// partial record is an error.
	MinRecordSize int `yaml:"min_record_size"`
}

// DefaultConfig returns keyed framing with exact end-of-data detection.
func DefaultConfig() Config {
	return Config{
		FieldNumber:   DefaultFieldNumber,
		MaxRecordSize: DefaultMaxRecordSize,
	}
}

// Validate reports configuration values that cannot frame a stream.
func (c Config) Validate() error {
	if c.FieldNumber != 0 {
		n := protowire.Number(c.FieldNumber)
		if !n.IsValid() {
			return fmt.Errorf("stream: field number %d is not a valid field number", c.FieldNumber)
		}
	}
	if c.MaxRecordSize < 0 {
		return fmt.Errorf("stream: max record size must not be negative")
	}
	if c.MinRecordSize < 0 {
		return fmt.Errorf("stream: min record size must not be negative")
	}
	return nil
}

// Logger is the logging surface the stream codec needs. *logger.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
}
