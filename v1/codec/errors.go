package codec

import (
	"errors"
	"fmt"
	"reflect"

	"google.golang.org/protobuf/encoding/protowire"
)

// Common codec errors.
var (
	// ErrSchemaMismatch is returned when the wire shape of a field disagrees
	// with its descriptor.
	ErrSchemaMismatch = errors.New("codec: schema mismatch")

	// ErrUnexpectedEndOfData is returned when input ends inside a field or record.
	ErrUnexpectedEndOfData = errors.New("codec: unexpected end of data")

	// ErrUnresolvedDiscriminator is returned when a polymorphic value carries no
	// discriminator, or one its base does not know, and the base is abstract.
	ErrUnresolvedDiscriminator = errors.New("codec: unresolved discriminator")

	// ErrUnsupportedType is returned when a Go type has no wire mapping.
	ErrUnsupportedType = errors.New("codec: unsupported type")

	// ErrNilValue is returned when Marshal is given nil.
	ErrNilValue = errors.New("codec: nil value")

	// ErrNilElement is returned for nil entries in repeated fields and maps,
	// which the wire format cannot represent.
	ErrNilElement = errors.New("codec: nil element in repeated field")

	// ErrInvalidTarget is returned when Unmarshal is not given a non-nil pointer.
	ErrInvalidTarget = errors.New("codec: decode target must be a non-nil pointer")

	// ErrIncompatibleType is returned when a polymorphic field holds a value
	// that does not resolve to the field's base type.
	ErrIncompatibleType = errors.New("codec: value does not match the field's base type")

	// ErrMaxDepthExceeded is returned when nesting exceeds Config.MaxDepth.
	ErrMaxDepthExceeded = errors.New("codec: maximum nesting depth exceeded")
)

// SchemaMismatchError describes a field whose wire shape cannot be decoded
// into its descriptor's Go type.
type SchemaMismatchError struct {
	Type     string
	Field    string
	Tag      int32
	Expected protowire.Type
	Got      protowire.Type
	Reason   string
}

func (e *SchemaMismatchError) Error() string {
	where := e.Type
	if e.Field != "" {
		where += "." + e.Field
	}
	if e.Reason != "" {
		return fmt.Sprintf("codec: schema mismatch on %s (tag %d): %s", where, e.Tag, e.Reason)
	}
	return fmt.Sprintf("codec: schema mismatch on %s (tag %d): expected %s, got %s",
		where, e.Tag, wireName(e.Expected), wireName(e.Got))
}

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// UnexpectedEndOfDataError reports truncated input.
type UnexpectedEndOfDataError struct {
	Type string
	Tag  int32
}

func (e *UnexpectedEndOfDataError) Error() string {
	if e.Tag != 0 {
		return fmt.Sprintf("codec: unexpected end of data in %s (tag %d)", e.Type, e.Tag)
	}
	return fmt.Sprintf("codec: unexpected end of data in %s", e.Type)
}

func (e *UnexpectedEndOfDataError) Is(target error) bool { return target == ErrUnexpectedEndOfData }

// UnresolvedDiscriminatorError reports that no concrete subtype of Base could
// be selected. Tag is the offending leading tag, or 0 when none was present.
type UnresolvedDiscriminatorError struct {
	Base string
	Tag  int32
}

func (e *UnresolvedDiscriminatorError) Error() string {
	if e.Tag == 0 {
		return fmt.Sprintf("codec: abstract type %s decoded without a discriminator", e.Base)
	}
	return fmt.Sprintf("codec: tag %d is not a discriminator of %s", e.Tag, e.Base)
}

func (e *UnresolvedDiscriminatorError) Is(target error) bool {
	return target == ErrUnresolvedDiscriminator
}

// UnsupportedTypeError reports a Go type the engine cannot map to the wire.
type UnsupportedTypeError struct {
	Type   string
	Field  string
	GoType reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("codec: field %s.%s has unsupported type %v", e.Type, e.Field, e.GoType)
	}
	return fmt.Sprintf("codec: unsupported type %v", e.GoType)
}

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrUnsupportedType }

// IsDecodeError reports whether err is one of the decoding failures.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrUnexpectedEndOfData) ||
		errors.Is(err, ErrUnresolvedDiscriminator)
}

// IsTruncated reports whether err means the input ended early.
func IsTruncated(err error) bool {
	return errors.Is(err, ErrUnexpectedEndOfData)
}

func wireName(t protowire.Type) string {
	switch t {
	case protowire.VarintType:
		return "varint"
	case protowire.Fixed32Type:
		return "fixed32"
	case protowire.Fixed64Type:
		return "fixed64"
	case protowire.BytesType:
		return "bytes"
	case protowire.StartGroupType, protowire.EndGroupType:
		return "group"
	default:
		return fmt.Sprintf("wire type %d", t)
	}
}
