package schema

import (
	"errors"
	"fmt"
)

// Common schema errors. All of them are build-time or first-use configuration
// failures and are never retried.
var (
	// ErrDuplicateType is returned when a type name is registered twice.
	ErrDuplicateType = errors.New("schema: duplicate type")

	// ErrDuplicateTag is returned when a field or discriminator tag collides with
	// another tag visible in the same inheritance chain.
	ErrDuplicateTag = errors.New("schema: duplicate tag")

	// ErrUnknownBaseType is returned when a parent or subtype base is not registered.
	ErrUnknownBaseType = errors.New("schema: unknown base type")

	// ErrUnresolvedType is returned when a type has no descriptor and no registered ancestor.
	ErrUnresolvedType = errors.New("schema: unresolved type")

	// ErrInvalidBinding is returned when the binding table and the Go types disagree.
	ErrInvalidBinding = errors.New("schema: invalid binding")

	// ErrRegistrySealed is returned by builder calls made after Build.
	ErrRegistrySealed = errors.New("schema: registry already built")
)

// DuplicateTypeError reports a second registration of Type.
type DuplicateTypeError struct {
	Type string
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("schema: type %q is already registered", e.Type)
}

func (e *DuplicateTypeError) Is(target error) bool { return target == ErrDuplicateType }

// DuplicateTagError reports a tag on Type that is already used by Owner.
type DuplicateTagError struct {
	Type  string
	Tag   int32
	Owner string
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("schema: tag %d on %q collides with %s", e.Tag, e.Type, e.Owner)
}

func (e *DuplicateTagError) Is(target error) bool { return target == ErrDuplicateTag }

// UnknownBaseTypeError reports a reference to a base type that is not registered.
type UnknownBaseTypeError struct {
	Base string
}

func (e *UnknownBaseTypeError) Error() string {
	return fmt.Sprintf("schema: base type %q is not registered", e.Base)
}

func (e *UnknownBaseTypeError) Is(target error) bool { return target == ErrUnknownBaseType }

// UnresolvedTypeError reports a type with no descriptor and no registered ancestor.
type UnresolvedTypeError struct {
	Type string
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("schema: type %s has no descriptor and no registered ancestor", e.Type)
}

func (e *UnresolvedTypeError) Is(target error) bool { return target == ErrUnresolvedType }

// BindingError reports a mismatch between a descriptor and its Go type.
type BindingError struct {
	Type   string
	Field  string
	Reason string
}

func (e *BindingError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema: %s.%s: %s", e.Type, e.Field, e.Reason)
	}
	return fmt.Sprintf("schema: %s: %s", e.Type, e.Reason)
}

func (e *BindingError) Is(target error) bool { return target == ErrInvalidBinding }

// IsSchemaError reports whether err is any of the schema configuration errors.
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrDuplicateType) ||
		errors.Is(err, ErrDuplicateTag) ||
		errors.Is(err, ErrUnknownBaseType) ||
		errors.Is(err, ErrUnresolvedType) ||
		errors.Is(err, ErrInvalidBinding) ||
		errors.Is(err, ErrRegistrySealed)
}

// IsUnresolvedTypeError reports whether err means a type could not be resolved.
func IsUnresolvedTypeError(err error) bool {
	return errors.Is(err, ErrUnresolvedType)
}
