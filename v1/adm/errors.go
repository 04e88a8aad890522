package adm

import (
	"errors"
	"fmt"
)

// ErrMissingUnit is returned when a conversion involves a value without a unit.
var ErrMissingUnit = errors.New("adm: numeric value has no unit of measure")

// DimensionMismatchError is returned when converting between units of
// different dimensions.
type DimensionMismatchError struct {
	From string
	To   string
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("adm: cannot convert %s to %s", e.From, e.To)
}
