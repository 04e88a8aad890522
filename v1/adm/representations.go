package adm

// AnyRepresentation holds a Representation subtype.
type AnyRepresentation interface {
	RepresentationBase() *Representation
}

// Representation describes what a logged or planned value means.
type Representation struct {
	Id              CompoundIdentifier
	CodeSource      CodeSource
	Code            string
	Description     string
	LongDescription string
}

// RepresentationBase returns the Representation part of the value.
func (r *Representation) RepresentationBase() *Representation { return r }

type EnumeratedRepresentation struct {
	Representation
	EnumeratedMembers     []EnumerationMember
	RepresentationGroupId *int32
}

type NumericRepresentation struct {
	Representation
	DecimalDigits *int32
	MinValue      *NumericValue
	MaxValue      *NumericValue
	Dimension     Dimension
}

type StringRepresentation struct {
	Representation
	MinCharacters *int32
	MaxCharacters *int32
}

// EnumerationMember is one value of an enumerated representation.
type EnumerationMember struct {
	Code  string
	Value string
}

// UnitOfMeasure converts to the reference unit of its dimension as
// value*Scale + Offset. A zero Scale is read as 1.
type UnitOfMeasure struct {
	Id                      CompoundIdentifier
	Code                    string
	Dimension               Dimension
	IsReferenceForDimension bool
	Scale                   float64
	Offset                  float64
}

// AnyRepresentationValue holds a RepresentationValue subtype.
type AnyRepresentationValue interface {
	RepresentationValueBase() *RepresentationValue
}

// RepresentationValue is a value qualified by its representation.
type RepresentationValue struct {
	Code       string
	Designator string
	Color      string
}

// RepresentationValueBase returns the RepresentationValue part of the value.
func (v *RepresentationValue) RepresentationValueBase() *RepresentationValue { return v }

type EnumeratedValue struct {
	RepresentationValue
	Representation *EnumeratedRepresentation
	Value          *EnumerationMember
}

type NumericRepresentationValue struct {
	RepresentationValue
	Representation            *NumericRepresentation
	Value                     *NumericValue
	UserProvidedUnitOfMeasure *UnitOfMeasure
}

type StringValue struct {
	RepresentationValue
	Representation *StringRepresentation
	Value          string
}

// NumericValue is a number with its unit.
type NumericValue struct {
	Value         float64
	UnitOfMeasure *UnitOfMeasure
}

// NewNumericValue returns value in uom.
func NewNumericValue(value float64, uom *UnitOfMeasure) *NumericValue {
	return &NumericValue{Value: value, UnitOfMeasure: uom}
}

// ConvertTo returns v expressed in target. Both units must share a dimension.
func (v *NumericValue) ConvertTo(target *UnitOfMeasure) (*NumericValue, error) {
	if v.UnitOfMeasure == nil || target == nil {
		return nil, ErrMissingUnit
	}
	if v.UnitOfMeasure.Dimension != target.Dimension {
		return nil, &DimensionMismatchError{From: v.UnitOfMeasure.Code, To: target.Code}
	}
	reference := v.Value*scaleOf(v.UnitOfMeasure) + v.UnitOfMeasure.Offset
	return &NumericValue{Value: (reference - target.Offset) / scaleOf(target), UnitOfMeasure: target}, nil
}

func scaleOf(u *UnitOfMeasure) float64 {
	if u.Scale == 0 {
		return 1
	}
	return u.Scale
}
