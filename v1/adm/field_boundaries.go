package adm

// AnyHeadland holds a Headland subtype.
type AnyHeadland interface {
	HeadlandBase() *Headland
}

// Headland is the abstract base of the turning areas around a field.
type Headland struct {
	Description string
}

// HeadlandBase returns the Headland part of the value.
func (h *Headland) HeadlandBase() *Headland { return h }

// ConstantOffsetHeadland runs at a fixed distance inside the boundary.
type ConstantOffsetHeadland struct {
	Headland
	Value *NumericRepresentationValue
}

// DrivenHeadland is the area actually driven.
type DrivenHeadland struct {
	Headland
	SpatialData *Polygon
}

// FieldBoundary is the outline of a field at a point in time.
type FieldBoundary struct {
	Id                         CompoundIdentifier
	Description                string
	FieldId                    int32
	SpatialData                *MultiPolygon
	TimeScopes                 []TimeScope
	Headlands                  []AnyHeadland
	OriginalEpsgCode           string
	InteriorBoundaryAttributes []InteriorBoundaryAttribute
	ContextItems               []ContextItem
}

// InteriorBoundaryAttribute qualifies an interior ring of the boundary.
type InteriorBoundaryAttribute struct {
	ShapeIdRef  int32
	IsPassable  bool
	Description string
}
