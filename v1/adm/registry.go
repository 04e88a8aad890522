package adm

import (
	"bytes"
	_ "embed"
	"fmt"
	"reflect"

	"github.com/Aleph-Alpha/admcodec/v1/schema"
)

//go:embed bindings.yaml
var bindings []byte

// Table returns a fresh copy of the ADM field binding table.
func Table() (*schema.Table, error) {
	t, err := schema.LoadTable(bytes.NewReader(bindings))
	if err != nil {
		return nil, fmt.Errorf("adm: %w", err)
	}
	return t, nil
}

// Catalog returns the Go types bound to the ADM table.
func Catalog() schema.Catalog {
	return schema.Catalog{
		Types: map[string]reflect.Type{
			"CompoundIdentifier": reflect.TypeFor[CompoundIdentifier](),
			"UniqueId":           reflect.TypeFor[UniqueId](),
			"TimeScope":          reflect.TypeFor[TimeScope](),
			"ContextItem":        reflect.TypeFor[ContextItem](),

			"Shape":           reflect.TypeFor[Shape](),
			"Point":           reflect.TypeFor[Point](),
			"LinearRing":      reflect.TypeFor[LinearRing](),
			"LineString":      reflect.TypeFor[LineString](),
			"MultiLineString": reflect.TypeFor[MultiLineString](),
			"MultiPoint":      reflect.TypeFor[MultiPoint](),
			"Polygon":         reflect.TypeFor[Polygon](),
			"MultiPolygon":    reflect.TypeFor[MultiPolygon](),
			"BoundingBox":     reflect.TypeFor[BoundingBox](),

			"Representation":             reflect.TypeFor[Representation](),
			"EnumeratedRepresentation":   reflect.TypeFor[EnumeratedRepresentation](),
			"NumericRepresentation":      reflect.TypeFor[NumericRepresentation](),
			"StringRepresentation":       reflect.TypeFor[StringRepresentation](),
			"EnumerationMember":          reflect.TypeFor[EnumerationMember](),
			"UnitOfMeasure":              reflect.TypeFor[UnitOfMeasure](),
			"RepresentationValue":        reflect.TypeFor[RepresentationValue](),
			"EnumeratedValue":            reflect.TypeFor[EnumeratedValue](),
			"NumericRepresentationValue": reflect.TypeFor[NumericRepresentationValue](),
			"StringValue":                reflect.TypeFor[StringValue](),
			"NumericValue":               reflect.TypeFor[NumericValue](),

			"WorkingData":           reflect.TypeFor[WorkingData](),
			"EnumeratedWorkingData": reflect.TypeFor[EnumeratedWorkingData](),
			"NumericWorkingData":    reflect.TypeFor[NumericWorkingData](),
			"SpatialRecord":         reflect.TypeFor[SpatialRecord](),
			"OperationData":         reflect.TypeFor[OperationData](),
			"LoggedData":            reflect.TypeFor[LoggedData](),

			"Document":       reflect.TypeFor[Document](),
			"Plan":           reflect.TypeFor[Plan](),
			"Recommendation": reflect.TypeFor[Recommendation](),
			"WorkOrder":      reflect.TypeFor[WorkOrder](),
			"WorkRecord":     reflect.TypeFor[WorkRecord](),

			"Headland":                  reflect.TypeFor[Headland](),
			"ConstantOffsetHeadland":    reflect.TypeFor[ConstantOffsetHeadland](),
			"DrivenHeadland":            reflect.TypeFor[DrivenHeadland](),
			"FieldBoundary":             reflect.TypeFor[FieldBoundary](),
			"InteriorBoundaryAttribute": reflect.TypeFor[InteriorBoundaryAttribute](),
		},
		Interfaces: map[reflect.Type]string{
			reflect.TypeFor[AnyShape]():               "Shape",
			reflect.TypeFor[AnyRepresentation]():      "Representation",
			reflect.TypeFor[AnyRepresentationValue](): "RepresentationValue",
			reflect.TypeFor[AnyWorkingData]():         "WorkingData",
			reflect.TypeFor[AnyDocument]():            "Document",
			reflect.TypeFor[AnyHeadland]():            "Headland",
		},
	}
}

// NewBuilder returns a Builder holding the ADM table and catalogue. Callers
// may declare ancestors for their own extension types before building it.
func NewBuilder() (*schema.Builder, error) {
	table, err := Table()
	if err != nil {
		return nil, err
	}
	b := schema.NewBuilder()
	if err := table.Apply(b); err != nil {
		return nil, err
	}
	if err := Catalog().Apply(b); err != nil {
		return nil, err
	}
	return b, nil
}

// NewRegistry builds the ADM registry.
func NewRegistry() (*schema.Registry, error) {
	b, err := NewBuilder()
	if err != nil {
		return nil, err
	}
	return b.Build()
}
