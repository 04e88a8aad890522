package adm

import (
	"bytes"
	"context"
	"math"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/Aleph-Alpha/admcodec/v1/codec"
	"github.com/Aleph-Alpha/admcodec/v1/stream"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t testing.TB) *codec.Engine {
	t.Helper()
	reg, err := NewRegistry()
	require.NoError(t, err)
	e, err := codec.NewEngine(reg, codec.DefaultConfig())
	require.NoError(t, err)
	return e
}

func roundTrip[T any](t *testing.T, e *codec.Engine, v T) T {
	t.Helper()
	data, err := e.Marshal(v)
	require.NoError(t, err)
	got, err := codec.DecodeValue[T](e, data)
	require.NoError(t, err)
	return got
}

var (
	hectare = &UnitOfMeasure{Code: "ha", Dimension: DimensionArea, Scale: 10000}
	sqMeter = &UnitOfMeasure{Code: "m2", Dimension: DimensionArea, IsReferenceForDimension: true, Scale: 1}
	yield   = &NumericRepresentation{
		Representation: Representation{Code: "vrYieldMass", CodeSource: CodeSourceADAPT, Description: "Yield"},
		DecimalDigits:  ptr(int32(2)),
		Dimension:      DimensionAreaDensity,
	}
)

func ptr[T any](v T) *T { return &v }

func spatialRecord(i int) *SpatialRecord {
	r := &SpatialRecord{
		Geometry:  NewPoint(8.67+float64(i)*1e-5, 49.41),
		Timestamp: time.Date(2024, 9, 3, 14, 0, i, 0, time.UTC),
	}
	r.SetMeterValue(1, &NumericRepresentationValue{
		Representation: yield,
		Value:          NewNumericValue(float64(i)+0.5, hectare),
	})
	r.SetMeterValue(2, &EnumeratedValue{
		Representation: &EnumeratedRepresentation{Representation: Representation{Code: "dtRecordingStatus"}},
		Value:          &EnumerationMember{Code: 1, Value: "On"},
	})
	r.SetAppliedLatency(1, int32(-i))
	return r
}

func TestSpatialRecordRoundTrip(t *testing.T) {
	e := newEngine(t)

	want := spatialRecord(7)
	got := roundTrip(t, e, want)
	assert.Equal(t, want, got)

	v, ok := got.MeterValue(1)
	require.True(t, ok)
	numeric, ok := v.(*NumericRepresentationValue)
	require.True(t, ok, "got %T", v)
	assert.Equal(t, 7.5, numeric.Value.Value)
	assert.Equal(t, "ha", numeric.Value.UnitOfMeasure.Code)
}

func TestPointZIsOptional(t *testing.T) {
	e := newEngine(t)

	flat := roundTrip(t, e, NewPoint(1, 2))
	assert.Nil(t, flat.Z)

	raised := NewPoint(1, 2)
	raised.Z = ptr(0.0)
	got := roundTrip(t, e, raised)
	require.NotNil(t, got.Z)
	assert.Zero(t, *got.Z)
}

func TestFieldBoundaryRoundTrip(t *testing.T) {
	e := newEngine(t)

	outer := NewLinearRing(*NewPoint(0, 0), *NewPoint(0, 1), *NewPoint(1, 1), *NewPoint(1, 0))
	hole := NewLinearRing(*NewPoint(0.4, 0.4), *NewPoint(0.4, 0.6), *NewPoint(0.6, 0.6))
	hole.Id = 12

	modified := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	want := &FieldBoundary{
		Id: CompoundIdentifier{ReferenceId: -3, UniqueIds: []UniqueId{
			{Id: "a2b7c1de-5d55-4c38-8a4c-0a1e3c1c0f42", IdType: IdTypeUUID, Source: "urn:farm"},
		}},
		Description: "North 40",
		FieldId:     40,
		SpatialData: &MultiPolygon{
			Shape:    Shape{Type: ShapeTypeMultiPolygon},
			Polygons: []Polygon{{Shape: Shape{Type: ShapeTypePolygon}, ExteriorRing: outer, InteriorRings: []LinearRing{hole}}},
		},
		TimeScopes: []TimeScope{{DateContext: DateContextModification, TimeStamp1: &modified}},
		Headlands: []AnyHeadland{
			&ConstantOffsetHeadland{Headland: Headland{Description: "outer"}, Value: &NumericRepresentationValue{
				Value: NewNumericValue(12, &UnitOfMeasure{Code: "m", Dimension: DimensionLength, Scale: 1}),
			}},
			&DrivenHeadland{SpatialData: &Polygon{ExteriorRing: outer}},
		},
		OriginalEpsgCode:           "EPSG:4326",
		InteriorBoundaryAttributes: []InteriorBoundaryAttribute{{ShapeIdRef: 12, IsPassable: true}},
		ContextItems: []ContextItem{{
			Code:        "soil",
			Value:       "loam",
			NestedItems: []ContextItem{{Code: "ph", Value: "6.5"}},
		}},
	}

	got := roundTrip(t, e, want)
	assert.Equal(t, want, got)
	assert.Len(t, got.SpatialData.Polygons[0].ExteriorRing.Points, 5)
}

func TestLoggedDataRoundTrip(t *testing.T) {
	e := newEngine(t)

	start := time.Date(2024, 9, 3, 13, 58, 0, 0, time.UTC)
	took := 42 * time.Minute
	want := &LoggedData{
		Id:           CompoundIdentifier{ReferenceId: 1},
		WorkRecordId: ptr(int32(5)),
		FieldId:      ptr(int32(0)),
		TimeScopes:   []TimeScope{{DateContext: DateContextActualStart, TimeStamp1: &start, Duration: &took}},
		WorkItemIds:  []int32{3, 4},
		OperationData: []OperationData{{
			Id:                        CompoundIdentifier{ReferenceId: 2},
			OperationType:             OperationTypeHarvesting,
			ProductId:                 ptr(int32(9)),
			MaxDepth:                  2,
			SpatialRecordCount:        1800,
			EquipmentConfigurationIds: []int32{11},
		}},
		Description: "harvest",
	}

	got := roundTrip(t, e, want)
	assert.Equal(t, want, got)
	require.NotNil(t, got.FieldId)
	assert.Zero(t, *got.FieldId)
	assert.Nil(t, got.FarmId)
}

func TestWorkingDataPolymorphism(t *testing.T) {
	e := newEngine(t)

	data := []AnyWorkingData{
		&NumericWorkingData{
			WorkingData:   WorkingData{Id: CompoundIdentifier{ReferenceId: 1}, Representation: yield, AppliedLatency: -2},
			UnitOfMeasure: hectare,
			Values:        []float64{1, 0, math.MaxFloat64},
		},
		&EnumeratedWorkingData{
			WorkingData: WorkingData{Representation: &EnumeratedRepresentation{
				Representation:    Representation{Code: "dtSectionControl"},
				EnumeratedMembers: []EnumerationMember{{Code: 1, Value: "Off"}, {Code: 2, Value: "On"}},
			}},
			ValueCodes: []int32{1, 2, 2},
		},
	}

	got := roundTrip(t, e, data)
	assert.Equal(t, data, got)
}

func TestDocumentsDecodeAsTheirSubtype(t *testing.T) {
	e := newEngine(t)

	docs := []AnyDocument{
		&WorkRecord{Document: Document{Description: "2024 harvest", FieldIds: []int32{40}}, LoggedDataIds: []int32{1}},
		&WorkOrder{Document: Document{Version: "2", GrowerId: ptr(int32(3))}, WorkItemIds: []int32{7}},
		&Plan{Document: Document{EstimatedArea: &NumericRepresentationValue{Value: NewNumericValue(16, hectare)}}},
		&Recommendation{WorkItemIds: []int32{1, 2}},
	}

	for _, doc := range docs {
		data, err := e.Marshal(doc)
		require.NoError(t, err)

		got, err := codec.DecodeValue[AnyDocument](e, data)
		require.NoError(t, err)
		assert.IsType(t, doc, got)
		assert.Equal(t, doc, got)
	}
}

func TestAbstractDocumentWithoutDiscriminator(t *testing.T) {
	e := newEngine(t)

	data, err := e.Marshal(&Document{Description: "orphan"})
	require.NoError(t, err)

	_, err = codec.DecodeValue[AnyDocument](e, data)
	assert.ErrorIs(t, err, codec.ErrUnresolvedDiscriminator)
}

func TestExtensionTypeWritesAsAncestor(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)
	require.NoError(t, b.DeclareAncestor(reflect.TypeFor[ExtendedPolygon](), reflect.TypeFor[Polygon]()))
	reg, err := b.Build()
	require.NoError(t, err)
	e, err := codec.NewEngine(reg, codec.DefaultConfig())
	require.NoError(t, err)

	ext := &ExtendedPolygon{Polygon: Polygon{ExteriorRing: NewLinearRing(*NewPoint(0, 0), *NewPoint(1, 1))}, Crop: "wheat"}
	data, err := e.Marshal(&FieldBoundary{SpatialData: &MultiPolygon{Polygons: []Polygon{ext.Polygon}}})
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	shape, err := e.Marshal(AnyShape(ext))
	require.NoError(t, err)
	got, err := codec.DecodeValue[AnyShape](e, shape)
	require.NoError(t, err)
	assert.Equal(t, &ext.Polygon, got)
}

func TestSpatialRecordStream(t *testing.T) {
	e := newEngine(t)
	records, err := stream.New[*SpatialRecord](e, stream.DefaultConfig())
	require.NoError(t, err)

	want := make([]*SpatialRecord, 250)
	for i := range want {
		want[i] = spatialRecord(i)
	}

	var buf bytes.Buffer
	n, err := records.WriteSequence(context.Background(), &buf, slices.Values(want))
	require.NoError(t, err)
	assert.Equal(t, len(want), n)

	got, err := records.Collect(context.Background(), stream.BytesSource(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestConvertTo(t *testing.T) {
	v, err := NewNumericValue(2.5, hectare).ConvertTo(sqMeter)
	require.NoError(t, err)
	assert.InDelta(t, 25000, v.Value, 1e-9)
	assert.Same(t, sqMeter, v.UnitOfMeasure)

	celsius := &UnitOfMeasure{Code: "C", Dimension: DimensionTemperature, Scale: 1, Offset: 273.15}
	kelvin := &UnitOfMeasure{Code: "K", Dimension: DimensionTemperature}
	v, err = NewNumericValue(20, celsius).ConvertTo(kelvin)
	require.NoError(t, err)
	assert.InDelta(t, 293.15, v.Value, 1e-9)

	_, err = NewNumericValue(1, hectare).ConvertTo(kelvin)
	var mismatch *DimensionMismatchError
	assert.ErrorAs(t, err, &mismatch)

	_, err = NewNumericValue(1, nil).ConvertTo(hectare)
	assert.ErrorIs(t, err, ErrMissingUnit)
}

func TestNewLinearRingCloses(t *testing.T) {
	pts := []Point{*NewPoint(0, 0), *NewPoint(1, 0), *NewPoint(1, 1)}
	ring := NewLinearRing(pts...)
	require.Len(t, ring.Points, 4)
	assert.Equal(t, ring.Points[0], ring.Points[3])
	assert.Len(t, pts, 3)

	closed := NewLinearRing(ring.Points...)
	assert.Len(t, closed.Points, 4)
}

func TestNewUUID(t *testing.T) {
	id := NewUUID("urn:operator")
	assert.Equal(t, IdTypeUUID, id.IdType)

	parsed, err := id.UUID()
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}
