package schema

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Shape struct {
	Id int32
}

type Polygon struct {
	Shape
	ExteriorRing []int32
}

type Point struct {
	Shape
	X, Y float64
}

type SmartPolygon struct {
	Polygon
	Area float64
}

type TaggedSmartPolygon struct {
	SmartPolygon
	Label string
}

type Unrelated struct {
	Name string
}

type AnyShape interface {
	ShapeBase() *Shape
}

func (s *Shape) ShapeBase() *Shape { return s }

func shapeBuilder(t *testing.T) *Builder {
	t.Helper()
	b := NewBuilder()
	require.NoError(t, b.Register("Shape", []FieldBinding{{Tag: 1, Name: "Id"}}, ""))
	require.NoError(t, b.Register("Polygon", []FieldBinding{{Tag: 6, Name: "ExteriorRing"}}, "Shape"))
	require.NoError(t, b.Register("Point", []FieldBinding{{Tag: 8, Name: "Y"}, {Tag: 7, Name: "X"}}, "Shape"))
	require.NoError(t, b.RegisterSubtype("Shape", 5, "Polygon"))
	require.NoError(t, b.RegisterSubtype("Shape", 4, "Point"))
	require.NoError(t, b.Bind("Shape", reflect.TypeFor[Shape]()))
	require.NoError(t, b.Bind("Polygon", reflect.TypeFor[Polygon]()))
	require.NoError(t, b.Bind("Point", reflect.TypeFor[Point]()))
	return b
}

func TestBuildShapeHierarchy(t *testing.T) {
	reg, err := shapeBuilder(t).Build()
	require.NoError(t, err)

	shape, ok := reg.Lookup("Shape")
	require.True(t, ok)
	point, ok := reg.Lookup("Point")
	require.True(t, ok)

	assert.Equal(t, 3, reg.Len())
	assert.Nil(t, shape.Parent())
	assert.Same(t, shape, point.Parent())
	assert.Equal(t, int32(4), point.Discriminator())
	assert.Equal(t, []FieldBinding{{Tag: 7, Name: "X"}, {Tag: 8, Name: "Y"}}, point.Fields())
	assert.Equal(t, []FieldBinding{{Tag: 1, Name: "Id"}, {Tag: 7, Name: "X"}, {Tag: 8, Name: "Y"}}, point.AllFields())

	subs := shape.Subtypes()
	require.Len(t, subs, 2)
	assert.Equal(t, int32(4), subs[0].Tag)
	assert.Equal(t, "Point", subs[0].Subtype.Name())
	assert.Equal(t, int32(5), subs[1].Tag)

	polygon, ok := shape.Subtype(5)
	require.True(t, ok)
	assert.Equal(t, "Polygon", polygon.Name())
	assert.True(t, polygon.IsA(shape))
	assert.False(t, shape.IsA(polygon))
	assert.Same(t, shape, polygon.Root())
	assert.Equal(t, []*TypeDescriptor{shape, polygon}, polygon.Chain())
}

func TestRegisterDuplicateType(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Register("Shape", nil, ""))

	err := b.Register("Shape", nil, "")
	var dup *DuplicateTypeError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Shape", dup.Type)
	assert.ErrorIs(t, err, ErrDuplicateType)
	assert.True(t, IsSchemaError(err))
}

func TestRegisterDuplicateTags(t *testing.T) {
	t.Run("within own fields", func(t *testing.T) {
		b := NewBuilder()
		err := b.Register("Point", []FieldBinding{{Tag: 7, Name: "X"}, {Tag: 7, Name: "Y"}}, "")
		assert.ErrorIs(t, err, ErrDuplicateTag)
	})

	t.Run("with an inherited field", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.Register("Shape", []FieldBinding{{Tag: 1, Name: "Id"}}, ""))
		err := b.Register("Point", []FieldBinding{{Tag: 1, Name: "X"}}, "Shape")
		var dup *DuplicateTagError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, int32(1), dup.Tag)
		assert.Equal(t, "field Shape.Id", dup.Owner)
	})

	t.Run("with an inherited discriminator", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.Register("Shape", []FieldBinding{{Tag: 1, Name: "Id"}}, ""))
		require.NoError(t, b.Register("Polygon", []FieldBinding{{Tag: 6, Name: "ExteriorRing"}}, "Shape"))
		require.NoError(t, b.RegisterSubtype("Shape", 5, "Polygon"))
		err := b.Register("Point", []FieldBinding{{Tag: 5, Name: "X"}}, "Shape")
		assert.ErrorIs(t, err, ErrDuplicateTag)
	})

	t.Run("discriminator against base field", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.Register("Shape", []FieldBinding{{Tag: 1, Name: "Id"}}, ""))
		require.NoError(t, b.Register("Polygon", nil, ""))
		err := b.RegisterSubtype("Shape", 1, "Polygon")
		assert.ErrorIs(t, err, ErrDuplicateTag)
	})

	t.Run("discriminator against sibling discriminator", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.Register("Shape", nil, ""))
		require.NoError(t, b.Register("Polygon", nil, ""))
		require.NoError(t, b.Register("Point", nil, ""))
		require.NoError(t, b.RegisterSubtype("Shape", 5, "Polygon"))
		err := b.RegisterSubtype("Shape", 5, "Point")
		assert.ErrorIs(t, err, ErrDuplicateTag)
	})

	t.Run("discriminator against a sibling's field", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.Register("Shape", nil, ""))
		require.NoError(t, b.Register("Point", []FieldBinding{{Tag: 7, Name: "X"}}, "Shape"))
		require.NoError(t, b.Register("Polygon", nil, ""))
		err := b.RegisterSubtype("Shape", 7, "Polygon")
		assert.ErrorIs(t, err, ErrDuplicateTag)
	})

	t.Run("standalone subtype fields against base chain", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.Register("Shape", []FieldBinding{{Tag: 1, Name: "Id"}}, ""))
		require.NoError(t, b.Register("Polygon", []FieldBinding{{Tag: 1, Name: "ExteriorRing"}}, ""))
		err := b.RegisterSubtype("Shape", 5, "Polygon")
		var dup *DuplicateTagError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "Polygon", dup.Type)
	})
}

func TestRegisterUnknownBase(t *testing.T) {
	b := NewBuilder()

	err := b.Register("Polygon", nil, "Shape")
	var unknown *UnknownBaseTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Shape", unknown.Base)

	require.NoError(t, b.Register("Polygon", nil, ""))
	err = b.RegisterSubtype("Shape", 5, "Polygon")
	assert.ErrorIs(t, err, ErrUnknownBaseType)

	require.NoError(t, b.Register("Shape", nil, ""))
	err = b.RegisterSubtype("Shape", 6, "Ring")
	assert.ErrorIs(t, err, ErrUnresolvedType)
}

func TestRegisterInvalidTags(t *testing.T) {
	b := NewBuilder()
	assert.ErrorIs(t, b.Register("A", []FieldBinding{{Tag: 0, Name: "X"}}, ""), ErrInvalidBinding)
	assert.ErrorIs(t, b.Register("B", []FieldBinding{{Tag: 19000, Name: "X"}}, ""), ErrInvalidBinding)
	assert.ErrorIs(t, b.Register("C", []FieldBinding{{Tag: 1, Name: ""}}, ""), ErrInvalidBinding)
	assert.ErrorIs(t, b.Register("D", []FieldBinding{{Tag: 1, Name: "X"}, {Tag: 2, Name: "X"}}, ""), ErrInvalidBinding)
}

func TestRegisterSubtypeConflicts(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Register("Shape", nil, ""))
	require.NoError(t, b.Register("Other", nil, ""))
	require.NoError(t, b.Register("Polygon", nil, "Shape"))

	err := b.RegisterSubtype("Other", 5, "Polygon")
	assert.ErrorIs(t, err, ErrInvalidBinding)

	require.NoError(t, b.RegisterSubtype("Shape", 5, "Polygon"))
	err = b.RegisterSubtype("Shape", 6, "Polygon")
	assert.ErrorIs(t, err, ErrInvalidBinding)

	err = b.RegisterSubtype("Polygon", 7, "Shape")
	assert.ErrorIs(t, err, ErrInvalidBinding)
}

func TestBuildValidatesGoTypes(t *testing.T) {
	t.Run("unbound type", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.Register("Shape", nil, ""))
		_, err := b.Build()
		assert.ErrorIs(t, err, ErrInvalidBinding)
	})

	t.Run("bound but not registered", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.Bind("Shape", reflect.TypeFor[Shape]()))
		_, err := b.Build()
		assert.ErrorIs(t, err, ErrInvalidBinding)
	})

	t.Run("missing field", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.Register("Shape", []FieldBinding{{Tag: 1, Name: "Identifier"}}, ""))
		require.NoError(t, b.Bind("Shape", reflect.TypeFor[Shape]()))
		_, err := b.Build()
		var be *BindingError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "Identifier", be.Field)
	})

	t.Run("subtype does not embed base", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.Register("Shape", nil, ""))
		require.NoError(t, b.Register("Unrelated", nil, "Shape"))
		require.NoError(t, b.RegisterSubtype("Shape", 2, "Unrelated"))
		require.NoError(t, b.Bind("Shape", reflect.TypeFor[Shape]()))
		require.NoError(t, b.Bind("Unrelated", reflect.TypeFor[Unrelated]()))
		_, err := b.Build()
		assert.ErrorIs(t, err, ErrInvalidBinding)
	})

	t.Run("parent without discriminator", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.Register("Shape", nil, ""))
		require.NoError(t, b.Register("Polygon", nil, "Shape"))
		require.NoError(t, b.Bind("Shape", reflect.TypeFor[Shape]()))
		require.NoError(t, b.Bind("Polygon", reflect.TypeFor[Polygon]()))
		_, err := b.Build()
		assert.ErrorIs(t, err, ErrInvalidBinding)
	})

	t.Run("bind rejects non-structs and rebinding", func(t *testing.T) {
		b := NewBuilder()
		assert.ErrorIs(t, b.Bind("Shape", reflect.TypeFor[*Shape]()), ErrInvalidBinding)
		require.NoError(t, b.Bind("Shape", reflect.TypeFor[Shape]()))
		assert.ErrorIs(t, b.Bind("Shape2", reflect.TypeFor[Shape]()), ErrInvalidBinding)
		assert.ErrorIs(t, b.BindInterface(reflect.TypeFor[Shape](), "Shape"), ErrInvalidBinding)
	})
}

type RelabelledShape struct {
	Shape
	Id string
}

func TestBuildRejectsRebindingInheritedFields(t *testing.T) {
	t.Run("subtype", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.Register("Shape", []FieldBinding{{Tag: 1, Name: "Id"}}, ""))
		require.NoError(t, b.Register("Polygon", []FieldBinding{{Tag: 6, Name: "Id"}}, "Shape"))
		require.NoError(t, b.RegisterSubtype("Shape", 5, "Polygon"))
		require.NoError(t, b.Bind("Shape", reflect.TypeFor[Shape]()))
		require.NoError(t, b.Bind("Polygon", reflect.TypeFor[Polygon]()))

		_, err := b.Build()
		var be *BindingError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "Polygon", be.Type)
		assert.Equal(t, "Id", be.Field)
	})

	t.Run("two levels down", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.Register("Shape", []FieldBinding{{Tag: 1, Name: "Id"}}, ""))
		require.NoError(t, b.Register("Polygon", []FieldBinding{{Tag: 6, Name: "ExteriorRing"}}, "Shape"))
		require.NoError(t, b.Register("SmartPolygon", []FieldBinding{{Tag: 20, Name: "Id"}}, "Polygon"))
		require.NoError(t, b.RegisterSubtype("Shape", 5, "Polygon"))
		require.NoError(t, b.RegisterSubtype("Polygon", 11, "SmartPolygon"))
		require.NoError(t, b.Bind("Shape", reflect.TypeFor[Shape]()))
		require.NoError(t, b.Bind("Polygon", reflect.TypeFor[Polygon]()))
		require.NoError(t, b.Bind("SmartPolygon", reflect.TypeFor[SmartPolygon]()))

		_, err := b.Build()
		assert.ErrorIs(t, err, ErrInvalidBinding)
	})

	t.Run("shadowing field is a different field", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.Register("Shape", []FieldBinding{{Tag: 1, Name: "Id"}}, ""))
		require.NoError(t, b.Register("RelabelledShape", []FieldBinding{{Tag: 6, Name: "Id"}}, "Shape"))
		require.NoError(t, b.RegisterSubtype("Shape", 5, "RelabelledShape"))
		require.NoError(t, b.Bind("Shape", reflect.TypeFor[Shape]()))
		require.NoError(t, b.Bind("RelabelledShape", reflect.TypeFor[RelabelledShape]()))

		_, err := b.Build()
		assert.NoError(t, err)
	})
}

func TestBuildInterfaceBindings(t *testing.T) {
	b := shapeBuilder(t)
	require.NoError(t, b.BindInterface(reflect.TypeFor[AnyShape](), "Shape"))
	reg, err := b.Build()
	require.NoError(t, err)

	base, ok := reg.InterfaceBase(reflect.TypeFor[AnyShape]())
	require.True(t, ok)
	assert.Equal(t, "Shape", base.Name())

	b = shapeBuilder(t)
	require.NoError(t, b.BindInterface(reflect.TypeFor[AnyShape](), "Circle"))
	_, err = b.Build()
	assert.ErrorIs(t, err, ErrUnknownBaseType)
}

func TestBuilderSealedAfterBuild(t *testing.T) {
	b := shapeBuilder(t)
	_, err := b.Build()
	require.NoError(t, err)

	assert.ErrorIs(t, b.Register("Ring", nil, ""), ErrRegistrySealed)
	assert.ErrorIs(t, b.RegisterSubtype("Shape", 9, "Point"), ErrRegistrySealed)
	assert.ErrorIs(t, b.Bind("Ring", reflect.TypeFor[Unrelated]()), ErrRegistrySealed)
	assert.ErrorIs(t, b.DeclareAncestor(reflect.TypeFor[SmartPolygon](), reflect.TypeFor[Polygon]()), ErrRegistrySealed)
	_, err = b.Build()
	assert.True(t, errors.Is(err, ErrRegistrySealed))
}

func TestEmbedPath(t *testing.T) {
	path, ok := EmbedPath(reflect.TypeFor[TaggedSmartPolygon](), reflect.TypeFor[Shape]())
	require.True(t, ok)
	assert.Equal(t, []int{0, 0, 0}, path)

	_, ok = EmbedPath(reflect.TypeFor[Unrelated](), reflect.TypeFor[Shape]())
	assert.False(t, ok)
}
