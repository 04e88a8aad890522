package adm

// AnyShape holds a Shape or any of its subtypes.
type AnyShape interface {
	ShapeBase() *Shape
}

// Shape is the abstract base of all geometries.
type Shape struct {
	Id   int32
	Type ShapeType
}

// ShapeBase returns the Shape part of the value.
func (s *Shape) ShapeBase() *Shape { return s }

type Point struct {
	Shape
	X float64
	Y float64
	Z *float64
}

type LinearRing struct {
	Shape
	Points []Point
}

type LineString struct {
	Shape
	Points []Point
}

type MultiLineString struct {
	Shape
	LineStrings []LineString
}

type MultiPoint struct {
	Shape
	Points []Point
}

type Polygon struct {
	Shape
	ExteriorRing  LinearRing
	InteriorRings []LinearRing
}

type MultiPolygon struct {
	Shape
	Polygons []Polygon
}

// BoundingBox bounds a geometry with measured coordinates.
type BoundingBox struct {
	MinY *NumericRepresentationValue
	MinX *NumericRepresentationValue
	MaxY *NumericRepresentationValue
	MaxX *NumericRepresentationValue
}

// NewPoint returns a 2D point.
func NewPoint(x, y float64) *Point {
	return &Point{Shape: Shape{Type: ShapeTypePoint}, X: x, Y: y}
}

// NewLinearRing closes points into a ring, repeating the first point when the
// last one differs.
func NewLinearRing(points ...Point) LinearRing {
	if n := len(points); n > 1 {
		first, last := points[0], points[n-1]
		if first.X != last.X || first.Y != last.Y {
			points = append(points[:n:n], first)
		}
	}
	return LinearRing{Shape: Shape{Type: ShapeTypeLinearRing}, Points: points}
}
