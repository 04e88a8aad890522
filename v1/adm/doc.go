// Package adm is the agricultural data model serialized by the codec.
//
// The package holds the Go types of the model, the permanent field binding
// table (bindings.yaml) and the catalogue binding the two. Abstract bases
// (Shape, Representation, RepresentationValue, WorkingData, Document and
// Headland) have an Any* interface used for polymorphic fields; decoding
// into one of them yields a pointer to the concrete subtype written.
//
//	reg, err := adm.NewRegistry()
//	engine, err := codec.NewEngine(reg, codec.DefaultConfig())
//	data, err := engine.Marshal(&adm.SpatialRecord{Geometry: adm.NewPoint(8.6, 49.4)})
//
// Extension types that embed a model type can be written as that type:
//
//	b, _ := adm.NewBuilder()
//	_ = b.DeclareAncestor(reflect.TypeFor[MyPolygon](), reflect.TypeFor[adm.Polygon]())
//	reg, err := b.Build()
package adm
