// Package codec encodes and decodes registered domain values to the compact
// binary wire format.
//
// Values are written as protobuf wire messages keyed by the permanent tags of
// the schema registry. A message starts with the discriminator keys of its
// inheritance chain, root first, followed by every field of the chain, root
// level first and each level in ascending tag order. Readers accept fields in
// any order and skip tags they do not know, so a tag added by a newer writer
// never breaks an older reader.
//
// Polymorphic fields are declared as Go interfaces bound to a base type with
// schema.Builder.BindInterface. On decode the discriminators pick the
// concrete subtype:
//
//	shape, err := codec.DecodeValue[adm.AnyShape](engine, data)
//
// A runtime type that is not registered but declares a registered ancestor
// is written as that ancestor. The subtype's own fields are lost; the engine
// logs a warning and reports an "ancestor_fallback" operation to its observer.
//
// Wire mapping:
//
//	bool, integers, named enums   varint (two's complement for signed values)
//	float32, float64              fixed32, fixed64
//	string, []byte                length-delimited
//	time.Time, time.Duration      google.protobuf.Timestamp / Duration
//	registered struct             nested message
//	bound interface               nested message with discriminators
//	*scalar                       optional: nil omitted, non-nil always written
//	[]scalar                      packed (packed and unpacked accepted)
//	map[K]V                       entries with key 1 and value 2, sorted by key
//
// Zero values are omitted unless Config.EmitDefaults is set. An Engine is
// immutable after NewEngine and safe for concurrent use.
package codec
