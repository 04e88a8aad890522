// Package schema owns the field binding table of the ADM binary format.
//
// A Builder collects, per domain type, the permanent wire tag of each field,
// the parent type and the discriminator tag of each subtype, together with the
// explicit Go type catalogue. Build validates everything once and returns an
// immutable Registry that the codec consults for every value it encodes or
// decodes.
//
// There is no type discovery. A Go type is serializable when it is bound to a
// registered name, or when it declares (DeclareAncestor) a registered type it
// embeds. The latter is encoded as that ancestor and loses its own fields.
//
// Tags are contracts: a tag is unique across a type's whole inheritance chain,
// discriminators included, and is never reassigned.
//
// # Loading the table
//
//	f, _ := os.Open("bindings.yaml")
//	table, err := schema.LoadTable(f)
//	reg, err := schema.Build(table, schema.Catalog{
//	    Types: map[string]reflect.Type{"Point": reflect.TypeFor[Point]()},
//	})
//
// # One-time construction
//
// The registry is meant to be built once at startup and passed explicitly.
// Where the first use decides when it is built, wrap the build in a Lazy:
//
//	var registry = schema.NewLazy(adm.NewRegistry)
//	reg, err := registry.Get()
package schema
