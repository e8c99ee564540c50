// Package gen generates gqlgen compatible Go bindings from a GraphQL schema.
//
// The generator produces two files for one schema:
//
//   - the main file, holding enums, input objects and model structs. Fields
//     that resolve to scalars or enums are struct fields; every other field
//     is a method that forwards to a data source method named
//     {Owner}_{field}.
//   - datasource_impl.go, declaring the data source with one panicking
//     method per forwarded field.
//
// # Pipeline
//
//	schema.Schema
//	        ↓
//	   Classify (enums, inputs, objects, roots)
//	        ↓
//	   Emitter (TypeMapper, EmissionContext)
//	        ↓
//	   main file + GenerateStub
//
// Support declarations (enum marshaling, input decoding, the data source
// context accessors, the Model marker) are assembled from the flags the
// Emitter records, so the imports of the main file are exactly those of the
// declarations it contains.
//
// # Type Mapping
//
//	ID, String  string
//	Boolean     bool
//	Int         int32
//	Float       float32
//	[T]         []T
//	nullable T  *T
//
// Custom scalars must be mapped explicitly:
//
//	cfg, err := gen.NewConfig(
//	    gen.WithScalar("Time", "time.Time"),
//	)
//
// Union and interface typed fields are not generated.
//
// # Error Handling
//
//   - SchemaError: a schema construct that cannot be expressed in Go
//   - ConfigError: invalid generator configuration
//   - GenerationError: rendering failed
//
// Example error handling:
//
//	art, err := gen.Generate(s, cfg)
//	if gen.IsSchemaError(err) {
//	    // report the type and field
//	}
package gen
