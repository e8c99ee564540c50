// Package schema is the in-memory model of a GraphQL schema that the
// generator works on.
//
// The model is a closed set of variants decided once at load time:
//
//   - [Type] is a named type with a [Kind] (scalar, enum, input object,
//     object, union or interface).
//   - [TypeRef] is a reference to a type and is exactly one of [NonNullRef],
//     [ListRef] or [NamedRef].
//   - [Field] and [Arg] carry names and type references in declaration order.
//
// Consumers switch over TypeRef with a type switch on the three variants; no
// other implementation can exist outside this package.
//
// A Schema is normally built by the compiler/load package from SDL sources:
//
//	s, err := load.Files("schema.graphql")
//	if err != nil {
//	    return err
//	}
//	for _, t := range s.Types {
//	    fmt.Println(t.Name, t.Kind)
//	}
package schema
