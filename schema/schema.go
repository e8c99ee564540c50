package schema

import (
	"fmt"
	"strings"
)

// Kind identifies the variant of a named type.
type Kind uint8

// Named type kinds.
const (
	KindInvalid Kind = iota
	KindScalar
	KindEnum
	KindInputObject
	KindObject
	KindUnion
	KindInterface
)

var kindNames = [...]string{
	KindInvalid:     "INVALID",
	KindScalar:      "SCALAR",
	KindEnum:        "ENUM",
	KindInputObject: "INPUT_OBJECT",
	KindObject:      "OBJECT",
	KindUnion:       "UNION",
	KindInterface:   "INTERFACE",
}

// String returns the introspection name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsLeaf reports whether values of the kind are scalars or enums.
func (k Kind) IsLeaf() bool {
	return k == KindScalar || k == KindEnum
}

// IsAbstract reports whether the kind is a union or an interface.
func (k Kind) IsAbstract() bool {
	return k == KindUnion || k == KindInterface
}

// Type is a named schema type.
type Type struct {
	Name string
	Kind Kind
	// Fields holds object, interface and input object fields in declaration
	// order. Input object fields never have arguments.
	Fields []*Field
	// Values holds enum values in declaration order.
	Values []string
	// Members holds the member type names of a union.
	Members []string
	// BuiltIn is set for types defined by the GraphQL prelude.
	BuiltIn bool
}

// Field returns the field with the given name, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Field is an object, interface or input object field.
type Field struct {
	Name string
	Args []*Arg
	Type TypeRef
}

// Arg is a field argument.
type Arg struct {
	Name string
	Type TypeRef
}

// Schema is an ordered collection of named types with its root operations.
type Schema struct {
	// Types are kept in declaration order. Built-in types follow the
	// user-defined ones.
	Types []*Type

	Query        *Type
	Mutation     *Type
	Subscription *Type

	byName map[string]*Type
}

// New returns an empty schema.
func New() *Schema {
	return &Schema{byName: make(map[string]*Type)}
}

// Add registers a named type. Names must be unique.
func (s *Schema) Add(t *Type) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("schema: type without name")
	}
	if s.byName == nil {
		s.byName = make(map[string]*Type)
	}
	if _, ok := s.byName[t.Name]; ok {
		return fmt.Errorf("schema: type %s declared twice", t.Name)
	}
	s.byName[t.Name] = t
	s.Types = append(s.Types, t)
	return nil
}

// Type returns the named type, or nil if the schema does not declare it.
func (s *Schema) Type(name string) *Type {
	return s.byName[name]
}

// IsRoot reports whether t is one of the schema's root operation types,
// either by reference or by one of the conventional root names.
func (s *Schema) IsRoot(t *Type) bool {
	if t == nil {
		return false
	}
	if t == s.Query || t == s.Mutation || t == s.Subscription {
		return true
	}
	return IsRootName(t.Name)
}

// IsRootName reports whether name is Query, Mutation or Subscription,
// ignoring case.
func IsRootName(name string) bool {
	return strings.EqualFold(name, "Query") ||
		strings.EqualFold(name, "Mutation") ||
		strings.EqualFold(name, "Subscription")
}

// IsIntrospection reports whether name is reserved for introspection.
func IsIntrospection(name string) bool {
	return strings.HasPrefix(name, "__")
}
