package gen

import (
	"fmt"
	"path"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/gqlbind/schema"
)

// GoKind is the shape of a Go type expression.
type GoKind uint8

// Go type expression shapes.
const (
	GoNamed GoKind = iota
	GoSlice
	GoPointer
)

// GoType is a Go type expression: a named type, optionally imported, or a
// slice or pointer of another expression.
type GoType struct {
	Kind GoKind
	// Name and Path describe named types. Path is empty for predeclared and
	// local types.
	Name string
	Path string
	// Elem is the element of slices and pointers.
	Elem *GoType
}

// Named returns the named type path.Name.
func Named(path, name string) GoType {
	return GoType{Kind: GoNamed, Name: name, Path: path}
}

// SliceOf returns []elem.
func SliceOf(elem GoType) GoType {
	return GoType{Kind: GoSlice, Elem: &elem}
}

// PointerTo returns *elem.
func PointerTo(elem GoType) GoType {
	return GoType{Kind: GoPointer, Elem: &elem}
}

// IsPointer reports whether the outermost expression is a pointer.
func (t GoType) IsPointer() bool { return t.Kind == GoPointer }

// String returns the expression as written in Go source, using the last
// import path element as package qualifier.
func (t GoType) String() string {
	switch t.Kind {
	case GoSlice:
		return "[]" + t.Elem.String()
	case GoPointer:
		return "*" + t.Elem.String()
	default:
		if t.Path != "" {
			return path.Base(t.Path) + "." + t.Name
		}
		return t.Name
	}
}

// Code renders the expression with jennifer, so imports are tracked by the
// enclosing file.
func (t GoType) Code() *jen.Statement {
	switch t.Kind {
	case GoSlice:
		return jen.Index().Add(t.Elem.Code())
	case GoPointer:
		return jen.Op("*").Add(t.Elem.Code())
	default:
		if t.Path != "" {
			return jen.Qual(t.Path, t.Name)
		}
		return jen.Id(t.Name)
	}
}

// Paths returns the import paths the expression refers to.
func (t GoType) Paths() []string {
	for t.Kind != GoNamed {
		t = *t.Elem
	}
	if t.Path == "" {
		return nil
	}
	return []string{t.Path}
}

// builtinScalars is the fixed mapping of the GraphQL built-in scalars.
// Int and Float are 32 bit on purpose.
var builtinScalars = map[string]GoType{
	"ID":      Named("", "string"),
	"String":  Named("", "string"),
	"Boolean": Named("", "bool"),
	"Int":     Named("", "int32"),
	"Float":   Named("", "float32"),
}

// TypeMapper maps schema type references to Go type expressions.
type TypeMapper struct {
	scalars map[string]GoType
}

// NewTypeMapper returns a mapper for the built-in scalars plus the custom
// scalars of the config.
func NewTypeMapper(cfg *Config) (*TypeMapper, error) {
	m := &TypeMapper{scalars: make(map[string]GoType, len(builtinScalars))}
	for name, t := range builtinScalars {
		m.scalars[name] = t
	}
	if cfg == nil {
		return m, nil
	}
	for name, qualified := range cfg.Scalars {
		if _, ok := builtinScalars[name]; ok {
			return nil, NewConfigError("Scalars", name, "built-in scalars have a fixed mapping")
		}
		p, n, err := parseQualified(qualified)
		if err != nil {
			return nil, NewConfigError("Scalars", name, err.Error())
		}
		m.scalars[name] = Named(p, n)
	}
	return m, nil
}

// Map converts ref into a Go type expression. A reference without an outer
// non-null modifier is optional and maps to a pointer, lists included.
// Unions and interfaces have no Go mapping and unmapped scalars are
// rejected.
func (m *TypeMapper) Map(ref schema.TypeRef) (GoType, error) {
	optional := true
	if nn, ok := ref.(schema.NonNullRef); ok {
		ref, optional = nn.Of, false
	}
	base, err := m.base(ref)
	if err != nil {
		return GoType{}, err
	}
	if optional {
		return PointerTo(base), nil
	}
	return base, nil
}

func (m *TypeMapper) base(ref schema.TypeRef) (GoType, error) {
	switch r := ref.(type) {
	case schema.NonNullRef:
		return m.base(r.Of)
	case schema.ListRef:
		elem, err := m.Map(r.Of)
		if err != nil {
			return GoType{}, err
		}
		return SliceOf(elem), nil
	case schema.NamedRef:
		return m.named(r.Type)
	default:
		return GoType{}, NewSchemaError("", "", fmt.Sprintf("unknown type reference %T", ref), nil)
	}
}

func (m *TypeMapper) named(t *schema.Type) (GoType, error) {
	if t == nil {
		return GoType{}, NewSchemaError("", "", "reference to an undefined type", nil)
	}
	switch t.Kind {
	case schema.KindScalar:
		gt, ok := m.scalars[t.Name]
		if !ok {
			return GoType{}, NewSchemaError(t.Name, "", "unmapped scalar; add it to the scalar table", nil)
		}
		return gt, nil
	case schema.KindEnum, schema.KindInputObject, schema.KindObject:
		return Named("", t.Name), nil
	case schema.KindUnion, schema.KindInterface:
		return GoType{}, NewSchemaError(t.Name, "", fmt.Sprintf("%s types have no Go mapping", t.Kind), nil)
	default:
		return GoType{}, NewSchemaError(t.Name, "", fmt.Sprintf("unsupported kind %s", t.Kind), nil)
	}
}
