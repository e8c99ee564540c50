package plugin

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/vektah/gqlparser/v2/ast"
)

// Introspection writes the schema as a standard introspection result,
// {"__schema": ...}, for tools that consume JSON instead of SDL.
type Introspection struct{}

// Name implements Plugin.
func (Introspection) Name() string { return NameIntrospection }

// Generate implements Plugin.
func (Introspection) Generate(_ context.Context, req *Request) (*Output, error) {
	data, err := IntrospectionJSON(req.Schema.AST)
	if err != nil {
		return nil, err
	}
	return &Output{Files: []File{{Path: req.Output, Content: data}}}, nil
}

// IntrospectionJSON encodes doc. Types and directives are sorted by name and
// the meta fields __schema and __type are left out of the query type.
func IntrospectionJSON(doc *ast.Schema) ([]byte, error) {
	b := &introBuilder{doc: doc}
	res := introResult{Schema: b.schema()}
	if b.err != nil {
		return nil, fmt.Errorf("introspection: %w", b.err)
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("introspection: %w", err)
	}
	return append(data, '\n'), nil
}

type (
	introResult struct {
		Schema introSchema `json:"__schema"`
	}
	introSchema struct {
		Description      *string          `json:"description"`
		QueryType        *introName       `json:"queryType"`
		MutationType     *introName       `json:"mutationType"`
		SubscriptionType *introName       `json:"subscriptionType"`
		Types            []introType      `json:"types"`
		Directives       []introDirective `json:"directives"`
	}
	introName struct {
		Name string `json:"name"`
	}
	introType struct {
		Kind          string           `json:"kind"`
		Name          string           `json:"name"`
		Description   *string          `json:"description"`
		Fields        []introField     `json:"fields"`
		InputFields   []introValue     `json:"inputFields"`
		Interfaces    []introRef       `json:"interfaces"`
		EnumValues    []introEnumValue `json:"enumValues"`
		PossibleTypes []introRef       `json:"possibleTypes"`
	}
	introField struct {
		Name              string       `json:"name"`
		Description       *string      `json:"description"`
		Args              []introValue `json:"args"`
		Type              introRef     `json:"type"`
		IsDeprecated      bool         `json:"isDeprecated"`
		DeprecationReason *string      `json:"deprecationReason"`
	}
	introValue struct {
		Name         string   `json:"name"`
		Description  *string  `json:"description"`
		Type         introRef `json:"type"`
		DefaultValue *string  `json:"defaultValue"`
	}
	introEnumValue struct {
		Name              string  `json:"name"`
		Description       *string `json:"description"`
		IsDeprecated      bool    `json:"isDeprecated"`
		DeprecationReason *string `json:"deprecationReason"`
	}
	introDirective struct {
		Name         string       `json:"name"`
		Description  *string      `json:"description"`
		Locations    []string     `json:"locations"`
		Args         []introValue `json:"args"`
		IsRepeatable bool         `json:"isRepeatable"`
	}
	// introRef is one link of a type reference. The wrapped reference is
	// kept encoded so the type does not refer to itself.
	introRef struct {
		Kind   string          `json:"kind"`
		Name   *string         `json:"name"`
		OfType json.RawMessage `json:"ofType"`
	}
)

var jsonNull = json.RawMessage("null")

// introBuilder converts a schema and keeps the first encoding error.
type introBuilder struct {
	doc *ast.Schema
	err error
}

func (b *introBuilder) schema() introSchema {
	doc := b.doc
	s := introSchema{
		Description:      optional(doc.Description),
		QueryType:        rootName(doc.Query),
		MutationType:     rootName(doc.Mutation),
		SubscriptionType: rootName(doc.Subscription),
		Types:            []introType{},
		Directives:       []introDirective{},
	}
	names := make([]string, 0, len(doc.Types))
	for name := range doc.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.Types = append(s.Types, b.typ(doc.Types[name]))
	}
	names = names[:0]
	for name := range doc.Directives {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d := doc.Directives[name]
		dir := introDirective{
			Name:         d.Name,
			Description:  optional(d.Description),
			Locations:    make([]string, 0, len(d.Locations)),
			Args:         b.args(d.Arguments),
			IsRepeatable: d.IsRepeatable,
		}
		for _, loc := range d.Locations {
			dir.Locations = append(dir.Locations, string(loc))
		}
		s.Directives = append(s.Directives, dir)
	}
	return s
}

func (b *introBuilder) typ(def *ast.Definition) introType {
	t := introType{
		Kind:        string(def.Kind),
		Name:        def.Name,
		Description: optional(def.Description),
	}
	switch def.Kind {
	case ast.Object, ast.Interface:
		t.Fields = []introField{}
		for _, f := range def.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			reason, deprecated := deprecation(f.Directives)
			t.Fields = append(t.Fields, introField{
				Name:              f.Name,
				Description:       optional(f.Description),
				Args:              b.args(f.Arguments),
				Type:              b.ref(f.Type),
				IsDeprecated:      deprecated,
				DeprecationReason: reason,
			})
		}
		t.Interfaces = []introRef{}
		for _, name := range def.Interfaces {
			t.Interfaces = append(t.Interfaces, b.named(name))
		}
		if def.Kind == ast.Interface {
			t.PossibleTypes = b.possibleTypes(def)
		}
	case ast.Union:
		t.PossibleTypes = b.possibleTypes(def)
	case ast.Enum:
		t.EnumValues = []introEnumValue{}
		for _, v := range def.EnumValues {
			reason, deprecated := deprecation(v.Directives)
			t.EnumValues = append(t.EnumValues, introEnumValue{
				Name:              v.Name,
				Description:       optional(v.Description),
				IsDeprecated:      deprecated,
				DeprecationReason: reason,
			})
		}
	case ast.InputObject:
		t.InputFields = []introValue{}
		for _, f := range def.Fields {
			t.InputFields = append(t.InputFields, introValue{
				Name:         f.Name,
				Description:  optional(f.Description),
				Type:         b.ref(f.Type),
				DefaultValue: defaultValue(f.DefaultValue),
			})
		}
	}
	return t
}

func (b *introBuilder) args(args ast.ArgumentDefinitionList) []introValue {
	values := make([]introValue, 0, len(args))
	for _, a := range args {
		values = append(values, introValue{
			Name:         a.Name,
			Description:  optional(a.Description),
			Type:         b.ref(a.Type),
			DefaultValue: defaultValue(a.DefaultValue),
		})
	}
	return values
}

func (b *introBuilder) possibleTypes(def *ast.Definition) []introRef {
	defs := b.doc.GetPossibleTypes(def)
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	refs := make([]introRef, 0, len(names))
	for _, name := range names {
		refs = append(refs, b.named(name))
	}
	return refs
}

func (b *introBuilder) ref(t *ast.Type) introRef {
	if t.NonNull {
		inner := *t
		inner.NonNull = false
		return b.wrap("NON_NULL", b.ref(&inner))
	}
	if t.Elem != nil {
		return b.wrap("LIST", b.ref(t.Elem))
	}
	return b.named(t.NamedType)
}

func (b *introBuilder) wrap(kind string, of introRef) introRef {
	data, err := json.Marshal(of)
	if err != nil && b.err == nil {
		b.err = err
	}
	return introRef{Kind: kind, OfType: data}
}

func (b *introBuilder) named(name string) introRef {
	ref := introRef{Name: &name, OfType: jsonNull}
	if def := b.doc.Types[name]; def != nil {
		ref.Kind = string(def.Kind)
	}
	return ref
}

func rootName(def *ast.Definition) *introName {
	if def == nil {
		return nil
	}
	return &introName{Name: def.Name}
}

// deprecation returns the @deprecated reason, with the default reason of
// the directive when none is given.
func deprecation(dirs ast.DirectiveList) (*string, bool) {
	d := dirs.ForName("deprecated")
	if d == nil {
		return nil, false
	}
	reason := "No longer supported"
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		reason = arg.Value.Raw
	}
	return &reason, true
}

func defaultValue(v *ast.Value) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
