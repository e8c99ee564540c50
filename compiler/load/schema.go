// Package load parses GraphQL SDL sources and converts them into the
// generator's schema model.
package load

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/gqlbind/schema"
)

// Schema is a schema loaded from SDL sources. It keeps the parsed AST next to
// the converted model so plugins that need the raw document (introspection,
// query validation) can use it.
type Schema struct {
	// Files are the resolved schema file paths, in load order.
	Files []string
	// Sources are the SDL sources, in load order.
	Sources []*ast.Source
	// AST is the validated gqlparser schema.
	AST *ast.Schema
	// Model is the converted schema.
	Model *schema.Schema
}

// Files loads the schema from the files matched by the given glob patterns.
// Matches are de-duplicated and sorted per pattern; patterns are loaded in the
// given order.
func Files(patterns ...string) (*Schema, error) {
	files, err := Glob(patterns...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("load: no schema files match %v", patterns)
	}
	srcs := make([]*ast.Source, 0, len(files))
	for _, name := range files {
		buf, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("load: read schema: %w", err)
		}
		srcs = append(srcs, &ast.Source{Name: name, Input: string(buf)})
	}
	s, err := Sources(srcs...)
	if err != nil {
		return nil, err
	}
	s.Files = files
	return s, nil
}

// Sources parses and validates the given SDL sources.
func Sources(srcs ...*ast.Source) (*Schema, error) {
	doc, err := gqlparser.LoadSchema(srcs...)
	if err != nil {
		return nil, fmt.Errorf("load: parse schema: %w", err)
	}
	model, err := convert(doc, sourceOrder(srcs))
	if err != nil {
		return nil, err
	}
	return &Schema{Sources: srcs, AST: doc, Model: model}, nil
}

// FromAST converts an already validated gqlparser schema, for example the one
// gqlgen loaded into its config.
func FromAST(doc *ast.Schema) (*schema.Schema, error) {
	if doc == nil {
		return nil, fmt.Errorf("load: nil schema")
	}
	return convert(doc, nil)
}

// Glob expands the patterns into a de-duplicated list of file names. Patterns
// may use ** to match any number of directories.
func Glob(patterns ...string) ([]string, error) {
	var (
		files []string
		seen  = make(map[string]bool)
	)
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("load: bad pattern %q: %w", p, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

func sourceOrder(srcs []*ast.Source) map[*ast.Source]int {
	order := make(map[*ast.Source]int, len(srcs))
	for i, src := range srcs {
		order[src] = i
	}
	return order
}

// convert builds the model in two passes: named types first, then fields,
// so that references between types can be resolved in any order.
func convert(doc *ast.Schema, order map[*ast.Source]int) (*schema.Schema, error) {
	defs := make([]*ast.Definition, 0, len(doc.Types))
	for _, def := range doc.Types {
		defs = append(defs, def)
	}
	if order == nil {
		order = discoverOrder(defs)
	}
	sort.Slice(defs, func(i, j int) bool {
		return declaredBefore(defs[i], defs[j], order)
	})

	s := schema.New()
	for _, def := range defs {
		kind, err := convertKind(def.Kind)
		if err != nil {
			return nil, fmt.Errorf("load: type %s: %w", def.Name, err)
		}
		t := &schema.Type{
			Name:    def.Name,
			Kind:    kind,
			Members: append([]string(nil), def.Types...),
			BuiltIn: def.BuiltIn,
		}
		for _, v := range def.EnumValues {
			t.Values = append(t.Values, v.Name)
		}
		if err := s.Add(t); err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
	}
	for _, def := range defs {
		t := s.Type(def.Name)
		for _, fd := range def.Fields {
			if schema.IsIntrospection(fd.Name) {
				continue
			}
			ref, err := convertRef(s, fd.Type)
			if err != nil {
				return nil, fmt.Errorf("load: field %s.%s: %w", def.Name, fd.Name, err)
			}
			f := &schema.Field{Name: fd.Name, Type: ref}
			for _, ad := range fd.Arguments {
				aref, err := convertRef(s, ad.Type)
				if err != nil {
					return nil, fmt.Errorf("load: argument %s.%s(%s): %w", def.Name, fd.Name, ad.Name, err)
				}
				f.Args = append(f.Args, &schema.Arg{Name: ad.Name, Type: aref})
			}
			t.Fields = append(t.Fields, f)
		}
	}
	if doc.Query != nil {
		s.Query = s.Type(doc.Query.Name)
	}
	if doc.Mutation != nil {
		s.Mutation = s.Type(doc.Mutation.Name)
	}
	if doc.Subscription != nil {
		s.Subscription = s.Type(doc.Subscription.Name)
	}
	return s, nil
}

func convertKind(k ast.DefinitionKind) (schema.Kind, error) {
	switch k {
	case ast.Scalar:
		return schema.KindScalar, nil
	case ast.Enum:
		return schema.KindEnum, nil
	case ast.InputObject:
		return schema.KindInputObject, nil
	case ast.Object:
		return schema.KindObject, nil
	case ast.Union:
		return schema.KindUnion, nil
	case ast.Interface:
		return schema.KindInterface, nil
	default:
		return schema.KindInvalid, fmt.Errorf("unknown definition kind %q", k)
	}
}

func convertRef(s *schema.Schema, t *ast.Type) (schema.TypeRef, error) {
	if t == nil {
		return nil, fmt.Errorf("missing type")
	}
	var ref schema.TypeRef
	if t.NamedType != "" {
		named := s.Type(t.NamedType)
		if named == nil {
			return nil, fmt.Errorf("undefined type %s", t.NamedType)
		}
		ref = schema.Named(named)
	} else {
		elem, err := convertRef(s, t.Elem)
		if err != nil {
			return nil, err
		}
		ref = schema.ListOf(elem)
	}
	if t.NonNull {
		ref = schema.NonNull(ref)
	}
	return ref, nil
}

// declaredBefore orders user definitions by source and offset. Built-in
// definitions, and definitions without a position, sort last by name.
func declaredBefore(a, b *ast.Definition, order map[*ast.Source]int) bool {
	ra, rb := rank(a, order), rank(b, order)
	if ra != rb {
		return ra < rb
	}
	if ra == 0 {
		ia, ib := order[a.Position.Src], order[b.Position.Src]
		if ia != ib {
			return ia < ib
		}
		if a.Position.Start != b.Position.Start {
			return a.Position.Start < b.Position.Start
		}
	}
	return a.Name < b.Name
}

func rank(def *ast.Definition, order map[*ast.Source]int) int {
	if def.BuiltIn {
		return 2
	}
	if def.Position == nil || def.Position.Src == nil {
		return 1
	}
	if _, ok := order[def.Position.Src]; !ok {
		return 1
	}
	return 0
}

// discoverOrder orders the user sources referenced by defs by name. It is
// used when the caller did not supply the load order.
func discoverOrder(defs []*ast.Definition) map[*ast.Source]int {
	var srcs []*ast.Source
	seen := make(map[*ast.Source]bool)
	for _, def := range defs {
		if def.BuiltIn || def.Position == nil || def.Position.Src == nil || seen[def.Position.Src] {
			continue
		}
		seen[def.Position.Src] = true
		srcs = append(srcs, def.Position.Src)
	}
	sort.SliceStable(srcs, func(i, j int) bool { return srcs[i].Name < srcs[j].Name })
	return sourceOrder(srcs)
}
