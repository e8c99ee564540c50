package plugin

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/gqlgen/codegen/templates"
	"github.com/dave/jennifer/jen"
	"github.com/go-kit/log/level"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/syssam/gqlbind/compiler/gen"
)

// DocumentsConfig is the configuration of the documents plugin.
type DocumentsConfig struct {
	// Package of the generated file. Defaults to the output directory name.
	Package string `yaml:"package"`
	// Header replaces the generated file header.
	Header string `yaml:"header"`
}

// Operation is a validated client operation.
type Operation struct {
	Name      string
	Kind      ast.Operation
	Variables []string
	// Document holds the operation and every fragment it spreads,
	// directly or through other fragments.
	Document string
}

// GoName is the identifier of the generated operation value, the operation
// name followed by its kind unless the name already ends with it.
func (op *Operation) GoName() string {
	name := templates.ToGo(op.Name)
	suffix := templates.ToGo(string(op.Kind))
	if strings.HasSuffix(name, suffix) {
		return name
	}
	return name + suffix
}

// Documents validates the client query documents against the schema and
// emits one Operation value per named operation.
type Documents struct{}

// Name implements Plugin.
func (Documents) Name() string { return NameDocuments }

// Generate implements Plugin.
func (Documents) Generate(_ context.Context, req *Request) (*Output, error) {
	var dc DocumentsConfig
	if err := req.Decode(&dc); err != nil {
		return nil, err
	}
	srcs := make([]*ast.Source, 0, len(req.Documents))
	for _, name := range req.Documents {
		buf, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("documents: read %s: %w", name, err)
		}
		srcs = append(srcs, &ast.Source{Name: name, Input: string(buf)})
	}
	ops, err := ParseOperations(req.Schema.AST, srcs...)
	if err != nil {
		return nil, err
	}
	level.Debug(req.logger()).Log("msg", "operations loaded", "documents", len(srcs), "operations", len(ops))

	pkg := dc.Package
	if pkg == "" {
		pkg = packageName(req.Output, "client")
	}
	header := dc.Header
	if header == "" {
		header = gen.DefaultHeader
	}
	f, err := OperationsFile(pkg, header, ops)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, gen.NewGenerationError("render", req.Output, "generated source is invalid", err)
	}
	return &Output{Files: []File{{Path: req.Output, Content: buf.Bytes()}}}, nil
}

// ParseOperations parses the sources as one document, validates it against
// schema and returns the operations in source order.
func ParseOperations(schema *ast.Schema, srcs ...*ast.Source) ([]*Operation, error) {
	doc := &ast.QueryDocument{}
	for _, src := range srcs {
		part, err := parser.ParseQuery(src)
		if err != nil {
			return nil, fmt.Errorf("documents: parse %s: %w", src.Name, err)
		}
		doc.Operations = append(doc.Operations, part.Operations...)
		doc.Fragments = append(doc.Fragments, part.Fragments...)
	}
	if errs := validator.ValidateWithRules(schema, doc, nil); len(errs) > 0 {
		return nil, fmt.Errorf("documents: %w", errs)
	}
	ops := make([]*Operation, 0, len(doc.Operations))
	for _, od := range doc.Operations {
		if od.Name == "" {
			return nil, gen.NewSchemaError("", "", fmt.Sprintf("anonymous %s in %s; client operations must be named", od.Operation, sourceName(od.Position)), nil)
		}
		op := &Operation{Name: od.Name, Kind: od.Operation}
		for _, v := range od.VariableDefinitions {
			op.Variables = append(op.Variables, v.Variable)
		}
		var buf bytes.Buffer
		formatter.NewFormatter(&buf, formatter.WithIndent("  ")).FormatQueryDocument(&ast.QueryDocument{
			Operations: ast.OperationList{od},
			Fragments:  spreads(doc.Fragments, od.SelectionSet),
		})
		op.Document = buf.String()
		ops = append(ops, op)
	}
	return ops, nil
}

// spreads returns the fragments reachable from set in order of first use.
func spreads(all ast.FragmentDefinitionList, set ast.SelectionSet) ast.FragmentDefinitionList {
	var (
		used ast.FragmentDefinitionList
		seen = make(map[string]bool)
		walk func(ast.SelectionSet)
	)
	walk = func(set ast.SelectionSet) {
		for _, sel := range set {
			switch sel := sel.(type) {
			case *ast.Field:
				walk(sel.SelectionSet)
			case *ast.InlineFragment:
				walk(sel.SelectionSet)
			case *ast.FragmentSpread:
				if seen[sel.Name] {
					continue
				}
				seen[sel.Name] = true
				if def := all.ForName(sel.Name); def != nil {
					used = append(used, def)
					walk(def.SelectionSet)
				}
			}
		}
	}
	walk(set)
	return used
}

// OperationsFile renders the operations as Go values. Two operations that
// map to the same identifier are a SchemaError.
func OperationsFile(pkg, header string, ops []*Operation) (*jen.File, error) {
	f := jen.NewFile(pkg)
	f.HeaderComment(header)
	f.Comment("Operation is a named GraphQL operation with its normalised document.")
	f.Type().Id("Operation").Struct(
		jen.Id("Name").String(),
		jen.Id("Kind").String(),
		jen.Id("Variables").Index().String(),
		jen.Id("Document").String(),
	)
	byName := jen.Dict{}
	owners := make(map[string]string, len(ops))
	for _, op := range ops {
		id := op.GoName()
		if prev, ok := owners[id]; ok {
			return nil, gen.NewSchemaError("", "", fmt.Sprintf("operations %s and %s both map to %s", prev, op.Name, id), nil)
		}
		owners[id] = op.Name
		fields := jen.Dict{
			jen.Id("Name"):     jen.Lit(op.Name),
			jen.Id("Kind"):     jen.Lit(string(op.Kind)),
			jen.Id("Document"): jen.Lit(op.Document),
		}
		if len(op.Variables) > 0 {
			fields[jen.Id("Variables")] = jen.Index().String().ValuesFunc(func(g *jen.Group) {
				for _, v := range op.Variables {
					g.Lit(v)
				}
			})
		}
		f.Line()
		f.Commentf("%s is the %s %s.", id, op.Kind, op.Name)
		f.Var().Id(id).Op("=").Id("Operation").Values(fields)
		byName[jen.Lit(op.Name)] = jen.Id(id)
	}
	f.Line()
	f.Comment("Operations maps operation names to operations.")
	f.Var().Id("Operations").Op("=").Map(jen.String()).Id("Operation").Values(byName)
	return f, nil
}

func sourceName(pos *ast.Position) string {
	if pos == nil || pos.Src == nil || pos.Src.Name == "" {
		return "documents"
	}
	return pos.Src.Name
}
