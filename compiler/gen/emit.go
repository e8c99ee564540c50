package gen

import (
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"slices"
	"strings"

	"github.com/99designs/gqlgen/codegen/templates"
	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/syssam/gqlbind/schema"
)

// Identifiers declared by the support declarations, plus the data source
// type the stub declares.
var reservedNames = []string{
	"Model",
	DefaultDataSource,
	"dataSourceKey",
	"WithDataSource",
	"DataSourceFromContext",
	"marshalEnum",
	"unmarshalEnum",
	"unmarshalInput",
}

// Argument names that would shadow identifiers used by resolver bodies.
var reservedArgs = map[string]bool{
	"_":                     true,
	"ctx":                   true,
	"obj":                   true,
	"root":                  true,
	"DataSourceFromContext": true,
}

// Emitter renders the main file: model declarations whose complex fields
// delegate to the data source. An Emitter is used for a single run.
type Emitter struct {
	cfg    *Config
	mapper *TypeMapper
	handle GoType
	ctx    *EmissionContext
	decls  []jen.Code
	// declared maps package scope identifiers to what declared them.
	declared map[string]string
	// methods holds the data source method names.
	methods members
}

// NewEmitter returns an emitter for one run.
func NewEmitter(cfg *Config) (*Emitter, error) {
	if cfg == nil {
		return nil, NewConfigError("Config", nil, "config cannot be nil")
	}
	mapper, err := NewTypeMapper(cfg)
	if err != nil {
		return nil, err
	}
	name := cfg.DataSource
	if name == "" {
		name = DefaultDataSource
	}
	p, n, err := parseQualified(name)
	if err != nil {
		return nil, NewConfigError("DataSource", name, err.Error())
	}
	e := &Emitter{
		cfg:      cfg,
		mapper:   mapper,
		handle:   Named(p, n),
		ctx:      NewEmissionContext(),
		declared: make(map[string]string),
		methods:  make(members),
	}
	for _, id := range reservedNames {
		e.declared[id] = "support declarations"
	}
	if p == "" {
		e.declared[n] = "data source"
	}
	for _, path := range importPaths(p, cfg.Scalars) {
		e.declared[importName(path)] = fmt.Sprintf("the import of %q", path)
	}
	return e, nil
}

// importPaths returns every package the generated files may import: the
// support imports, the qualified data source and the mapped scalar types.
func importPaths(dataSource string, scalars map[string]string) []string {
	var paths []string
	for _, p := range supportImports {
		paths = append(paths, p...)
	}
	if dataSource != "" {
		paths = append(paths, dataSource)
	}
	for _, goType := range scalars {
		if p, _, err := parseQualified(goType); err == nil && p != "" {
			paths = append(paths, p)
		}
	}
	slices.Sort(paths)
	return slices.Compact(paths)
}

// importName is the name jennifer gives the import of path: the last path
// element, lower cased, without non alphanumerics and leading digits.
func importName(path string) string {
	name := strings.ToLower(path[strings.LastIndex(path, "/")+1:])
	name = strings.Map(func(r rune) rune {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			return r
		}
		return -1
	}, name)
	name = strings.TrimLeft(name, "0123456789")
	if name == "" {
		return "pkg"
	}
	return name
}

// Context returns the emission context of the run.
func (e *Emitter) Context() *EmissionContext { return e.ctx }

// Emit renders the classified schema. Declarations follow a fixed order:
// enums, input objects, output objects, then the Query and Mutation roots.
// Support declarations are assembled from the context flags afterwards and
// placed first.
func (e *Emitter) Emit(c *Classification) (*jen.File, error) {
	if err := checkInputCycles(c.Inputs); err != nil {
		return nil, err
	}
	for _, t := range c.Enums {
		if err := e.enum(t); err != nil {
			return nil, err
		}
	}
	for _, t := range c.Inputs {
		if err := e.input(t); err != nil {
			return nil, err
		}
	}
	for _, obj := range c.Objects {
		if err := e.object(obj); err != nil {
			return nil, err
		}
	}
	for _, root := range []*RootType{c.Query, c.Mutation} {
		if root == nil {
			continue
		}
		if err := e.root(root); err != nil {
			return nil, err
		}
	}

	f := jen.NewFile(e.cfg.Package)
	if e.cfg.Header != "" {
		f.HeaderComment(e.cfg.Header)
	}
	for _, s := range e.ctx.Supports() {
		for _, d := range e.support(s) {
			f.Add(d).Line()
		}
	}
	for _, d := range e.decls {
		f.Add(d).Line()
	}
	return f, nil
}

func (e *Emitter) add(code ...jen.Code) {
	e.decls = append(e.decls, code...)
}

// declare registers a package scope identifier.
func (e *Emitter) declare(owner, field, id string) error {
	if !token.IsIdentifier(id) {
		return NewSchemaError(owner, field, fmt.Sprintf("%q is not a valid Go identifier", id), nil)
	}
	if types.Universe.Lookup(id) != nil {
		return NewSchemaError(owner, field, fmt.Sprintf("%s shadows a predeclared Go identifier", id), nil)
	}
	if prev, ok := e.declared[id]; ok {
		return NewSchemaError(owner, field, fmt.Sprintf("identifier %s collides with %s", id, prev), nil)
	}
	what := owner
	if field != "" {
		what += "." + field
	}
	e.declared[id] = what
	return nil
}

func (e *Emitter) mapField(owner, field string, ref schema.TypeRef) (GoType, error) {
	gt, err := e.mapper.Map(ref)
	if err != nil {
		return GoType{}, fieldError(owner, field, err)
	}
	return gt, nil
}

// fieldError attributes a mapping error to the field it came from.
func fieldError(owner, field string, err error) error {
	var se *SchemaError
	if errors.As(err, &se) && se.Field == "" {
		msg := se.Message
		if se.Type != "" && se.Type != owner {
			msg = se.Type + ": " + msg
		}
		return NewSchemaError(owner, field, msg, se.Cause)
	}
	return NewSchemaError(owner, field, "", err)
}

// EnumMember returns the Go constant name of an enum value.
func EnumMember(enum, value string) string {
	return enum + inflect.Camelize(strings.ToLower(value))
}

func (e *Emitter) enum(t *schema.Type) error {
	if len(t.Values) == 0 {
		return NewSchemaError(t.Name, "", "enum has no values", nil)
	}
	if err := e.declare(t.Name, "", t.Name); err != nil {
		return err
	}
	all := "All" + t.Name
	if err := e.declare(t.Name, "", all); err != nil {
		return err
	}
	var (
		defs   []jen.Code
		values []jen.Code
	)
	for _, v := range t.Values {
		id := EnumMember(t.Name, v)
		if err := e.declare(t.Name, v, id); err != nil {
			return err
		}
		defs = append(defs, jen.Id(id).Id(t.Name).Op("=").Lit(v))
		values = append(values, jen.Id(id))
	}
	e.ctx.HasEnums = true
	e.add(
		jen.Type().Id(t.Name).String(),
		jen.Const().Defs(defs...),
		jen.Var().Id(all).Op("=").Index().Id(t.Name).Values(values...),
		jen.Func().Params(jen.Id("e").Id(t.Name)).Id("IsValid").Params().Bool().Block(
			jen.Switch(jen.Id("e")).Block(
				jen.Case(values...).Block(jen.Return(jen.True())),
			),
			jen.Return(jen.False()),
		),
		jen.Func().Params(jen.Id("e").Id(t.Name)).Id("String").Params().String().Block(
			jen.Return(jen.String().Call(jen.Id("e"))),
		),
		jen.Func().Params(jen.Id("e").Op("*").Id(t.Name)).Id("UnmarshalGQL").Params(jen.Id("v").Any()).Error().Block(
			jen.List(jen.Id("s"), jen.Err()).Op(":=").Id("unmarshalEnum").Call(jen.Id("v"), jen.Lit(t.Name)),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err())),
			jen.Op("*").Id("e").Op("=").Id(t.Name).Call(jen.Id("s")),
			jen.If(jen.Op("!").Id("e").Dot("IsValid").Call()).Block(
				jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit("%s is not a valid "+t.Name), jen.Id("s"))),
			),
			jen.Return(jen.Nil()),
		),
		jen.Func().Params(jen.Id("e").Id(t.Name)).Id("MarshalGQL").Params(jen.Id("w").Qual("io", "Writer")).Block(
			jen.Id("marshalEnum").Call(jen.Id("w"), jen.String().Call(jen.Id("e"))),
		),
	)
	return nil
}

// members tracks the fields and methods of one struct type.
type members map[string]string

func (m members) add(owner, field, id string) error {
	if !token.IsIdentifier(id) {
		return NewSchemaError(owner, field, fmt.Sprintf("%q is not a valid Go identifier", id), nil)
	}
	if prev, ok := m[id]; ok {
		return NewSchemaError(owner, field, fmt.Sprintf("member %s collides with %s", id, prev), nil)
	}
	m[id] = field
	return nil
}

func (e *Emitter) input(t *schema.Type) error {
	if err := e.declare(t.Name, "", t.Name); err != nil {
		return err
	}
	m := members{"UnmarshalGQL": "UnmarshalGQL"}
	var fields []jen.Code
	for _, f := range t.Fields {
		id := templates.ToGo(f.Name)
		if err := m.add(t.Name, f.Name, id); err != nil {
			return err
		}
		gt, err := e.mapField(t.Name, f.Name, f.Type)
		if err != nil {
			return err
		}
		fields = append(fields, jen.Id(id).Add(gt.Code()).Tag(map[string]string{"json": f.Name}))
	}
	e.ctx.HasInputObjects = true
	e.add(
		jen.Type().Id(t.Name).Struct(fields...),
		jen.Func().Params(jen.Id("in").Op("*").Id(t.Name)).Id("UnmarshalGQL").Params(jen.Id("v").Any()).Error().Block(
			jen.Return(jen.Id("unmarshalInput").Call(jen.Id("v"), jen.Id("in"))),
		),
	)
	return nil
}

func (e *Emitter) object(obj *ObjectType) error {
	t := obj.Type
	if err := e.declare(t.Name, "", t.Name); err != nil {
		return err
	}
	m := members{"IsModel": "IsModel"}
	var fields []jen.Code
	for _, f := range obj.Simple {
		id := templates.ToGo(f.Name)
		if err := m.add(t.Name, f.Name, id); err != nil {
			return err
		}
		gt, err := e.mapField(t.Name, f.Name, f.Type)
		if err != nil {
			return err
		}
		fields = append(fields, jen.Id(id).Add(gt.Code()).Tag(map[string]string{"json": f.Name}))
	}
	if len(obj.Simple) > 0 {
		e.ctx.HasSimpleObjects = true
	}
	e.ctx.Objects = append(e.ctx.Objects, t.Name)
	e.add(jen.Type().Id(t.Name).Struct(fields...))
	for _, f := range obj.Complex {
		id := templates.ToGo(f.Name)
		if err := m.add(t.Name, f.Name, id); err != nil {
			return err
		}
		if err := e.resolver(t, f, "obj", id); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) root(root *RootType) error {
	t := root.Type
	if err := e.declare(t.Name, "", t.Name); err != nil {
		return err
	}
	e.ctx.HasComplexObjects = true
	e.add(jen.Type().Id(t.Name).Struct())
	m := members{}
	for _, f := range root.Fields {
		id := templates.ToGo(f.Name)
		if err := m.add(t.Name, f.Name, id); err != nil {
			return err
		}
		if err := e.resolver(t, f, "root", id); err != nil {
			return err
		}
	}
	return nil
}

// resolver emits a method that forwards the field to the data source and
// records the field for the stub.
func (e *Emitter) resolver(owner *schema.Type, f *schema.Field, recv, method string) error {
	sig, err := e.signature(owner, f)
	if err != nil {
		return err
	}
	params := []jen.Code{jen.Id("ctx").Qual("context", "Context")}
	call := []jen.Code{jen.Id("ctx"), jen.Id(recv)}
	for _, a := range sig.Args {
		params = append(params, jen.Id(a.Name).Add(a.Type.Code()))
		call = append(call, jen.Id(a.Name))
	}
	df := DataSourceField{Owner: owner, Field: f, Root: recv == "root"}
	if err := e.methods.add(owner.Name, f.Name, df.MethodName()); err != nil {
		return err
	}
	e.add(
		jen.Func().Params(jen.Id(recv).Op("*").Id(owner.Name)).Id(method).Params(params...).
			Params(sig.Result.Code(), jen.Error()).Block(
			jen.Return(jen.Id("DataSourceFromContext").Call(jen.Id("ctx")).Dot(df.MethodName()).Call(call...)),
		),
	)
	e.ctx.addField(df)
	return nil
}

// Param is a mapped resolver argument.
type Param struct {
	// Name is the Go parameter name.
	Name string
	// Schema is the argument name in the schema.
	Schema string
	Type   GoType
}

// Signature is the mapped signature of a data source field.
type Signature struct {
	Args   []Param
	Result GoType
}

func (e *Emitter) signature(owner *schema.Type, f *schema.Field) (*Signature, error) {
	return signature(e.mapper, owner, f)
}

func signature(m *TypeMapper, owner *schema.Type, f *schema.Field) (*Signature, error) {
	res, err := m.Map(f.Type)
	if err != nil {
		return nil, fieldError(owner.Name, f.Name, err)
	}
	sig := &Signature{Result: res}
	seen := make(map[string]string, len(f.Args))
	for _, a := range f.Args {
		name := ArgName(a.Name)
		if prev, ok := seen[name]; ok {
			return nil, NewSchemaError(owner.Name, f.Name, fmt.Sprintf("arguments %s and %s both map to %s", prev, a.Name, name), nil)
		}
		seen[name] = a.Name
		gt, err := m.Map(a.Type)
		if err != nil {
			return nil, fieldError(owner.Name, f.Name, err)
		}
		sig.Args = append(sig.Args, Param{Name: name, Schema: a.Name, Type: gt})
	}
	return sig, nil
}

// ArgName returns the Go parameter name of a schema argument. Keywords,
// predeclared identifiers and names used by resolver bodies get an Arg
// suffix.
func ArgName(name string) string {
	if token.IsKeyword(name) || reservedArgs[name] || types.Universe.Lookup(name) != nil {
		return name + "Arg"
	}
	return name
}

// checkInputCycles rejects input objects that contain themselves through
// non-null, non-list fields. Such structs have infinite size in Go.
func checkInputCycles(inputs []*schema.Type) error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*schema.Type]int, len(inputs))
	var visit func(t *schema.Type) error
	visit = func(t *schema.Type) error {
		state[t] = visiting
		for _, f := range t.Fields {
			nn, ok := f.Type.(schema.NonNullRef)
			if !ok {
				continue
			}
			named, ok := nn.Of.(schema.NamedRef)
			if !ok || named.Type == nil || named.Type.Kind != schema.KindInputObject {
				continue
			}
			switch state[named.Type] {
			case visiting:
				return NewSchemaError(t.Name, f.Name, "input object "+named.Type.Name+" contains itself through non-null fields", nil)
			case unvisited:
				if err := visit(named.Type); err != nil {
					return err
				}
			}
		}
		state[t] = done
		return nil
	}
	for _, t := range inputs {
		if state[t] == unvisited {
			if err := visit(t); err != nil {
				return err
			}
		}
	}
	return nil
}

// support returns the declarations of one support group.
func (e *Emitter) support(s Support) []jen.Code {
	switch s {
	case SupportEnums:
		return []jen.Code{
			jen.Func().Id("unmarshalEnum").Params(jen.Id("v").Any(), jen.Id("name").String()).Params(jen.String(), jen.Error()).Block(
				jen.List(jen.Id("s"), jen.Id("ok")).Op(":=").Id("v").Assert(jen.String()),
				jen.If(jen.Op("!").Id("ok")).Block(
					jen.Return(jen.Lit(""), jen.Qual("fmt", "Errorf").Call(jen.Lit("%s must be a string, got %T"), jen.Id("name"), jen.Id("v"))),
				),
				jen.Return(jen.Id("s"), jen.Nil()),
			),
			jen.Func().Id("marshalEnum").Params(jen.Id("w").Qual("io", "Writer"), jen.Id("s").String()).Block(
				jen.Qual("fmt", "Fprint").Call(jen.Id("w"), jen.Qual("strconv", "Quote").Call(jen.Id("s"))),
			),
		}
	case SupportInputs:
		return []jen.Code{
			jen.Func().Id("unmarshalInput").Params(jen.Id("v").Any(), jen.Id("dst").Any()).Error().Block(
				jen.List(jen.Id("buf"), jen.Err()).Op(":=").Qual("encoding/json", "Marshal").Call(jen.Id("v")),
				jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err())),
				jen.Return(jen.Qual("encoding/json", "Unmarshal").Call(jen.Id("buf"), jen.Id("dst"))),
			),
		}
	case SupportComplexObjects:
		handle := jen.Op("*").Add(e.handle.Code())
		return []jen.Code{
			jen.Type().Id("dataSourceKey").Struct(),
			jen.Comment("WithDataSource returns a context carrying the data source used by the resolvers.").Line().
				Func().Id("WithDataSource").Params(jen.Id("ctx").Qual("context", "Context"), jen.Id("ds").Add(handle.Clone())).Qual("context", "Context").Block(
				jen.Return(jen.Qual("context", "WithValue").Call(jen.Id("ctx"), jen.Id("dataSourceKey").Values(), jen.Id("ds"))),
			),
			jen.Comment("DataSourceFromContext returns the data source stored by WithDataSource. It panics if there is none.").Line().
				Func().Id("DataSourceFromContext").Params(jen.Id("ctx").Qual("context", "Context")).Add(handle.Clone()).Block(
				jen.List(jen.Id("ds"), jen.Id("ok")).Op(":=").Id("ctx").Dot("Value").Call(jen.Id("dataSourceKey").Values()).Assert(handle.Clone()),
				jen.If(jen.Op("!").Id("ok")).Block(
					jen.Panic(jen.Lit("gqlbind: no data source in context")),
				),
				jen.Return(jen.Id("ds")),
			),
		}
	case SupportSimpleObjects:
		code := []jen.Code{
			jen.Type().Id("Model").Interface(jen.Id("IsModel").Params()),
		}
		for _, name := range e.ctx.Objects {
			code = append(code, jen.Func().Params(jen.Id(name)).Id("IsModel").Params().Block())
		}
		return code
	default:
		return nil
	}
}
