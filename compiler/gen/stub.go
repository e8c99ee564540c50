package gen

import (
	"github.com/dave/jennifer/jen"
)

// StubFilename is the name of the data source stub, written next to the
// main file.
const StubFilename = "datasource_impl.go"

// GenerateStub renders the data source stub: one method per recorded field,
// each panicking until it is implemented. A qualified data source cannot be
// given methods in the generated package, so its stub is excluded from
// builds and serves as a template.
func GenerateStub(cfg *Config, ctx *EmissionContext) (*jen.File, error) {
	if cfg == nil {
		return nil, NewConfigError("Config", nil, "config cannot be nil")
	}
	name := cfg.DataSource
	if name == "" {
		name = DefaultDataSource
	}
	path, typ, err := parseQualified(name)
	if err != nil {
		return nil, NewConfigError("DataSource", name, err.Error())
	}
	mapper, err := NewTypeMapper(cfg)
	if err != nil {
		return nil, err
	}

	f := jen.NewFile(cfg.Package)
	if path != "" {
		f.HeaderComment("//go:build ignore")
	}
	f.HeaderComment("Code generated by gqlbind. Replace the panics with the resolver logic.")
	f.Comment(typ + " resolves the fields that are not stored on the models.").Line().
		Type().Id(typ).Struct()
	f.Line()
	for _, df := range ctx.Fields {
		sig, err := signature(mapper, df.Owner, df.Field)
		if err != nil {
			return nil, err
		}
		owner := "_obj"
		if df.Root {
			owner = "_root"
		}
		params := []jen.Code{
			jen.Id("_ctx").Qual("context", "Context"),
			jen.Id(owner).Op("*").Id(df.Owner.Name),
		}
		for _, a := range sig.Args {
			params = append(params, jen.Id("_"+a.Name).Add(a.Type.Code()))
		}
		method := df.MethodName()
		f.Func().Params(jen.Id("ds").Op("*").Id(typ)).Id(method).Params(params...).
			Params(sig.Result.Code(), jen.Error()).Block(
			jen.Panic(jen.Lit("gqlbind: " + method + " not implemented")),
		)
		f.Line()
	}
	return f, nil
}
