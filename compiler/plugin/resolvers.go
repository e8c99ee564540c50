package plugin

import (
	"context"
	"go/token"
	"path/filepath"
	"strings"

	"github.com/go-kit/log/level"

	"github.com/syssam/gqlbind/compiler/gen"
)

// ResolversConfig is the configuration of the resolvers plugin.
type ResolversConfig struct {
	// Package of the generated files. Defaults to the output directory name.
	Package string `yaml:"package"`
	// DataSource is the data source type, local or "import/path.Name".
	DataSource string `yaml:"dataSource"`
	// Scalars maps custom scalars to qualified Go types.
	Scalars map[string]string `yaml:"scalars"`
	// Header replaces the generated file header.
	Header string `yaml:"header"`
}

// Options converts the configuration into generator options for a main
// file written to output.
func (c ResolversConfig) Options(output string) []gen.Option {
	pkg := c.Package
	if pkg == "" {
		pkg = packageName(output, gen.DefaultPackage)
	}
	opts := []gen.Option{gen.WithPackage(pkg)}
	if c.DataSource != "" {
		opts = append(opts, gen.WithDataSource(c.DataSource))
	}
	if len(c.Scalars) > 0 {
		opts = append(opts, gen.WithScalars(c.Scalars))
	}
	if c.Header != "" {
		opts = append(opts, gen.WithHeader(c.Header))
	}
	return opts
}

// Resolvers renders the model and resolver source to the output path and
// the data source stub next to it.
type Resolvers struct{}

// Name implements Plugin.
func (Resolvers) Name() string { return NameResolvers }

// Generate implements Plugin.
func (Resolvers) Generate(_ context.Context, req *Request) (*Output, error) {
	var rc ResolversConfig
	if err := req.Decode(&rc); err != nil {
		return nil, err
	}
	cfg, err := gen.NewConfig(rc.Options(req.Output)...)
	if err != nil {
		return nil, err
	}
	art, err := gen.Generate(req.Schema.Model, cfg)
	if err != nil {
		return nil, err
	}
	logExcluded(req, art.Classification)
	return &Output{Files: []File{
		{Path: req.Output, Content: art.Main},
		{Path: gen.StubPath(req.Output), Content: art.Stub},
	}}, nil
}

// logExcluded reports every union or interface field left out of the
// generated code.
func logExcluded(req *Request, c *gen.Classification) {
	logger := level.Debug(req.logger())
	for _, obj := range c.Objects {
		for _, f := range obj.Excluded {
			logger.Log("msg", "field excluded", "type", obj.Type.Name, "field", f.Name, "reason", "abstract type")
		}
	}
	for _, root := range []*gen.RootType{c.Query, c.Mutation} {
		if root == nil {
			continue
		}
		for _, f := range root.Excluded {
			logger.Log("msg", "field excluded", "type", root.Type.Name, "field", f.Name, "reason", "abstract type")
		}
	}
}

// packageName derives a package name from the directory of output, falling
// back to def when the directory name is not an identifier.
func packageName(output, def string) string {
	dir, err := filepath.Abs(filepath.Dir(output))
	if err != nil {
		return def
	}
	name := strings.ToLower(strings.ReplaceAll(filepath.Base(dir), "-", "_"))
	if !token.IsIdentifier(name) || token.IsKeyword(name) {
		return def
	}
	return name
}
