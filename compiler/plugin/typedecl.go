package plugin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/gqlgen/codegen/config"
	gqlplugin "github.com/99designs/gqlgen/plugin"
	"github.com/99designs/gqlgen/plugin/modelgen"
	"github.com/go-kit/log/level"
)

// TypeDeclConfig is the configuration of the typedecl plugin.
type TypeDeclConfig struct {
	// Package of the model file. Defaults to the output directory name.
	Package string `yaml:"package"`
	// Models binds schema types to existing Go types, as in gqlgen.yml.
	Models map[string]string `yaml:"models"`
}

// TypeDecl writes plain type declarations for the schema with gqlgen's
// model generator. Unlike the resolvers plugin it needs the go tool, which
// gqlgen uses to inspect the destination package.
type TypeDecl struct{}

// Name implements Plugin.
func (TypeDecl) Name() string { return NameTypeDecl }

// Generate implements Plugin. gqlgen reloads the schema from the files and
// the model generator writes the output itself.
func (TypeDecl) Generate(_ context.Context, req *Request) (*Output, error) {
	var tc TypeDeclConfig
	if err := req.Decode(&tc); err != nil {
		return nil, err
	}
	cfg, err := modelConfig(req, tc)
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadSchema(); err != nil {
		return nil, fmt.Errorf("typedecl: load schema: %w", err)
	}
	if err := cfg.Init(); err != nil {
		return nil, fmt.Errorf("typedecl: init gqlgen config: %w", err)
	}
	p := modelgen.New()
	mut, ok := p.(gqlplugin.ConfigMutator)
	if !ok {
		return nil, fmt.Errorf("typedecl: %s is not a config mutator", p.Name())
	}
	if err := mut.MutateConfig(cfg); err != nil {
		return nil, fmt.Errorf("typedecl: %s failed: %w", p.Name(), err)
	}
	level.Debug(req.logger()).Log("msg", "models generated", "path", cfg.Model.Filename)
	return &Output{Written: []string{cfg.Model.Filename}}, nil
}

// modelConfig builds the gqlgen configuration for a model-only run.
func modelConfig(req *Request, tc TypeDeclConfig) (*config.Config, error) {
	if len(req.Schema.Files) == 0 {
		return nil, errors.New("typedecl: the schema must be loaded from files")
	}
	pkg := tc.Package
	if pkg == "" {
		pkg = packageName(req.Output, "model")
	}
	dir := filepath.Dir(req.Output)

	cfg := config.DefaultConfig()
	cfg.SchemaFilename = config.StringList(req.Schema.Files)
	cfg.Model = config.PackageConfig{Filename: req.Output, Package: pkg}
	cfg.Exec = config.ExecConfig{Filename: filepath.Join(dir, "exec_generated.go"), Package: pkg}
	cfg.Resolver = config.ResolverConfig{}
	cfg.Models = config.TypeMap{}
	for name, model := range tc.Models {
		cfg.Models.Add(name, model)
	}
	return cfg, nil
}
