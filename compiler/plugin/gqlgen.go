package plugin

import (
	"context"
	"fmt"

	"github.com/99designs/gqlgen/codegen/config"
	gqlplugin "github.com/99designs/gqlgen/plugin"
	"github.com/go-kit/log"

	"github.com/syssam/gqlbind/compiler/format"
	"github.com/syssam/gqlbind/compiler/gen"
	"github.com/syssam/gqlbind/compiler/load"
)

// GQLGen runs the resolvers generator inside gqlgen:
//
//	api.Generate(cfg, api.AddPlugin(&plugin.GQLGen{Output: "graph/resolvers_gen.go"}))
type GQLGen struct {
	// Output is the main file path. The stub is written next to it.
	Output string
	// Config configures the generator.
	Config ResolversConfig
	// Writer writes the files. The zero value writes through gofmt.
	Writer *format.Writer
	// Logger defaults to a no-op logger.
	Logger log.Logger
}

var (
	_ gqlplugin.Plugin        = (*GQLGen)(nil)
	_ gqlplugin.ConfigMutator = (*GQLGen)(nil)
)

// Name implements the gqlgen plugin interface.
func (p *GQLGen) Name() string { return "gqlbind" }

// MutateConfig implements gqlgen's ConfigMutator. It only reads the schema
// gqlgen loaded and leaves the configuration unchanged.
func (p *GQLGen) MutateConfig(cfg *config.Config) error {
	if p.Output == "" {
		return gen.NewConfigError("Output", p.Output, "output path is required")
	}
	s, err := load.FromAST(cfg.Schema)
	if err != nil {
		return err
	}
	gcfg, err := gen.NewConfig(p.Config.Options(p.Output)...)
	if err != nil {
		return err
	}
	art, err := gen.Generate(s, gcfg)
	if err != nil {
		return err
	}
	w := p.Writer
	if w == nil {
		w = format.NewWriter(format.Gofmt(), p.Logger)
	}
	ctx := context.Background()
	for _, f := range []File{
		{Path: p.Output, Content: art.Main},
		{Path: gen.StubPath(p.Output), Content: art.Stub},
	} {
		if _, err := w.Write(ctx, f.Path, f.Content); err != nil {
			return fmt.Errorf("gqlbind: write %s: %w", f.Path, err)
		}
	}
	return nil
}
