package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/gqlbind"
	"github.com/syssam/gqlbind/compiler/format"
	"github.com/syssam/gqlbind/compiler/gen"
	"github.com/syssam/gqlbind/compiler/load"
	"github.com/syssam/gqlbind/compiler/plugin"
)

// Driver runs the plugins of one mode and writes their output.
type Driver struct {
	cfg    *Config
	mode   Mode
	loader plugin.Loader
	logger log.Logger
	writer *format.Writer

	formatter       format.Formatter
	customFormatter bool
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithMode overrides the mode read from the environment.
func WithMode(m Mode) DriverOption {
	return func(d *Driver) { d.mode = m }
}

// WithLoader sets the plugin loader. It defaults to plugin.Default().
func WithLoader(l plugin.Loader) DriverOption {
	return func(d *Driver) { d.loader = l }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) DriverOption {
	return func(d *Driver) { d.logger = l }
}

// WithFormatter overrides the configured formatter. A nil formatter writes
// files unformatted.
func WithFormatter(f format.Formatter) DriverOption {
	return func(d *Driver) { d.formatter, d.customFormatter = f, true }
}

// NewDriver returns a driver for cfg.
func NewDriver(cfg *Config, opts ...DriverOption) *Driver {
	d := &Driver{
		cfg:    cfg,
		mode:   ModeFromEnv(),
		loader: plugin.Default(),
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if !d.customFormatter {
		d.formatter = cfg.NewFormatter()
	}
	// Files of one plugin are written concurrently.
	d.logger = log.NewSyncLogger(d.logger)
	d.writer = format.NewWriter(d.formatter, d.logger)
	return d
}

// Mode returns the mode the driver runs in.
func (d *Driver) Mode() Mode { return d.mode }

// Report summarises a run.
type Report struct {
	RunID string
	Mode  Mode
	// Files are the files written through the format cycle.
	Files []*format.Result
	// Written are files plugins wrote themselves.
	Written []string
	// Warnings are formatter failures that did not stop the run.
	Warnings []error
}

type job struct {
	output  string
	plugins []plugin.Plugin
	config  Output
}

// Run generates every output of the driver's mode. Plugins are resolved
// before the schema is read, so a misspelt plugin name fails fast.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString(), Mode: d.mode}
	logger := log.With(d.logger, "run_id", report.RunID, "mode", d.mode)

	target := d.cfg.Target(d.mode)
	var (
		jobs []job
		errs []error
	)
	for _, path := range target.Outputs() {
		out := target.Generates[path]
		plugins, err := plugin.Resolve(d.loader, path, out.Plugins)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		jobs = append(jobs, job{output: d.cfg.Path(path), plugins: plugins, config: out})
	}
	if err := gqlbind.NewAggregateError(errs...); err != nil {
		level.Error(logger).Log("msg", "plugin resolution failed", "err", err)
		return nil, err
	}

	s, err := load.Files(d.cfg.Paths(d.cfg.Schema)...)
	if err != nil {
		return nil, err
	}
	level.Debug(logger).Log("msg", "schema loaded", "files", len(s.Files), "types", len(s.Model.Types))
	var documents []string
	if d.mode == ModeClient {
		if documents, err = load.Glob(d.cfg.Paths(d.cfg.Documents)...); err != nil {
			return nil, err
		}
	}

	for _, j := range jobs {
		for _, p := range j.plugins {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			req := &plugin.Request{
				Schema:    s,
				Output:    j.output,
				Config:    &j.config.Config,
				Documents: documents,
				Logger:    log.With(logger, "plugin", p.Name(), "output", j.output),
			}
			out, err := p.Generate(ctx, req)
			if err != nil {
				level.Error(logger).Log("msg", "plugin failed", "plugin", p.Name(), "output", j.output, "kind", errorKind(err), "err", err)
				return nil, fmt.Errorf("gqlbind: %s for %s: %w", p.Name(), j.output, err)
			}
			if err := d.write(ctx, report, out); err != nil {
				return nil, err
			}
		}
	}
	level.Info(logger).Log("msg", "generation finished", "outputs", len(jobs), "files", len(report.Files)+len(report.Written), "warnings", len(report.Warnings), "duration", time.Since(start))
	return report, nil
}

// write formats and stores the files of one plugin output concurrently.
// The report lists them in the order the plugin returned them.
func (d *Driver) write(ctx context.Context, report *Report, out *plugin.Output) error {
	if out == nil {
		return nil
	}
	results := make([]*format.Result, len(out.Files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range out.Files {
		g.Go(func() error {
			res, err := d.writer.Write(gctx, f.Path, f.Content)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, res := range results {
		report.Files = append(report.Files, res)
		if res.Warning != nil {
			report.Warnings = append(report.Warnings, res.Warning)
		}
	}
	report.Written = append(report.Written, out.Written...)
	return nil
}

// Patterns returns the input patterns of the driver's mode.
func (d *Driver) Patterns() []string {
	patterns := d.cfg.Paths(d.cfg.Schema)
	if d.mode == ModeClient {
		patterns = append(patterns, d.cfg.Paths(d.cfg.Documents)...)
	}
	return patterns
}

// errorKind names the class of a plugin failure for the log.
func errorKind(err error) string {
	switch {
	case gen.IsSchemaError(err):
		return "schema"
	case gen.IsConfigError(err):
		return "config"
	case gen.IsGenerationError(err):
		return "generation"
	case gqlbind.IsFileError(err):
		return "file"
	default:
		return "plugin"
	}
}
