package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/syssam/gqlbind/compiler/pipeline"
)

type globalFlags struct {
	configFile string
	logLevel   string
	mode       string
}

func rootCommand() *cobra.Command {
	g := &globalFlags{configFile: pipeline.DefaultConfigFile, logLevel: "info"}
	cmd := &cobra.Command{
		Use:           "gqlbind [global options] <subcommand>",
		Short:         "Generate Go resolver bindings from a GraphQL schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}
	cmd.PersistentFlags().StringVar(&g.configFile, "config", g.configFile, "Path to the project configuration file.")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log.level", g.logLevel, "Minimum log level: debug, info, warn or error.")
	cmd.PersistentFlags().StringVar(&g.mode, "mode", "", fmt.Sprintf("Generation mode, server or client. Defaults to $%s.", pipeline.ModeEnv))

	cmd.AddCommand(
		generateCommand(g),
		watchCommand(g),
	)
	return cmd
}

func generateCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate all outputs of the current mode once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, _, err := g.driver(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			_, err = d.Run(cmd.Context())
			return err
		},
	}
}

func watchCommand(g *globalFlags) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate whenever the schema or documents change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, logger, err := g.driver(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return pipeline.NewWatcher(d, d.Patterns(), debounce, logger).Watch(ctx)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", pipeline.DefaultDebounce, "Quiet period after a change before regenerating.")
	return cmd
}

// driver loads the configuration and builds a driver logging to w.
func (g *globalFlags) driver(w io.Writer) (*pipeline.Driver, log.Logger, error) {
	logger, err := newLogger(w, g.logLevel)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := pipeline.LoadConfig(g.configFile)
	if err != nil {
		return nil, nil, err
	}
	mode := pipeline.ModeFromEnv()
	if g.mode != "" {
		mode = pipeline.ParseMode(g.mode)
	}
	return pipeline.NewDriver(cfg, pipeline.WithMode(mode), pipeline.WithLogger(logger)), logger, nil
}

func newLogger(w io.Writer, lvl string) (log.Logger, error) {
	allowed, err := level.Parse(lvl)
	if err != nil {
		return nil, fmt.Errorf("invalid --log.level %q: %w", lvl, err)
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	return level.NewFilter(logger, level.Allow(allowed)), nil
}
