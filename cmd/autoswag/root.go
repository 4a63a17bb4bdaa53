package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitalvas/autoswag/config"
	"github.com/vitalvas/autoswag/openapi"
)

// Set via -ldflags at build time.
var version = "dev"

type rootOptions struct {
	ConfigPath string
	RoutesPath string
	Debug      bool
}

type appState struct {
	opts   rootOptions
	cfg    *config.Config
	logger *zap.Logger
	routes []route
}

// load reads the configuration, builds the logger and reads the routes. A
// missing config file falls back to the defaults unless --config was given.
func (a *appState) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.ConfigPath)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Log, a.opts.Debug || cfg.Debug, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.logger = logger

	routes, err := loadRoutes(a.opts.RoutesPath)
	if err != nil {
		return err
	}
	a.routes = routes

	return nil
}

func (a *appState) document(ctx context.Context) (*openapi.Document, error) {
	return buildDocument(ctx, a.cfg, a.routes, a.logger)
}

// NewRootCmd creates the autoswag command tree.
func NewRootCmd() *cobra.Command {
	app := &appState{
		opts: rootOptions{
			ConfigPath: "autoswag.yml",
			RoutesPath: "routes.yml",
		},
	}

	root := &cobra.Command{
		Use:   "autoswag",
		Short: "OpenAPI document generator",
		Long: "autoswag builds an OpenAPI 3.0 document from route annotations,\n" +
			"TypeScript declarations and validation definitions.\n\n" +
			"Examples:\n" +
			"  autoswag generate --config autoswag.yml --routes routes.yml\n" +
			"  autoswag serve --addr :8080 --ui rapidoc\n",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&app.opts.ConfigPath, "config", app.opts.ConfigPath, "Path to the configuration file")
	root.PersistentFlags().StringVar(&app.opts.RoutesPath, "routes", app.opts.RoutesPath, "Path to the routes file")
	root.PersistentFlags().BoolVar(&app.opts.Debug, "debug", false, "Enable debug logging")

	root.SetVersionTemplate("{{.Version}}\n")
	root.Version = version

	for _, cmd := range []*cobra.Command{newGenerateCmd(app), newServeCmd(app)} {
		cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
			return app.load(cmd)
		}
		cmd.PostRun = func(_ *cobra.Command, _ []string) {
			_ = app.logger.Sync()
		}
		root.AddCommand(cmd)
	}
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
