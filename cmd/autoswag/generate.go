package main

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitalvas/autoswag/annotation"
	"github.com/vitalvas/autoswag/config"
	"github.com/vitalvas/autoswag/directive"
	"github.com/vitalvas/autoswag/openapi"
	"github.com/vitalvas/autoswag/registry"
	"github.com/vitalvas/autoswag/resolver"
)

func newGenerateCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Write swagger.json and swagger.yml",
		Long: "Scan the schema sources, read the annotations of every route and write\n" +
			"the OpenAPI document to the configured output directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := app.document(cmd.Context())
			if err != nil {
				return err
			}

			if err := openapi.WriteFiles(doc, app.cfg.Output); err != nil {
				return fmt.Errorf("write documents: %w", err)
			}

			app.logger.Info("documents written",
				zap.String("dir", app.cfg.Output),
				zap.Int("paths", len(doc.Paths)),
			)
			return nil
		},
	}
}

// buildDocument runs the whole pipeline: schema sources are scanned into a
// frozen registry, then each route's annotation block becomes an operation.
func buildDocument(ctx context.Context, cfg *config.Config, routes []route, logger *zap.Logger) (*openapi.Document, error) {
	reg := registry.New()
	agg := registry.NewAggregator(reg, registry.Options{
		Paths: registry.Paths{
			Interfaces: cfg.Paths.Interfaces,
			Models:     cfg.Paths.Models,
			Validators: cfg.Paths.Validators,
			Enums:      cfg.Paths.Enums,
		},
		SnakeCase: cfg.SnakeCase,
	}, logger.Named("registry"))

	if err := agg.Scan(ctx); err != nil {
		return nil, fmt.Errorf("scan schemas: %w", err)
	}
	if _, err := agg.Verify(ctx); err != nil {
		return nil, fmt.Errorf("verify schemas: %w", err)
	}
	reg.Freeze()

	common, err := cfg.CommonDefinitions()
	if err != nil {
		return nil, err
	}
	schemes, err := cfg.Security()
	if err != nil {
		return nil, err
	}

	parser := directive.NewParser(resolver.New(reg), common, logger.Named("directive"))
	extractor := annotation.New(parser, logger.Named("annotation"))

	builder := openapi.NewBuilder(openapi.Info{
		Title:       cfg.Title,
		Version:     cfg.Version,
		Description: cfg.Description,
	}).SetTagIndex(cfg.TagIndex)

	for _, name := range slices.Sorted(maps.Keys(schemes)) {
		builder.AddSecurityScheme(name, schemes[name])
	}
	if cfg.DefaultSecurityScheme != "" {
		builder.SetAuth(cfg.DefaultSecurityScheme, cfg.AuthMiddlewares...)
	}

	for _, r := range routes {
		if cfg.Ignored(r.Pattern) {
			logger.Debug("route ignored", zap.String("pattern", r.Pattern))
			continue
		}

		op, err := routeOperation(ctx, extractor, r, cfg.Paths.Controllers)
		if err != nil {
			return nil, err
		}

		for _, method := range r.Methods {
			builder.AddOperation(openapi.Route{
				Method:     method,
				Pattern:    r.Pattern,
				Middleware: r.Middleware,
				Handler:    r.Handler,
			}, op)
		}
	}

	logger.Debug("annotation sources read", zap.Int("files", extractor.Cached()))

	return builder.Build(reg.Schemas()), nil
}

// routeOperation returns the annotated operation of r, or nil when the
// route has no annotations.
func routeOperation(ctx context.Context, extractor *annotation.Extractor, r route, controllers string) (*openapi.Operation, error) {
	file, action := r.source(controllers)
	if file == "" || action == "" {
		return nil, nil
	}

	desc, err := extractor.Extract(ctx, file, action)
	if err != nil {
		return nil, err
	}
	if desc.IsEmpty() {
		return nil, nil
	}
	return desc.OpenAPI(), nil
}
