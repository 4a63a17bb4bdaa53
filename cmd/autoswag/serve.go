package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitalvas/autoswag/internal/middleware"
	"github.com/vitalvas/autoswag/openapi"
)

const (
	readHeaderTimeout = 2 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type serveOptions struct {
	Addr     string
	BasePath string
	UI       string
	Persist  bool

	Compression int
}

func newServeCmd(app *appState) *cobra.Command {
	opts := serveOptions{
		Addr:     ":8080",
		BasePath: "/docs",
		UI:       "swagger",
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generated document and an interactive docs page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ui, err := parseDocsUI(opts.UI)
			if err != nil {
				return err
			}

			doc, err := app.document(cmd.Context())
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			doc.Handle(mux, opts.BasePath, &openapi.HandleConfig{
				UI:                   ui,
				PersistAuthorization: opts.Persist,
			})

			compress, err := middleware.Compression(opts.Compression)
			if err != nil {
				return err
			}
			handler := middleware.Chain(mux,
				middleware.Recovery(app.logger),
				middleware.AccessLog(app.logger),
				compress,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			listener, err := net.Listen("tcp", opts.Addr)
			if err != nil {
				return err
			}

			return serve(ctx, listener, handler, app.logger)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", opts.Addr, "Listen address")
	cmd.Flags().StringVar(&opts.BasePath, "base-path", opts.BasePath, "Path prefix of the documentation endpoints")
	cmd.Flags().StringVar(&opts.UI, "ui", opts.UI, "Docs UI: swagger, rapidoc or redoc")
	cmd.Flags().BoolVar(&opts.Persist, "persist-authorization", false, "Keep Swagger UI credentials across reloads")
	cmd.Flags().IntVar(&opts.Compression, "compression-level", 0, "Gzip level, 1-9 (0 selects the default)")

	return cmd
}

func parseDocsUI(name string) (openapi.DocsUI, error) {
	switch name {
	case "swagger", "":
		return openapi.DocsSwaggerUI, nil
	case "rapidoc":
		return openapi.DocsRapiDoc, nil
	case "redoc":
		return openapi.DocsRedoc, nil
	default:
		return 0, fmt.Errorf("invalid --ui %q (expected swagger, rapidoc or redoc)", name)
	}
}

// serve runs an HTTP server on listener until ctx is done, then shuts it
// down gracefully.
func serve(ctx context.Context, listener net.Listener, handler http.Handler, logger *zap.Logger) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("serving documentation", zap.String("addr", listener.Addr().String()))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info("server shutting down")
	}

	// ctx is already done; shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
