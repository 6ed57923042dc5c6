package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/lendflow/pkg/adapters/http"
	"github.com/aretw0/lendflow/pkg/adapters/mcp"
	"github.com/aretw0/lendflow/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

// NewHTTPHandler returns the REST API with /metrics served from the app registry.
func NewHTTPHandler(app *App) http.Handler {
	return httpAdapter.NewHandler(app.Engine, app.Sessions,
		httpAdapter.WithLogger(app.Logger),
		httpAdapter.WithMetricsHandler(observability.Handler(app.Registry)),
	)
}

// RunServe serves the REST API on port until ctx is cancelled.
func RunServe(ctx context.Context, app *App, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewHTTPHandler(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("HTTP server listening", "address", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		app.Logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		return nil
	}
}

// RunMCP serves the MCP tools over stdio, or over SSE on port when sse is set.
func RunMCP(ctx context.Context, app *App, sse bool, port int) error {
	srv := mcp.NewServer(app.Engine, app.Sessions, mcp.WithLogger(app.Logger))
	if sse {
		return srv.ServeSSE(ctx, port)
	}
	app.Logger.Info("MCP server listening (stdio)")
	return srv.ServeStdio()
}
