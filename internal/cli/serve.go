package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/switchboard/pkg/adapters/http"
	"github.com/aretw0/switchboard/pkg/adapters/mcp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// NewHTTPServer builds the HTTP API server for app on cfg.HTTP.Port.
func NewHTTPServer(app *App) (*http.Server, error) {
	handler, err := httpadapter.NewHandler(app.Engine,
		httpadapter.WithLogger(app.Logger.With("component", "http")),
		httpadapter.WithGatherer(app.Metrics),
	)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", app.Config.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// Serve runs the HTTP API until ctx is cancelled, then drains in-flight requests.
func Serve(ctx context.Context, app *App) error {
	srv, err := NewHTTPServer(app)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Logger.Info("http server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		app.Logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		return nil
	})
	return g.Wait()
}

// ServeMCP exposes the engine as MCP tools over stdio or SSE.
func ServeMCP(ctx context.Context, app *App) error {
	srv := mcp.NewServer(app.Engine, mcp.WithLogger(app.Logger.With("component", "mcp")))
	switch app.Config.MCP.Transport {
	case "sse":
		return srv.ServeSSE(ctx, app.Config.MCP.Port)
	default:
		app.Logger.Info("mcp server listening (stdio)")
		return srv.ServeStdio()
	}
}
