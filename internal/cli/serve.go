package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/parsetrail"
	api "github.com/aretw0/parsetrail/pkg/adapters/http"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout is the grace period for in-flight requests.
const shutdownTimeout = 5 * time.Second

// NewHTTPServer builds the API server for the app.
func NewHTTPServer(app *App) *api.Server {
	opts := []api.Option{
		api.WithLogger(app.Logger),
		api.WithVersion(parsetrail.Version),
		api.WithLayout(app.Layout()),
	}
	if app.Config.Server.Metrics {
		opts = append(opts, api.WithMetrics(app.Metrics.Handler()))
	}
	r := app.Replayer
	return api.NewServer(r.Sessions, r.Engine, r.Coordinator, opts...)
}

// RunServe serves the HTTP API on addr until ctx is cancelled.
func RunServe(ctx context.Context, app *App, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return Serve(ctx, app, ln)
}

// Serve runs the HTTP API on an existing listener and shuts it down gracefully when ctx ends.
func Serve(ctx context.Context, app *App, ln net.Listener) error {
	srv := &http.Server{
		Handler:           NewHTTPServer(app).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Logger.Info("HTTP server listening", "address", ln.Addr().String(), "store", app.Config.Store.Backend)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		app.Logger.Info("Shutting down HTTP server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		return nil
	})

	return g.Wait()
}
