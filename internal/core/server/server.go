// Package server wires the HTTP routes and runs the listener.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/config"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/health"
	middleware "github.com/mohammed-shakir/w3w-wfs/internal/core/middleware"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/router"
	"github.com/mohammed-shakir/w3w-wfs/internal/crs"
)

type Deps struct {
	Executor router.Executor
	Geocoder health.Checker
	CRS      *crs.Engine
	Clock    clockwork.Clock
	// Metrics is served on /metrics; nil means the default Prometheus
	// registry. It is not mounted when metrics go to the side listener.
	Metrics http.Handler
}

// NewRouter builds the full route table.
func NewRouter(cfg config.Config, logger *slog.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/health", health.Health(deps.Geocoder, deps.Clock, 0))
	if !cfg.Metrics.Enabled {
		m := deps.Metrics
		if m == nil {
			m = promhttp.Handler()
		}
		r.Method(http.MethodGet, "/metrics", m)
	}

	r.Get("/wfs", router.HandleWFS(logger, cfg, deps.Executor))
	r.Mount("/ogcapi", router.OGCAPI(logger, cfg, deps.Executor, deps.CRS))
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, deps Deps) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg, logger, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.GeocodeTimeout + 60*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
