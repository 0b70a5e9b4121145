package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/mohammed-shakir/w3w-wfs/internal/composer"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/config"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/executor"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/httpclient"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/observability"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/server"
	"github.com/mohammed-shakir/w3w-wfs/internal/crs"
	"github.com/mohammed-shakir/w3w-wfs/internal/geocoder"
	"github.com/mohammed-shakir/w3w-wfs/internal/logger"
	"github.com/mohammed-shakir/w3w-wfs/internal/metrics"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	zl := logger.Build(logger.Config{
		Level:   cfg.LogLevel,
		Console: cfg.LogConsole,
		SampleN: cfg.LogSampleN,
		Service: "w3w-wfs",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	appLog.Info("starting gateway",
		"addr", cfg.Addr,
		"version", Version,
		"geocoder", cfg.W3WBaseURL,
		"default_wfs_version", cfg.DefaultWFSVersion,
		"grid_density", cfg.GridDensity,
		"workers", cfg.GeocodeWorkers)
	if cfg.EnableCaching {
		appLog.Warn("enable_caching is set but caching is not implemented; ignoring")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		p := metrics.Init(metrics.Config{
			Enabled: true,
			Addr:    cfg.Metrics.Addr,
			Path:    cfg.Metrics.Path,
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  os.Getenv("BUILD_REVISION"),
				Branch:    os.Getenv("BUILD_BRANCH"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		if err := observability.Init(p.Registerer()); err != nil {
			appLog.Error("metrics init failed", "err", err)
			return 1
		}
		go func() {
			if err := p.Serve(ctx, appLog); err != nil {
				appLog.Error("metrics server exited", "err", err)
			}
		}()
	} else if err := observability.Init(nil); err != nil {
		appLog.Error("metrics init failed", "err", err)
		return 1
	}
	observability.ExposeBuildInfo(Version)

	clock := clockwork.NewRealClock()
	engine := crs.NewEngine()
	gc := geocoder.New(cfg.W3WAPIKey, cfg.W3WBaseURL, httpclient.NewOutbound(cfg.GeocodeTimeout), appLog)
	comp := composer.New(engine, cfg.Service, clock)
	exec := executor.New(cfg, gc, comp, engine, appLog)

	if err := server.Run(ctx, cfg, appLog, server.Deps{
		Executor: exec,
		Geocoder: gc,
		CRS:      engine,
		Clock:    clock,
	}); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
