package cli

import (
	"context"

	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Addr      string // overrides serve.addr
	Interval  int
	Paused    bool
	NoMetrics bool
}

// serveCommand runs the engine behind the HTTP API until ctx is cancelled.
func serveCommand(ctx context.Context, cfg *config.Config, opts ServeOptions) error {
	log := logger.Default()

	setup, err := SetupEngine(cfg, EngineOptions{
		Interval:  opts.Interval,
		Paused:    opts.Paused,
		Telemetry: cfg.Serve.Metrics && !opts.NoMetrics,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	addr := cfg.Serve.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}
	srvOpts := server.Options{Addr: addr, Logger: log}
	if setup.Telemetry != nil {
		srvOpts.Metrics = setup.Telemetry.Handler()
	}

	if err := setup.Engine.Start(); err != nil {
		return err
	}
	defer setup.Engine.Stop()

	log.Info("polling %s every %ds", setup.Source.URL(), setup.Engine.RefreshConfig().IntervalSeconds)
	return server.New(setup.Engine, srvOpts).Run(ctx)
}
