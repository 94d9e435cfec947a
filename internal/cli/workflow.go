package cli

import (
	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/live"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/provider"
	"github.com/rileyhilliard/pulse/internal/telemetry"
)

// EngineOptions adjusts the configured engine for one command run.
type EngineOptions struct {
	// Interval overrides refresh.interval when positive.
	Interval int
	// Paused starts every surface paused.
	Paused bool
	// Telemetry instruments the source and registers the engine collector.
	Telemetry bool
	Logger    logger.Logger
}

// EngineSetup is everything a command needs to drive the engine.
type EngineSetup struct {
	Config    *config.Config
	Source    *provider.HTTPSource
	Engine    *live.Engine
	Telemetry *telemetry.Registry
}

// SetupEngine builds the provider source and the engine from cfg. Nothing
// polls until the caller starts the engine.
func SetupEngine(cfg *config.Config, opts EngineOptions) (*EngineSetup, error) {
	log := logger.OrDefault(opts.Logger)

	ec := cfg.ToEngineConfig()
	if opts.Interval > 0 {
		ec.Refresh.IntervalSeconds = opts.Interval
	}
	if opts.Paused {
		ec.Refresh.Enabled = false
	}

	popts := cfg.ProviderOptions()
	popts.Schema = ec.Schema
	popts.Logger = log
	src, err := provider.NewHTTPSource(popts)
	if err != nil {
		return nil, err
	}

	setup := &EngineSetup{Config: cfg, Source: src}

	var source live.Source = src
	if opts.Telemetry {
		setup.Telemetry = telemetry.NewRegistry()
		source = setup.Telemetry.Instrument(src)
	}

	engine, err := live.New(ec, source, live.WithLogger(log))
	if err != nil {
		return nil, err
	}
	setup.Engine = engine

	if setup.Telemetry != nil {
		if err := setup.Telemetry.Register(telemetry.NewCollector(engine, src.Stats)); err != nil {
			return nil, err
		}
	}

	log.Debug("engine ready: provider=%s interval=%ds auto=%t surfaces=%d",
		src.URL(), ec.Refresh.IntervalSeconds, ec.Refresh.Enabled, len(engine.Surfaces()))
	return setup, nil
}
