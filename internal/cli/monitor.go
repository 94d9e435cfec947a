package cli

import (
	"context"
	"os"

	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/monitor"
	"github.com/rileyhilliard/pulse/internal/ui"
)

// monitorCommand starts the TUI dashboard and stops the engine on exit.
func monitorCommand(ctx context.Context, cfg *config.Config, interval int, paused bool) error {
	if !ui.IsTerminal(os.Stdout) {
		return errors.New(errors.ErrConfig,
			"The dashboard needs an interactive terminal",
			"Use 'pulse snapshot' when piping output.")
	}

	// Log lines would tear the alternate screen, so the engine stays quiet.
	setup, err := SetupEngine(cfg, EngineOptions{
		Interval: interval,
		Paused:   paused,
		Logger:   logger.Noop(),
	})
	if err != nil {
		return err
	}

	if err := setup.Engine.Start(); err != nil {
		return err
	}
	defer setup.Engine.Stop()

	return monitor.Run(ctx, setup.Engine)
}
