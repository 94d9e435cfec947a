package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rileyhilliard/pulse/internal/devprovider"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/ui"
)

// ProviderOptions holds options for the provider command.
type ProviderOptions struct {
	Addr     string
	FailRate float64
	DropRate float64
	Latency  time.Duration
	Token    string
}

// providerCommand serves the development metrics provider until ctx is
// cancelled.
func providerCommand(ctx context.Context, opts ProviderOptions, out io.Writer) error {
	log := logger.Default()
	srv, err := devprovider.New(devprovider.Options{
		FailRate: opts.FailRate,
		DropRate: opts.DropRate,
		Latency:  opts.Latency,
		Token:    opts.Token,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Serving development metrics on http://%s%s\n",
		ui.SuccessStyle().Render(ui.SymbolLive), opts.Addr, devprovider.MetricsPath)
	if opts.FailRate > 0 || opts.DropRate > 0 {
		fmt.Fprintf(out, "  %s\n", ui.MutedStyle().Render(
			fmt.Sprintf("fail rate %.0f%%, drop rate %.0f%%", opts.FailRate*100, opts.DropRate*100)))
	}

	err = srv.ListenAndServe(ctx, opts.Addr)
	st := srv.Stats()
	log.Debug("served %d requests, %d failed, %d fields dropped", st.Requests, st.Failed, st.Dropped)
	return err
}
