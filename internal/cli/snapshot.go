package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/live"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/ui"
)

// nudgeInterval re-triggers fetches in case a notification was missed.
const nudgeInterval = 250 * time.Millisecond

// SnapshotOptions holds options for the snapshot command.
type SnapshotOptions struct {
	Samples int
	Timeout time.Duration
	JSON    bool
}

// SnapshotMetric is one metric's derived view in a snapshot.
type SnapshotMetric struct {
	Surface    string     `json:"surface"`
	Metric     string     `json:"metric"`
	Label      string     `json:"label"`
	Unit       string     `json:"unit"`
	Latest     *float64   `json:"latest"`
	Percentage float64    `json:"percentage"`
	Trend      live.Trend `json:"trend"`
	Delta      float64    `json:"delta"`
	Series     []float64  `json:"series"`
}

// SnapshotResult is the output of 'pulse snapshot'.
type SnapshotResult struct {
	Provider            string           `json:"provider"`
	Offline             bool             `json:"offline"`
	ConsecutiveFailures int              `json:"consecutive_failures"`
	Metrics             []SnapshotMetric `json:"metrics"`
}

// snapshotCommand polls until every metric holds opts.Samples values and
// prints the result.
func snapshotCommand(ctx context.Context, cfg *config.Config, opts SnapshotOptions, out io.Writer) error {
	if opts.Samples < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("--samples must be at least 1, got %d", opts.Samples), "")
	}
	if opts.Samples > cfg.Buffer.Capacity {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("--samples %d exceeds the buffer capacity of %d", opts.Samples, cfg.Buffer.Capacity),
			"Raise buffer.capacity in .pulse.yaml or ask for fewer samples.")
	}

	// Paused surfaces still honor manual refreshes, so the snapshot drives
	// every fetch itself.
	setup, err := SetupEngine(cfg, EngineOptions{Paused: true, Logger: logger.Noop()})
	if err != nil {
		return err
	}
	if err := setup.Engine.Start(); err != nil {
		return err
	}
	defer setup.Engine.Stop()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var spinner *ui.Spinner
	if !opts.JSON && ui.IsTerminal(os.Stderr) {
		spinner = ui.NewSpinner("Sampling "+setup.Source.URL(), os.Stderr)
		spinner.Start()
	}

	res, err := CollectSnapshot(ctx, setup.Engine, opts.Samples)
	res.Provider = setup.Source.URL()
	if spinner != nil {
		if err != nil {
			spinner.Fail()
		} else {
			spinner.Success()
		}
	}
	if err != nil {
		return err
	}

	if opts.JSON {
		return WriteJSONSuccess(out, res)
	}
	return writeSnapshotTable(out, res)
}

// CollectSnapshot triggers refreshes until every metric holds at least
// samples values, then returns the derived views. On timeout the partial
// result is returned with an error.
func CollectSnapshot(ctx context.Context, engine *live.Engine, samples int) (SnapshotResult, error) {
	updates := make(chan string, 64)
	unsubscribe := engine.Subscribe(func(metric string) {
		select {
		case updates <- metric:
		default:
		}
	})
	defer unsubscribe()

	nudge := time.NewTicker(nudgeInterval)
	defer nudge.Stop()

	engine.Refresh()
	for !snapshotReady(engine, samples) {
		select {
		case <-ctx.Done():
			return buildSnapshot(engine), errors.WrapWithCode(ctx.Err(), errors.ErrTransport,
				"Timed out waiting for samples",
				"Check that the provider is reachable or raise --timeout.")
		case <-updates:
			engine.Refresh()
		case <-nudge.C:
			engine.Refresh()
		}
	}
	return buildSnapshot(engine), nil
}

func snapshotReady(engine *live.Engine, samples int) bool {
	for _, s := range engine.Surfaces() {
		for _, m := range s.Metrics() {
			if v, ok := s.View(m); !ok || v.Samples < samples {
				return false
			}
		}
	}
	return true
}

func buildSnapshot(engine *live.Engine) SnapshotResult {
	res := SnapshotResult{
		Offline:             engine.Offline(),
		ConsecutiveFailures: engine.ConsecutiveFailures(),
	}
	for _, s := range engine.Surfaces() {
		for _, m := range s.Metrics() {
			view, ok := s.View(m)
			if !ok {
				continue
			}
			spec, _ := s.Spec(m)
			series := s.Values(m)
			if series == nil {
				series = []float64{}
			}
			res.Metrics = append(res.Metrics, SnapshotMetric{
				Surface:    s.Name(),
				Metric:     m,
				Label:      spec.Label,
				Unit:       spec.Unit,
				Latest:     view.Latest,
				Percentage: view.Percentage,
				Trend:      view.Trend,
				Delta:      view.Delta,
				Series:     series,
			})
		}
	}
	return res
}

var snapshotColumns = []ui.TableColumn{
	{Title: "Surface", Width: 10},
	{Title: "Metric", Width: 10},
	{Title: "Value", Width: 12},
	{Title: "Scale", Width: 8},
	{Title: "Trend", Width: 8},
	{Title: "History", Width: 20},
}

func writeSnapshotTable(w io.Writer, res SnapshotResult) error {
	rows := make([][]string, 0, len(res.Metrics))
	for _, m := range res.Metrics {
		view := live.View{Latest: m.Latest, Trend: m.Trend}
		rows = append(rows, []string{
			m.Surface,
			m.Label,
			ui.FormatLatest(view, m.Unit),
			fmt.Sprintf("%.0f%%", m.Percentage),
			ui.RenderTrend(m.Trend),
			ui.RenderSparkline(m.Series, 20, 0),
		})
	}

	if _, err := fmt.Fprintln(w, ui.RenderSimpleTable(snapshotColumns, rows)); err != nil {
		return err
	}
	if res.Offline {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		return ui.PrintWarning(w, fmt.Sprintf("provider offline after %d failed fetches, values are synthetic",
			res.ConsecutiveFailures))
	}
	return nil
}
