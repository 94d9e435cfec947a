package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rileyhilliard/pulse/internal/live"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quietTicker struct{ c chan time.Time }

func (t quietTicker) C() <-chan time.Time { return t.c }
func (t quietTicker) Stop()               {}

type fixedSource struct {
	snap     live.Snapshot
	failures int
}

func (s fixedSource) FetchSnapshot(context.Context) live.Snapshot { return s.snap }
func (s fixedSource) ConsecutiveFailures() int                    { return s.failures }

func newEngine(t *testing.T, src live.Source) *live.Engine {
	t.Helper()
	cfg := live.DefaultEngineConfig()
	cfg.Surfaces = []live.SurfaceSpec{{Name: "cpu", Title: "CPU", Metrics: []string{live.MetricCPU}}}
	e, err := live.New(cfg, src,
		live.WithLogger(logger.Noop()),
		live.WithTickerFunc(func(time.Duration) live.Ticker { return quietTicker{c: make(chan time.Time)} }))
	require.NoError(t, err)
	t.Cleanup(e.Stop)
	return e
}

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollector_ExposesEngineState(t *testing.T) {
	reg := NewRegistry()
	src := reg.Instrument(fixedSource{snap: live.Snapshot{Values: map[string]float64{live.MetricCPU: 42}}})
	e := newEngine(t, src)
	require.NoError(t, reg.Register(NewCollector(e, nil)))

	require.NoError(t, e.Start())
	require.Eventually(t, func() bool { return e.Stats().Totals.Appended == 1 }, 2*time.Second, 5*time.Millisecond)

	out := scrape(t, reg)

	assert.Contains(t, out, "pulse_engine_live 1")
	assert.Contains(t, out, "pulse_engine_offline 0")
	assert.Contains(t, out, "pulse_refresh_interval_seconds 3")
	assert.Contains(t, out, `pulse_surface_state{state="polling",surface="cpu"} 1`)
	assert.Contains(t, out, `pulse_surface_state{state="paused",surface="cpu"} 0`)
	assert.Contains(t, out, `pulse_scheduler_fetches_total{surface="cpu"} 1`)
	assert.Contains(t, out, `pulse_samples_appended_total{surface="cpu"} 1`)
	assert.Contains(t, out, `pulse_metric_value{metric="cpu_percent",surface="cpu"} 42`)
	assert.Contains(t, out, `pulse_metric_percentage{metric="cpu_percent",surface="cpu"} 42`)
	assert.Contains(t, out, `pulse_source_fetch_duration_seconds_count{outcome="ok"} 1`)
	assert.Contains(t, out, "go_goroutines")
	assert.NotContains(t, out, "pulse_provider_fetches_total")
}

func TestCollector_OmitsValuesBeforeFirstSample(t *testing.T) {
	reg := NewRegistry()
	e := newEngine(t, fixedSource{})
	require.NoError(t, reg.Register(NewCollector(e, nil)))

	out := scrape(t, reg)

	assert.Contains(t, out, "pulse_engine_live 0")
	assert.Contains(t, out, `pulse_surface_state{state="idle",surface="cpu"} 1`)
	assert.NotContains(t, out, "pulse_metric_value")
}

func TestCollector_ProviderStats(t *testing.T) {
	reg := NewRegistry()
	e := newEngine(t, fixedSource{failures: 4})
	stats := func() provider.Stats {
		return provider.Stats{Fetches: 9, Failures: 4, ConsecutiveFailures: 4, Fallbacks: 2}
	}
	require.NoError(t, reg.Register(NewCollector(e, stats)))

	out := scrape(t, reg)

	assert.Contains(t, out, "pulse_provider_fetches_total 9")
	assert.Contains(t, out, "pulse_provider_failures_total 4")
	assert.Contains(t, out, "pulse_provider_fallbacks_total 2")
	assert.Contains(t, out, "pulse_source_consecutive_failures 4")
	assert.Contains(t, out, "pulse_engine_offline 1")
}

func TestInstrument_Outcomes(t *testing.T) {
	reg := NewRegistry()

	reg.Instrument(fixedSource{snap: live.Snapshot{Err: errors.New("down")}}).FetchSnapshot(context.Background())
	reg.Instrument(fixedSource{snap: live.Snapshot{Synthetic: map[string]bool{live.MetricCPU: true}}}).FetchSnapshot(context.Background())

	out := scrape(t, reg)

	assert.Contains(t, out, `pulse_source_fetch_duration_seconds_count{outcome="failed"} 1`)
	assert.Contains(t, out, `pulse_source_fetch_duration_seconds_count{outcome="partial"} 1`)
}

func TestInstrument_PassesFailuresThrough(t *testing.T) {
	reg := NewRegistry()

	src := reg.Instrument(fixedSource{failures: 2})

	assert.Equal(t, 2, src.ConsecutiveFailures())
}

func TestRegister_Duplicate(t *testing.T) {
	reg := NewRegistry()
	e := newEngine(t, fixedSource{})

	require.NoError(t, reg.Register(NewCollector(e, nil)))
	assert.Error(t, reg.Register(NewCollector(e, nil)))
}
