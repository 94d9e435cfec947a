// Package telemetry exposes the engine's diagnostic counters in the
// Prometheus text format.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rileyhilliard/pulse/internal/live"
	"github.com/rileyhilliard/pulse/internal/provider"
)

const namespace = "pulse"

var states = []live.State{live.StateIdle, live.StatePolling, live.StatePaused, live.StateStopped}

// Collector reads engine and source stats at scrape time.
type Collector struct {
	engine      *live.Engine
	sourceStats func() provider.Stats

	engineLive          *prometheus.Desc
	offline             *prometheus.Desc
	interval            *prometheus.Desc
	consecutiveFailures *prometheus.Desc

	surfaceState   *prometheus.Desc
	ticks          *prometheus.Desc
	fetches        *prometheus.Desc
	applied        *prometheus.Desc
	skipped        *prometheus.Desc
	staleDiscarded *prometheus.Desc
	appended       *prometheus.Desc
	synthetic      *prometheus.Desc
	dropped        *prometheus.Desc

	value      *prometheus.Desc
	percentage *prometheus.Desc

	providerFetches   *prometheus.Desc
	providerFailures  *prometheus.Desc
	providerFallbacks *prometheus.Desc
}

// NewCollector creates a collector for engine. sourceStats may be nil when
// the source is not an HTTPSource.
func NewCollector(engine *live.Engine, sourceStats func() provider.Stats) *Collector {
	surface := []string{"surface"}
	metric := []string{"metric", "surface"}

	return &Collector{
		engine:      engine,
		sourceStats: sourceStats,

		engineLive:          desc("engine_live", "1 while any surface is polling", nil),
		offline:             desc("engine_offline", "1 while the provider is considered offline", nil),
		interval:            desc("refresh_interval_seconds", "Configured global refresh interval", nil),
		consecutiveFailures: desc("source_consecutive_failures", "Provider fetches failed in a row", nil),

		surfaceState:   desc("surface_state", "1 for the surface's current scheduler state", []string{"surface", "state"}),
		ticks:          desc("scheduler_ticks_total", "Scheduler ticks, timer and manual", surface),
		fetches:        desc("scheduler_fetches_total", "Fetches launched by the scheduler", surface),
		applied:        desc("scheduler_applied_total", "Fetch results applied to buffers", surface),
		skipped:        desc("scheduler_skipped_ticks_total", "Ticks that did not fetch", []string{"surface", "reason"}),
		staleDiscarded: desc("scheduler_stale_discarded_total", "Fetch results discarded after a stop", surface),
		appended:       desc("samples_appended_total", "Samples appended to series buffers", surface),
		synthetic:      desc("samples_synthetic_total", "Appended samples that came from the fallback generator", surface),
		dropped:        desc("samples_dropped_total", "Samples rejected as malformed", surface),

		value:      desc("metric_value", "Latest value of a live metric", metric),
		percentage: desc("metric_percentage", "Latest value as a percentage of its display scale", metric),

		providerFetches:   desc("provider_fetches_total", "Requests made to the metrics provider", nil),
		providerFailures:  desc("provider_failures_total", "Provider requests that failed entirely", nil),
		providerFallbacks: desc("provider_fallbacks_total", "Individual fields replaced with synthetic values", nil),
	}
}

func desc(name, help string, labels []string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.engineLive, c.offline, c.interval, c.consecutiveFailures,
		c.surfaceState, c.ticks, c.fetches, c.applied, c.skipped, c.staleDiscarded,
		c.appended, c.synthetic, c.dropped, c.value, c.percentage,
	} {
		ch <- d
	}
	if c.sourceStats != nil {
		ch <- c.providerFetches
		ch <- c.providerFailures
		ch <- c.providerFallbacks
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.engine.Stats()

	ch <- gauge(c.engineLive, boolFloat(c.engine.IsLive()))
	ch <- gauge(c.offline, boolFloat(stats.Offline))
	ch <- gauge(c.interval, float64(c.engine.RefreshConfig().IntervalSeconds))
	ch <- gauge(c.consecutiveFailures, float64(stats.ConsecutiveFailures))

	for _, s := range c.engine.Surfaces() {
		name := s.Name()
		current := s.State()
		for _, st := range states {
			ch <- gauge(c.surfaceState, boolFloat(st == current), name, st.String())
		}

		ss := stats.Surfaces[name]
		ch <- counter(c.ticks, float64(ss.Scheduler.Ticks), name)
		ch <- counter(c.fetches, float64(ss.Scheduler.Fetches), name)
		ch <- counter(c.applied, float64(ss.Scheduler.Applied), name)
		ch <- counter(c.skipped, float64(ss.Scheduler.SkippedInFlight), name, "in_flight")
		ch <- counter(c.skipped, float64(ss.Scheduler.SkippedPaused), name, "paused")
		ch <- counter(c.staleDiscarded, float64(ss.Scheduler.StaleDiscarded), name)
		ch <- counter(c.appended, float64(ss.Appended), name)
		ch <- counter(c.synthetic, float64(ss.Synthetic), name)
		ch <- counter(c.dropped, float64(ss.Dropped), name)

		for _, m := range s.Metrics() {
			view, ok := s.View(m)
			if !ok || view.Latest == nil {
				continue
			}
			ch <- gauge(c.value, *view.Latest, m, name)
			ch <- gauge(c.percentage, view.Percentage, m, name)
		}
	}

	if c.sourceStats != nil {
		ps := c.sourceStats()
		ch <- counter(c.providerFetches, float64(ps.Fetches))
		ch <- counter(c.providerFailures, float64(ps.Failures))
		ch <- counter(c.providerFallbacks, float64(ps.Fallbacks))
	}
}

func gauge(d *prometheus.Desc, v float64, labels ...string) prometheus.Metric {
	return prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
}

func counter(d *prometheus.Desc, v float64, labels ...string) prometheus.Metric {
	return prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, labels...)
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Registry bundles a registry with the fetch instrumentation.
type Registry struct {
	reg           *prometheus.Registry
	fetchDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{
		reg: reg,
		fetchDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Time spent acquiring one snapshot, by outcome",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		}, []string{"outcome"}),
	}
}

// Register adds a collector.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.reg.Register(c)
}

// Gatherer returns the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Instrument wraps src so every fetch is timed. Outcome is "ok", "partial"
// (some metrics synthetic) or "failed" (transport failure).
func (r *Registry) Instrument(src live.Source) live.Source {
	return &instrumentedSource{Source: src, hist: r.fetchDuration}
}

type instrumentedSource struct {
	live.Source
	hist *prometheus.HistogramVec
}

func (s *instrumentedSource) FetchSnapshot(ctx context.Context) live.Snapshot {
	start := time.Now()
	snap := s.Source.FetchSnapshot(ctx)

	outcome := "ok"
	switch {
	case snap.Err != nil:
		outcome = "failed"
	case len(snap.Synthetic) > 0:
		outcome = "partial"
	}
	s.hist.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return snap
}
