package live

import (
	"fmt"
	"sync"
	"time"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/logger"
)

// DefaultStaleThreshold is the consecutive-failure count at which the engine
// reports itself offline.
const DefaultStaleThreshold = 3

// SurfaceOverride customizes one surface. Zero values inherit.
type SurfaceOverride struct {
	IntervalSeconds int
	Enabled         *bool
	ScaleMax        float64
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	Refresh        PollConfig
	BufferCapacity int
	StaleThreshold int
	Schema         Schema
	Surfaces       []SurfaceSpec
	Overrides      map[string]SurfaceOverride
}

// DefaultEngineConfig returns the default dashboard setup.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Refresh:        DefaultPollConfig(),
		BufferCapacity: DefaultBufferCapacity,
		StaleThreshold: DefaultStaleThreshold,
		Schema:         DefaultSchema(),
		Surfaces:       DefaultSurfaces(),
	}
}

// EngineStats summarizes diagnostics across every surface.
type EngineStats struct {
	ConsecutiveFailures int                     `json:"consecutive_failures"`
	Offline             bool                    `json:"offline"`
	Totals              SurfaceStats            `json:"totals"`
	Surfaces            map[string]SurfaceStats `json:"surfaces"`
}

// Engine wires surfaces, a shared Source, and a shared Notifier, and exposes
// the queries and controls display surfaces use.
type Engine struct {
	source   Source
	notifier *Notifier
	log      logger.Logger
	start    time.Time
	now      func() time.Time
	ticker   TickerFunc

	surfaces []*Surface
	byName   map[string]*Surface
	byMetric map[string]*Surface
	schema   Schema

	// ctl serializes refresh control changes and is held across scheduler
	// calls. Listeners must not call the controls.
	ctl sync.Mutex

	// mu guards refresh and is never held across a scheduler call.
	mu      sync.Mutex
	refresh PollConfig

	// staleThreshold is fixed after New.
	staleThreshold int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = logger.OrDefault(l) }
}

// WithClock sets the wall clock used for sample timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithTickerFunc sets the ticker factory for every surface's scheduler.
func WithTickerFunc(f TickerFunc) Option {
	return func(e *Engine) { e.ticker = f }
}

// New builds an engine. Nothing polls until Start.
func New(cfg EngineConfig, source Source, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, errors.New(errors.ErrConfig, "Engine needs a metric source", "")
	}
	if err := cfg.Refresh.Validate(); err != nil {
		return nil, err
	}
	if cfg.Schema == nil {
		cfg.Schema = DefaultSchema()
	}
	if len(cfg.Surfaces) == 0 {
		cfg.Surfaces = DefaultSurfaces()
	}

	e := &Engine{
		source:         source,
		log:            logger.Default(),
		now:            time.Now,
		ticker:         NewTicker,
		byName:         make(map[string]*Surface),
		byMetric:       make(map[string]*Surface),
		schema:         cfg.Schema,
		refresh:        cfg.Refresh,
		staleThreshold: cfg.StaleThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.start = e.now()
	e.notifier = NewNotifier(e.log)

	for _, spec := range cfg.Surfaces {
		if _, dup := e.byName[spec.Name]; dup {
			return nil, errors.New(errors.ErrConfig,
				fmt.Sprintf("Surface '%s' is defined twice", spec.Name), "")
		}

		pc := cfg.Refresh
		var scale float64
		if o, ok := cfg.Overrides[spec.Name]; ok {
			if o.IntervalSeconds != 0 {
				pc.IntervalSeconds = o.IntervalSeconds
			}
			if o.Enabled != nil {
				pc.Enabled = *o.Enabled
			}
			scale = o.ScaleMax
		}
		if err := pc.Validate(); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Surface '%s' has an invalid interval", spec.Name), "")
		}

		s, err := newSurface(spec, cfg.Schema, cfg.BufferCapacity, scale, pc,
			source, e.notifier, e.monotonicMs, e.log, e.ticker)
		if err != nil {
			return nil, err
		}
		for _, m := range spec.Metrics {
			if owner, taken := e.byMetric[m]; taken {
				return nil, errors.New(errors.ErrConfig,
					fmt.Sprintf("Metric '%s' is polled by both '%s' and '%s'", m, owner.Name(), spec.Name),
					"Each metric buffer belongs to exactly one surface.")
			}
			e.byMetric[m] = s
		}
		e.surfaces = append(e.surfaces, s)
		e.byName[spec.Name] = s
	}
	return e, nil
}

func (e *Engine) monotonicMs() int64 {
	return e.now().Sub(e.start).Milliseconds()
}

// Start starts every surface's scheduler.
func (e *Engine) Start() error {
	for _, s := range e.surfaces {
		if err := s.start(); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops every surface. Buffers keep their samples.
func (e *Engine) Stop() {
	for _, s := range e.surfaces {
		s.scheduler.Stop()
	}
}

// Surfaces returns the surfaces in display order.
func (e *Engine) Surfaces() []*Surface {
	out := make([]*Surface, len(e.surfaces))
	copy(out, e.surfaces)
	return out
}

// Surface returns a surface by name.
func (e *Engine) Surface(name string) (*Surface, bool) {
	s, ok := e.byName[name]
	return s, ok
}

// Metrics returns every polled metric name, in surface order.
func (e *Engine) Metrics() []string {
	var out []string
	for _, s := range e.surfaces {
		out = append(out, s.spec.Metrics...)
	}
	return out
}

// Schema returns the engine's metric schema.
func (e *Engine) Schema() Schema { return e.schema }

// CurrentValue returns the newest value of metric, or false when the metric
// is unknown or has no samples yet.
func (e *Engine) CurrentValue(metric string) (float64, bool) {
	s, ok := e.byMetric[metric]
	if !ok {
		return 0, false
	}
	return s.CurrentValue(metric)
}

// Series returns the chart points of metric, oldest first. Repeated calls
// return the same data until the next append.
func (e *Engine) Series(metric string) []Point {
	if s, ok := e.byMetric[metric]; ok {
		return s.Series(metric)
	}
	return nil
}

// Values returns the raw values of metric, oldest first.
func (e *Engine) Values(metric string) []float64 {
	if s, ok := e.byMetric[metric]; ok {
		return s.Values(metric)
	}
	return nil
}

// View derives display values for metric.
func (e *Engine) View(metric string) (View, error) {
	s, ok := e.byMetric[metric]
	if !ok {
		return View{}, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown metric '%s'", metric), "")
	}
	v, _ := s.View(metric)
	return v, nil
}

// IsLive reports whether any surface is polling.
func (e *Engine) IsLive() bool {
	for _, s := range e.surfaces {
		if s.IsLive() {
			return true
		}
	}
	return false
}

// Subscribe registers a listener for appended samples.
func (e *Engine) Subscribe(l Listener) (unsubscribe func()) {
	return e.notifier.Subscribe(l)
}

// RefreshConfig returns the global refresh settings.
func (e *Engine) RefreshConfig() PollConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refresh
}

// SetInterval changes the refresh interval of every surface. Running
// surfaces are stopped and started again with the new interval.
func (e *Engine) SetInterval(seconds int) error {
	if err := ValidateInterval(seconds); err != nil {
		return err
	}

	e.ctl.Lock()
	defer e.ctl.Unlock()

	e.mu.Lock()
	e.refresh.IntervalSeconds = seconds
	e.mu.Unlock()

	for _, s := range e.surfaces {
		cfg := s.PollConfig()
		cfg.IntervalSeconds = seconds
		s.setConfig(cfg)
		if err := s.restart(); err != nil {
			return err
		}
	}
	e.log.Debug("refresh interval set to %ds", seconds)
	return nil
}

// ToggleAutoRefresh pauses or resumes polling on every surface. Enabling
// also starts surfaces that are idle or stopped.
func (e *Engine) ToggleAutoRefresh(enabled bool) error {
	e.ctl.Lock()
	defer e.ctl.Unlock()

	e.mu.Lock()
	e.refresh.Enabled = enabled
	e.mu.Unlock()

	for _, s := range e.surfaces {
		cfg := s.PollConfig()
		cfg.Enabled = enabled
		s.setConfig(cfg)

		switch {
		case !enabled:
			s.scheduler.Pause()
		case s.State() == StatePaused:
			s.scheduler.Resume()
		case s.State() == StateIdle || s.State() == StateStopped:
			if err := s.start(); err != nil {
				return err
			}
		}
	}
	e.log.Debug("auto refresh set to %t", enabled)
	return nil
}

// Refresh triggers an immediate fetch on every running surface.
func (e *Engine) Refresh() {
	for _, s := range e.surfaces {
		s.scheduler.TriggerNow()
	}
}

// ConsecutiveFailures returns the source's consecutive failure count.
func (e *Engine) ConsecutiveFailures() int {
	return e.source.ConsecutiveFailures()
}

// Offline reports whether the provider has failed often enough in a row
// that displays should flag their values as synthetic.
func (e *Engine) Offline() bool {
	return e.staleThreshold > 0 && e.source.ConsecutiveFailures() >= e.staleThreshold
}

// Stats gathers diagnostics from every surface.
func (e *Engine) Stats() EngineStats {
	st := EngineStats{
		ConsecutiveFailures: e.source.ConsecutiveFailures(),
		Offline:             e.Offline(),
		Surfaces:            make(map[string]SurfaceStats, len(e.surfaces)),
	}
	for _, s := range e.surfaces {
		ss := s.Stats()
		st.Surfaces[s.Name()] = ss
		st.Totals.Scheduler = st.Totals.Scheduler.Add(ss.Scheduler)
		st.Totals.Appended += ss.Appended
		st.Totals.Synthetic += ss.Synthetic
		st.Totals.Dropped += ss.Dropped
	}
	return st
}
