package live

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/logger"
)

// SurfaceStats are diagnostic counters for one surface.
type SurfaceStats struct {
	Scheduler SchedulerStats `json:"scheduler"`
	Appended  uint64         `json:"appended"`
	Synthetic uint64         `json:"synthetic"`
	Dropped   int            `json:"dropped"`
}

// Surface is one monitored display surface (CPU tile, network chart, ...).
// It owns one scheduler and the buffers of its metrics; no other surface
// writes to them.
type Surface struct {
	spec      SurfaceSpec
	specs     map[string]MetricSpec
	scale     map[string]float64
	scheduler *Scheduler
	notifier  *Notifier
	clock     func() int64
	log       logger.Logger

	// mu guards the buffers and bookkeeping below. Writes come from apply
	// (scheduler goroutine), reads from any display goroutine.
	mu         sync.RWMutex
	cfg        PollConfig
	buffers    map[string]*SeriesBuffer
	seq        map[string]uint64
	lastTs     int64
	lastUpdate time.Time

	appended  atomic.Uint64
	synthetic atomic.Uint64
}

func newSurface(spec SurfaceSpec, schema Schema, capacity int, scaleMax float64, cfg PollConfig,
	source Source, notifier *Notifier, clock func() int64, log logger.Logger, ticker TickerFunc) (*Surface, error) {

	s := &Surface{
		spec:     spec,
		specs:    make(map[string]MetricSpec, len(spec.Metrics)),
		scale:    make(map[string]float64, len(spec.Metrics)),
		notifier: notifier,
		clock:    clock,
		log:      log,
		cfg:      cfg,
		buffers:  make(map[string]*SeriesBuffer, len(spec.Metrics)),
		seq:      make(map[string]uint64, len(spec.Metrics)),
	}

	for _, name := range spec.Metrics {
		ms, ok := schema.Lookup(name)
		if !ok {
			return nil, errors.New(errors.ErrConfig,
				"Surface '"+spec.Name+"' polls unknown metric '"+name+"'",
				"Use one of the known metric names.")
		}
		s.specs[name] = ms
		s.scale[name] = ms.ScaleMax
		if scaleMax > 0 {
			s.scale[name] = scaleMax
		}
		s.buffers[name] = NewSpecBuffer(ms, capacity)
	}

	s.scheduler = NewScheduler(spec.Name, source, s.apply,
		WithSchedulerLogger(log), WithTicker(ticker))
	return s, nil
}

// Name returns the surface identifier.
func (s *Surface) Name() string { return s.spec.Name }

// Title returns the display title.
func (s *Surface) Title() string { return s.spec.Title }

// Metrics returns the metric names this surface polls.
func (s *Surface) Metrics() []string {
	out := make([]string, len(s.spec.Metrics))
	copy(out, s.spec.Metrics)
	return out
}

// Spec returns the schema entry for one of the surface's metrics.
func (s *Surface) Spec(metric string) (MetricSpec, bool) {
	ms, ok := s.specs[metric]
	return ms, ok
}

// ScaleMax returns the display scale used for metric's percentage, or 0 for
// metrics the surface does not poll.
func (s *Surface) ScaleMax(metric string) float64 { return s.scale[metric] }

// State returns the scheduler state.
func (s *Surface) State() State { return s.scheduler.State() }

// IsLive reports whether the surface is actively polling.
func (s *Surface) IsLive() bool { return s.scheduler.IsLive() }

// Generation returns the scheduler generation.
func (s *Surface) Generation() uint64 { return s.scheduler.Generation() }

// PollConfig returns the surface's refresh settings.
func (s *Surface) PollConfig() PollConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// LastUpdate returns when the surface last appended samples.
func (s *Surface) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// View derives the display values for metric.
func (s *Surface) View(metric string) (View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	buf, ok := s.buffers[metric]
	if !ok {
		return View{}, false
	}
	return Derive(buf, s.scale[metric]), true
}

// CurrentValue returns the newest value of metric.
func (s *Surface) CurrentValue(metric string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	buf, ok := s.buffers[metric]
	if !ok {
		return 0, false
	}
	latest, ok := buf.Latest()
	return latest.Value, ok
}

// Series returns the chart points of metric, oldest first.
func (s *Surface) Series(metric string) []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if buf, ok := s.buffers[metric]; ok {
		return buf.Points()
	}
	return nil
}

// Values returns the raw values of metric, oldest first.
func (s *Surface) Values(metric string) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if buf, ok := s.buffers[metric]; ok {
		return buf.Values()
	}
	return nil
}

// Stats returns the surface's diagnostic counters.
func (s *Surface) Stats() SurfaceStats {
	s.mu.RLock()
	dropped := 0
	for _, buf := range s.buffers {
		dropped += buf.Dropped()
	}
	s.mu.RUnlock()

	return SurfaceStats{
		Scheduler: s.scheduler.Stats(),
		Appended:  s.appended.Load(),
		Synthetic: s.synthetic.Load(),
		Dropped:   dropped,
	}
}

func (s *Surface) setConfig(cfg PollConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *Surface) start() error {
	return s.scheduler.Start(s.PollConfig())
}

// restart applies the stored config, keeping the surface paused if it was.
func (s *Surface) restart() error {
	switch s.State() {
	case StatePolling, StatePaused:
		cfg := s.PollConfig()
		if s.State() == StatePaused {
			cfg.Enabled = false
		}
		return s.scheduler.Restart(cfg)
	default:
		return nil
	}
}

// apply appends one sample per metric from snap and publishes each append.
// Runs on the scheduler's completion path.
func (s *Surface) apply(snap Snapshot) {
	ts := s.clock()
	appended := make([]string, 0, len(s.spec.Metrics))

	s.mu.Lock()
	if ts < s.lastTs {
		ts = s.lastTs
	}
	s.lastTs = ts

	for _, name := range s.spec.Metrics {
		v, ok := snap.Values[name]
		if !ok {
			// Counted as malformed by the buffer below.
			v = math.NaN()
		}

		seq := s.seq[name] + 1
		err := s.buffers[name].Append(Sample{Metric: name, Timestamp: ts, Value: v, Sequence: seq})
		if err != nil {
			s.log.Warn("[%s] dropped sample: %s", s.spec.Name, errors.Short(err))
			continue
		}
		s.seq[name] = seq
		s.appended.Add(1)
		if snap.IsSynthetic(name) {
			s.synthetic.Add(1)
		}
		appended = append(appended, name)
	}
	if len(appended) > 0 {
		s.lastUpdate = time.Now()
	}
	s.mu.Unlock()

	for _, name := range appended {
		s.notifier.Publish(name)
	}
}
