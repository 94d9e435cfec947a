package live

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/logger"
)

// Refresh interval bounds, in seconds.
const (
	MinIntervalSeconds     = 1
	MaxIntervalSeconds     = 30
	DefaultIntervalSeconds = 3
)

// State is the lifecycle state of a Scheduler.
type State int32

const (
	StateIdle State = iota
	StatePolling
	StatePaused
	StateStopped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PollConfig controls how often a scheduler polls and whether it polls at all.
type PollConfig struct {
	IntervalSeconds int  `json:"interval_seconds"`
	Enabled         bool `json:"enabled"`
}

// DefaultPollConfig returns a 3s, enabled config.
func DefaultPollConfig() PollConfig {
	return PollConfig{IntervalSeconds: DefaultIntervalSeconds, Enabled: true}
}

// Interval returns the polling interval as a duration.
func (c PollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Validate checks the interval bounds.
func (c PollConfig) Validate() error {
	return ValidateInterval(c.IntervalSeconds)
}

// ValidateInterval checks that seconds is within [MinIntervalSeconds, MaxIntervalSeconds].
func ValidateInterval(seconds int) error {
	if seconds < MinIntervalSeconds || seconds > MaxIntervalSeconds {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Refresh interval %ds is out of range", seconds),
			fmt.Sprintf("Pick a value between %d and %d seconds.", MinIntervalSeconds, MaxIntervalSeconds))
	}
	return nil
}

// Ticker is the timer a Scheduler waits on. time.Ticker satisfies it through
// NewTicker; tests substitute a manual one.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTicker wraps time.NewTicker.
func NewTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// ApplyFunc consumes a snapshot that is still current when its fetch completes.
type ApplyFunc func(Snapshot)

// SchedulerStats are diagnostic counters for one scheduler.
type SchedulerStats struct {
	Ticks           uint64 `json:"ticks"`
	Fetches         uint64 `json:"fetches"`
	Applied         uint64 `json:"applied"`
	SkippedInFlight uint64 `json:"skipped_in_flight"`
	SkippedPaused   uint64 `json:"skipped_paused"`
	StaleDiscarded  uint64 `json:"stale_discarded"`
}

// Add sums two stats.
func (s SchedulerStats) Add(o SchedulerStats) SchedulerStats {
	return SchedulerStats{
		Ticks:           s.Ticks + o.Ticks,
		Fetches:         s.Fetches + o.Fetches,
		Applied:         s.Applied + o.Applied,
		SkippedInFlight: s.SkippedInFlight + o.SkippedInFlight,
		SkippedPaused:   s.SkippedPaused + o.SkippedPaused,
		StaleDiscarded:  s.StaleDiscarded + o.StaleDiscarded,
	}
}

// Scheduler polls a Source on an interval and hands current results to an
// ApplyFunc. At most one fetch is in flight; a tick that finds one
// outstanding is skipped. Stop bumps the generation so a fetch that
// completes afterwards is discarded.
type Scheduler struct {
	name      string
	source    Source
	apply     ApplyFunc
	log       logger.Logger
	newTicker TickerFunc

	// mu serializes lifecycle transitions, tick decisions and apply.
	mu       sync.Mutex
	cfg      PollConfig
	inflight bool
	ticker   Ticker
	done     chan struct{}
	cancel   context.CancelFunc
	ctx      context.Context

	// Readable without mu so listeners running inside apply can query them.
	state atomic.Int32
	gen   atomic.Uint64

	ticks           atomic.Uint64
	fetches         atomic.Uint64
	applied         atomic.Uint64
	skippedInFlight atomic.Uint64
	skippedPaused   atomic.Uint64
	staleDiscarded  atomic.Uint64
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the scheduler's logger.
func WithSchedulerLogger(l logger.Logger) SchedulerOption {
	return func(s *Scheduler) { s.log = logger.OrDefault(l) }
}

// WithTicker overrides the ticker factory.
func WithTicker(f TickerFunc) SchedulerOption {
	return func(s *Scheduler) {
		if f != nil {
			s.newTicker = f
		}
	}
}

// NewScheduler creates an idle scheduler. name is used in log lines.
func NewScheduler(name string, source Source, apply ApplyFunc, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		name:      name,
		source:    source,
		apply:     apply,
		log:       logger.Default(),
		newTicker: NewTicker,
		cfg:       DefaultPollConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Generation returns the current generation counter.
func (s *Scheduler) Generation() uint64 { return s.gen.Load() }

// IsLive reports whether the scheduler is actively polling.
func (s *Scheduler) IsLive() bool { return s.State() == StatePolling }

// Config returns the config of the current (or last) run.
func (s *Scheduler) Config() PollConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// InFlight reports whether a fetch of the current generation is outstanding.
func (s *Scheduler) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight
}

// Start begins polling with cfg. It is valid from Idle or Stopped; a disabled
// cfg starts in Paused. Start performs one immediate tick when enabled.
func (s *Scheduler) Start(cfg PollConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.State(); st == StatePolling || st == StatePaused {
		return errors.New(errors.ErrState,
			fmt.Sprintf("%s scheduler is already %s", s.name, st),
			"Stop it before starting it again.")
	}

	gen := s.gen.Add(1)
	s.cfg = cfg
	s.inflight = false
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.ticker = s.newTicker(cfg.Interval())
	s.done = make(chan struct{})

	if cfg.Enabled {
		s.state.Store(int32(StatePolling))
	} else {
		s.state.Store(int32(StatePaused))
	}

	go s.loop(gen, s.ticker.C(), s.done)

	s.log.Debug("[%s] started gen=%d interval=%ds enabled=%t", s.name, gen, cfg.IntervalSeconds, cfg.Enabled)

	if cfg.Enabled {
		s.tickLocked(gen, false)
	}
	return nil
}

// Pause stops future ticks from fetching. An in-flight fetch still applies.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() == StatePolling {
		s.state.Store(int32(StatePaused))
		s.log.Debug("[%s] paused", s.name)
	}
}

// Resume re-enables ticks after Pause.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() == StatePaused {
		s.state.Store(int32(StatePolling))
		s.cfg.Enabled = true
		s.log.Debug("[%s] resumed", s.name)
	}
}

// Stop cancels the timer and any in-flight fetch and invalidates the current
// generation. It is idempotent, and no apply runs after it returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.State()
	if st != StatePolling && st != StatePaused {
		return
	}

	s.ticker.Stop()
	close(s.done)
	s.cancel()
	s.inflight = false
	gen := s.gen.Add(1)
	s.state.Store(int32(StateStopped))

	s.log.Debug("[%s] stopped, now gen=%d", s.name, gen)
}

// Restart stops the scheduler if it is running and starts it with cfg.
func (s *Scheduler) Restart(cfg PollConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.Stop()
	return s.Start(cfg)
}

// TriggerNow runs an out-of-band tick. It follows the same in-flight rule as
// timer ticks and also works while Paused, so a manual refresh is possible
// with auto-refresh off.
func (s *Scheduler) TriggerNow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked(s.gen.Load(), true)
}

// Stats returns a copy of the diagnostic counters.
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		Ticks:           s.ticks.Load(),
		Fetches:         s.fetches.Load(),
		Applied:         s.applied.Load(),
		SkippedInFlight: s.skippedInFlight.Load(),
		SkippedPaused:   s.skippedPaused.Load(),
		StaleDiscarded:  s.staleDiscarded.Load(),
	}
}

func (s *Scheduler) loop(gen uint64, c <-chan time.Time, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-c:
			s.tick(gen)
		}
	}
}

func (s *Scheduler) tick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked(gen, false)
}

// tickLocked decides whether to launch a fetch. Must be called with s.mu held.
func (s *Scheduler) tickLocked(gen uint64, manual bool) {
	// A loop goroutine from a previous run may still be waiting on mu.
	if gen != s.gen.Load() {
		return
	}

	s.ticks.Add(1)

	switch s.State() {
	case StatePolling:
	case StatePaused:
		if !manual {
			s.skippedPaused.Add(1)
			return
		}
	default:
		return
	}

	if s.inflight {
		s.skippedInFlight.Add(1)
		s.log.Debug("[%s] tick skipped, fetch still in flight", s.name)
		return
	}

	s.inflight = true
	s.fetches.Add(1)
	go s.fetch(s.ctx, gen)
}

func (s *Scheduler) fetch(ctx context.Context, gen uint64) {
	snap := s.source.FetchSnapshot(ctx)
	s.complete(gen, snap)
}

func (s *Scheduler) complete(gen uint64, snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen.Load() {
		s.staleDiscarded.Add(1)
		s.log.Debug("[%s] discarded stale result from gen=%d (now %d)", s.name, gen, s.gen.Load())
		return
	}

	s.inflight = false
	if s.apply != nil {
		s.apply(snap)
	}
	s.applied.Add(1)
}
