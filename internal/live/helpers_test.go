package live

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const waitFor = 2 * time.Second
const pollEvery = 5 * time.Millisecond

// manualTicker fires only when a test calls Fire.
type manualTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{c: make(chan time.Time)}
}

func (t *manualTicker) C() <-chan time.Time { return t.c }
func (t *manualTicker) Stop()               { t.stopped.Store(true) }

func (t *manualTicker) Fire(tb testing.TB) {
	tb.Helper()
	select {
	case t.c <- time.Now():
	case <-time.After(waitFor):
		tb.Fatal("tick was not consumed")
	}
}

// tickerFactory records every ticker a scheduler creates.
type tickerFactory struct {
	mu        sync.Mutex
	tickers   []*manualTicker
	intervals []time.Duration
}

func (f *tickerFactory) New(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := newManualTicker()
	f.tickers = append(f.tickers, t)
	f.intervals = append(f.intervals, d)
	return t
}

func (f *tickerFactory) Last() *manualTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[len(f.tickers)-1]
}

func (f *tickerFactory) Intervals() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.intervals))
	copy(out, f.intervals)
	return out
}

// pendingFetch is one outstanding call on a gatedSource.
type pendingFetch struct {
	ctx   context.Context
	reply chan Snapshot
}

// gatedSource blocks every fetch until the test replies. It ignores context
// cancellation to model a slow provider that answers after Stop.
type gatedSource struct {
	calls    chan *pendingFetch
	failures atomic.Int32
}

func newGatedSource() *gatedSource {
	return &gatedSource{calls: make(chan *pendingFetch, 16)}
}

func (s *gatedSource) FetchSnapshot(ctx context.Context) Snapshot {
	p := &pendingFetch{ctx: ctx, reply: make(chan Snapshot, 1)}
	s.calls <- p
	return <-p.reply
}

func (s *gatedSource) ConsecutiveFailures() int { return int(s.failures.Load()) }

func (s *gatedSource) next(tb testing.TB) *pendingFetch {
	tb.Helper()
	select {
	case p := <-s.calls:
		return p
	case <-time.After(waitFor):
		tb.Fatal("expected a fetch")
		return nil
	}
}

func (s *gatedSource) expectNone(tb testing.TB) {
	tb.Helper()
	select {
	case <-s.calls:
		tb.Fatal("unexpected fetch")
	case <-time.After(50 * time.Millisecond):
	}
}

// countingSource answers immediately with values 1, 2, 3, ... for every metric.
type countingSource struct {
	metrics  []string
	n        atomic.Int64
	failures atomic.Int32
}

func (s *countingSource) FetchSnapshot(context.Context) Snapshot {
	v := float64(s.n.Add(1))
	values := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		values[m] = v
	}
	return Snapshot{Values: values}
}

func (s *countingSource) ConsecutiveFailures() int { return int(s.failures.Load()) }

func snapshotOf(metric string, v float64) Snapshot {
	return Snapshot{Values: map[string]float64{metric: v}}
}

// recorder collects applied snapshots.
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) apply(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, len(r.snaps))
	copy(out, r.snaps)
	return out
}

func (r *recorder) count() int {
	return len(r.all())
}
