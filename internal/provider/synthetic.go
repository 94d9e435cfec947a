package provider

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rileyhilliard/pulse/internal/live"
)

// Synthetic produces plausible bounded values for metrics the provider could
// not deliver. Each value is baseline + uniform(-delta, +delta), clamped to
// the metric's range. Once a real value has been observed it replaces the
// schema baseline, so fallback values stay near the last real reading.
type Synthetic struct {
	schema live.Schema

	mu   sync.Mutex
	rng  *rand.Rand
	last map[string]float64
}

// NewSynthetic creates a generator. A nil src seeds from the clock.
func NewSynthetic(schema live.Schema, src rand.Source) *Synthetic {
	if schema == nil {
		schema = live.DefaultSchema()
	}
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>1|1)
	}
	return &Synthetic{
		schema: schema,
		rng:    rand.New(src),
		last:   make(map[string]float64),
	}
}

// Observe records a real value to anchor later fallbacks for metric.
func (g *Synthetic) Observe(metric string, v float64) {
	if !live.IsFinite(v) {
		return
	}
	g.mu.Lock()
	g.last[metric] = v
	g.mu.Unlock()
}

// Value returns one synthetic value for metric, or false for an unknown metric.
func (g *Synthetic) Value(metric string) (float64, bool) {
	spec, ok := g.schema.Lookup(metric)
	if !ok {
		return 0, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	base := spec.Baseline
	if last, ok := g.last[metric]; ok {
		base = last
	}
	jitter := (g.rng.Float64()*2 - 1) * spec.Delta
	return spec.Clamp(base + jitter), true
}

// Snapshot returns a fully synthetic snapshot covering every metric in the
// schema.
func (g *Synthetic) Snapshot() live.Snapshot {
	names := g.schema.Names()
	snap := live.Snapshot{
		Values:    make(map[string]float64, len(names)),
		Synthetic: make(map[string]bool, len(names)),
	}
	for _, name := range names {
		v, _ := g.Value(name)
		snap.Values[name] = v
		snap.Synthetic[name] = true
	}
	return snap
}
