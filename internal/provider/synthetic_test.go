package provider

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/rileyhilliard/pulse/internal/live"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded() rand.Source { return rand.NewPCG(1, 2) }

func TestSynthetic_ValuesStayNearBaselineAndInRange(t *testing.T) {
	schema := live.DefaultSchema()
	g := NewSynthetic(schema, seeded())

	for _, name := range schema.Names() {
		spec := schema[name]
		for i := 0; i < 500; i++ {
			v, ok := g.Value(name)
			require.True(t, ok)
			assert.True(t, spec.InRange(v), "%s=%v", name, v)
			assert.InDelta(t, spec.Baseline, v, spec.Delta, name)
		}
	}
}

func TestSynthetic_ClampsNearRangeEdges(t *testing.T) {
	schema := live.Schema{
		"edge": {Name: "edge", Min: 0, Max: 10, Baseline: 9.5, Delta: 5},
	}
	g := NewSynthetic(schema, seeded())

	for i := 0; i < 200; i++ {
		v, _ := g.Value("edge")
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 10.0)
	}
}

func TestSynthetic_UsesLastRealValue(t *testing.T) {
	g := NewSynthetic(live.DefaultSchema(), seeded())

	g.Observe(live.MetricCPU, 90)

	for i := 0; i < 100; i++ {
		v, _ := g.Value(live.MetricCPU)
		assert.InDelta(t, 90, v, 8)
	}
}

func TestSynthetic_IgnoresNonFiniteObservations(t *testing.T) {
	g := NewSynthetic(live.DefaultSchema(), seeded())
	g.Observe(live.MetricMemory, math.NaN())

	v, _ := g.Value(live.MetricMemory)
	assert.InDelta(t, 55, v, 4)
}

func TestSynthetic_UnknownMetric(t *testing.T) {
	g := NewSynthetic(nil, seeded())

	_, ok := g.Value("gpu_percent")
	assert.False(t, ok)
}

func TestSynthetic_IsDeterministicForASeed(t *testing.T) {
	a := NewSynthetic(live.DefaultSchema(), seeded())
	b := NewSynthetic(live.DefaultSchema(), seeded())

	for i := 0; i < 10; i++ {
		va, _ := a.Value(live.MetricRequests)
		vb, _ := b.Value(live.MetricRequests)
		assert.Equal(t, va, vb)
	}
}

func TestSynthetic_SnapshotCoversSchema(t *testing.T) {
	g := NewSynthetic(live.DefaultSchema(), seeded())

	snap := g.Snapshot()

	assert.Len(t, snap.Values, 7)
	for _, name := range live.DefaultSchema().Names() {
		assert.True(t, snap.IsSynthetic(name), name)
	}
}

func TestSynthetic_ConcurrentUse(t *testing.T) {
	g := NewSynthetic(live.DefaultSchema(), nil)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				g.Observe(live.MetricCPU, float64(j%100))
				g.Value(live.MetricCPU)
			}
		}()
	}
	wg.Wait()
}
