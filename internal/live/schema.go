package live

import (
	"math"
	"sort"
)

// Known metric names. The provider payload is validated against these.
const (
	MetricCPU        = "cpu_percent"
	MetricMemory     = "memory_percent"
	MetricDisk       = "disk_percent"
	MetricNetworkIn  = "network_in_rate"
	MetricNetworkOut = "network_out_rate"
	MetricVisitors   = "visitor_count"
	MetricRequests   = "request_rate"
)

// MetricSpec declares a known metric: where it lives in the provider payload,
// its valid range, the scale used for percentages, and the parameters of its
// synthetic fallback.
type MetricSpec struct {
	Name     string
	Field    string // JSON key in the provider snapshot
	Label    string
	Unit     string
	Min      float64
	Max      float64
	ScaleMax float64
	Baseline float64
	Delta    float64
}

// Clamp bounds v to the spec's valid range.
func (s MetricSpec) Clamp(v float64) float64 {
	return math.Max(s.Min, math.Min(s.Max, v))
}

// InRange reports whether v is finite and within [Min, Max].
func (s MetricSpec) InRange(v float64) bool {
	return IsFinite(v) && v >= s.Min && v <= s.Max
}

// Schema is the fixed set of metrics the engine understands, keyed by name.
type Schema map[string]MetricSpec

// DefaultSchema returns the metrics exposed by the hosting panel's provider.
func DefaultSchema() Schema {
	specs := []MetricSpec{
		{Name: MetricCPU, Field: "cpuPercent", Label: "CPU", Unit: "%", Min: 0, Max: 100, ScaleMax: 100, Baseline: 35, Delta: 8},
		{Name: MetricMemory, Field: "memoryPercent", Label: "Memory", Unit: "%", Min: 0, Max: 100, ScaleMax: 100, Baseline: 55, Delta: 4},
		{Name: MetricDisk, Field: "diskPercent", Label: "Disk", Unit: "%", Min: 0, Max: 100, ScaleMax: 100, Baseline: 62, Delta: 0.5},
		{Name: MetricNetworkIn, Field: "networkInRate", Label: "Net in", Unit: "KB/s", Min: 0, Max: 100000, ScaleMax: 1000, Baseline: 120, Delta: 40},
		{Name: MetricNetworkOut, Field: "networkOutRate", Label: "Net out", Unit: "KB/s", Min: 0, Max: 100000, ScaleMax: 1000, Baseline: 80, Delta: 30},
		{Name: MetricVisitors, Field: "visitorCount", Label: "Visitors", Unit: "", Min: 0, Max: 1000000, ScaleMax: 500, Baseline: 40, Delta: 6},
		{Name: MetricRequests, Field: "requestRate", Label: "Requests", Unit: "req/s", Min: 0, Max: 100000, ScaleMax: 200, Baseline: 25, Delta: 8},
	}

	schema := make(Schema, len(specs))
	for _, s := range specs {
		schema[s.Name] = s
	}
	return schema
}

// Names returns the metric names in sorted order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the spec for a metric.
func (s Schema) Lookup(name string) (MetricSpec, bool) {
	spec, ok := s[name]
	return spec, ok
}

// SurfaceSpec groups the metrics one monitored surface polls for.
type SurfaceSpec struct {
	Name    string
	Title   string
	Metrics []string
}

// DefaultSurfaces returns the dashboard's monitored surfaces in display order.
func DefaultSurfaces() []SurfaceSpec {
	return []SurfaceSpec{
		{Name: "cpu", Title: "CPU", Metrics: []string{MetricCPU}},
		{Name: "memory", Title: "Memory", Metrics: []string{MetricMemory}},
		{Name: "disk", Title: "Disk", Metrics: []string{MetricDisk}},
		{Name: "network", Title: "Network", Metrics: []string{MetricNetworkIn, MetricNetworkOut}},
		{Name: "visitors", Title: "Visitors", Metrics: []string{MetricVisitors}},
		{Name: "requests", Title: "Requests", Metrics: []string{MetricRequests}},
	}
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
