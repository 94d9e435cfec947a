package live

import "context"

// Sample is one timestamped, sequenced value for a named metric.
type Sample struct {
	Metric    string
	Timestamp int64 // monotonic milliseconds since engine start
	Value     float64
	Sequence  uint64
}

// Point is the chart-facing projection of a Sample.
type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Snapshot is the result of one acquisition from a Source.
type Snapshot struct {
	// Values holds one value per metric. Every metric a surface polls is
	// present, either real or synthetic.
	Values map[string]float64
	// Synthetic marks metrics whose value came from the fallback generator.
	Synthetic map[string]bool
	// ProviderTimeMs is the provider's own timestamp when it sent one.
	ProviderTimeMs int64
	// Err is the transport failure behind a fully synthetic snapshot.
	// Diagnostics only; callers never need to handle it.
	Err error
}

// IsSynthetic reports whether the named metric was generated locally.
func (s Snapshot) IsSynthetic(metric string) bool {
	return s.Synthetic[metric]
}

// Source acquires one metrics snapshot per call. Implementations never fail:
// they degrade to synthetic values and track failures internally.
type Source interface {
	FetchSnapshot(ctx context.Context) Snapshot
	ConsecutiveFailures() int
}
