package live

import (
	"fmt"

	"github.com/rileyhilliard/pulse/internal/errors"
)

// DefaultBufferCapacity is the default number of samples retained per metric.
const DefaultBufferCapacity = 20

// Capacity bounds accepted by NewSeriesBuffer.
const (
	MinBufferCapacity = 2
	MaxBufferCapacity = 600
)

// SeriesBuffer is a fixed-capacity FIFO time series for one metric, backed by
// a ring. It does no locking: the owning Surface serializes access.
type SeriesBuffer struct {
	metric string
	spec   *MetricSpec // optional range check

	data  []Sample
	head  int // next write position
	count int

	dropped int
}

// NewSeriesBuffer creates a buffer for metric with the given capacity.
// Out-of-bounds capacities are replaced with DefaultBufferCapacity.
func NewSeriesBuffer(metric string, capacity int) *SeriesBuffer {
	if capacity < MinBufferCapacity || capacity > MaxBufferCapacity {
		capacity = DefaultBufferCapacity
	}
	return &SeriesBuffer{
		metric: metric,
		data:   make([]Sample, capacity),
	}
}

// NewSpecBuffer creates a buffer that also rejects values outside spec's range.
func NewSpecBuffer(spec MetricSpec, capacity int) *SeriesBuffer {
	b := NewSeriesBuffer(spec.Name, capacity)
	b.spec = &spec
	return b
}

// Metric returns the metric name this buffer accepts.
func (b *SeriesBuffer) Metric() string { return b.metric }

// Cap returns the buffer capacity.
func (b *SeriesBuffer) Cap() int { return len(b.data) }

// Len returns the number of retained samples.
func (b *SeriesBuffer) Len() int { return b.count }

// Dropped returns how many samples were rejected as malformed.
func (b *SeriesBuffer) Dropped() int { return b.dropped }

// Append adds s at the tail, evicting the oldest sample when full.
// Malformed samples are dropped, counted, and reported as an ErrMalformed
// error; the buffer is left unchanged.
func (b *SeriesBuffer) Append(s Sample) error {
	if err := b.validate(s); err != nil {
		b.dropped++
		return err
	}

	b.data[b.head] = s
	b.head = (b.head + 1) % len(b.data)
	if b.count < len(b.data) {
		b.count++
	}
	return nil
}

func (b *SeriesBuffer) validate(s Sample) error {
	if s.Metric != b.metric {
		return errors.New(errors.ErrMalformed,
			fmt.Sprintf("sample for %q appended to %q buffer", s.Metric, b.metric), "")
	}
	if !IsFinite(s.Value) {
		return errors.New(errors.ErrMalformed,
			fmt.Sprintf("%s: value %v is not finite", b.metric, s.Value), "")
	}
	if b.spec != nil && !b.spec.InRange(s.Value) {
		return errors.New(errors.ErrMalformed,
			fmt.Sprintf("%s: value %v outside [%v, %v]", b.metric, s.Value, b.spec.Min, b.spec.Max), "")
	}
	if last, ok := b.Latest(); ok {
		if s.Sequence <= last.Sequence {
			return errors.New(errors.ErrMalformed,
				fmt.Sprintf("%s: sequence %d not after %d", b.metric, s.Sequence, last.Sequence), "")
		}
		if s.Timestamp < last.Timestamp {
			return errors.New(errors.ErrMalformed,
				fmt.Sprintf("%s: timestamp %d before %d", b.metric, s.Timestamp, last.Timestamp), "")
		}
	}
	return nil
}

// Latest returns the most recent sample.
func (b *SeriesBuffer) Latest() (Sample, bool) {
	if b.count == 0 {
		return Sample{}, false
	}
	return b.data[(b.head-1+len(b.data))%len(b.data)], true
}

// Last returns up to n most recent samples in chronological order (oldest first).
func (b *SeriesBuffer) Last(n int) []Sample {
	if n <= 0 || b.count == 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}

	out := make([]Sample, n)
	// head points to the next write position, so the newest sample is at head-1
	start := (b.head - n + len(b.data)) % len(b.data)
	for i := 0; i < n; i++ {
		out[i] = b.data[(start+i)%len(b.data)]
	}
	return out
}

// Snapshot returns a copy of every retained sample, oldest first.
func (b *SeriesBuffer) Snapshot() []Sample {
	return b.Last(b.count)
}

// Points returns the retained samples as chart points, oldest first.
func (b *SeriesBuffer) Points() []Point {
	samples := b.Snapshot()
	points := make([]Point, len(samples))
	for i, s := range samples {
		points[i] = Point{Time: s.Timestamp, Value: s.Value}
	}
	return points
}

// Values returns the retained values, oldest first.
func (b *SeriesBuffer) Values() []float64 {
	samples := b.Snapshot()
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}
	return values
}
