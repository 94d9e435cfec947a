package live

import "math"

// Trend is the direction between the two most recent samples.
type Trend int

const (
	TrendUnknown Trend = iota
	TrendUp
	TrendDown
	TrendFlat
)

// String returns the trend chip label.
func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	case TrendFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// MarshalText renders the trend as its label in JSON payloads.
func (t Trend) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a trend label. Unrecognized labels are TrendUnknown.
func (t *Trend) UnmarshalText(b []byte) error {
	switch string(b) {
	case "up":
		*t = TrendUp
	case "down":
		*t = TrendDown
	case "flat":
		*t = TrendFlat
	default:
		*t = TrendUnknown
	}
	return nil
}

// View holds the display-ready values derived from one buffer.
type View struct {
	Metric     string   `json:"metric"`
	Latest     *float64 `json:"latest"`
	Percentage float64  `json:"percentage"`
	Trend      Trend    `json:"trend"`
	Delta      float64  `json:"delta"`
	Samples    int      `json:"samples"`
}

// Derive computes the latest value, percentage of scaleMax, and trend.
// An empty buffer yields a nil Latest, zero percentage, and TrendUnknown.
func Derive(b *SeriesBuffer, scaleMax float64) View {
	v := View{Metric: b.Metric(), Trend: TrendUnknown, Samples: b.Len()}

	last := b.Last(2)
	if len(last) == 0 {
		return v
	}

	latest := last[len(last)-1].Value
	v.Latest = &latest
	v.Percentage = Percentage(latest, scaleMax)

	if len(last) == 2 {
		v.Delta = latest - last[0].Value
		v.Trend = trendOf(v.Delta)
	}
	return v
}

// Percentage returns value as a percentage of scaleMax, clamped to [0, 100].
func Percentage(value, scaleMax float64) float64 {
	if scaleMax <= 0 || !IsFinite(value) {
		return 0
	}
	return math.Max(0, math.Min(100, value/scaleMax*100))
}

func trendOf(delta float64) Trend {
	switch {
	case delta > 0:
		return TrendUp
	case delta < 0:
		return TrendDown
	default:
		return TrendFlat
	}
}
