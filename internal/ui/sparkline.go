package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderSparkline draws the most recent width values as block characters.
// With scale > 0 levels are relative to [0, scale] and the line is colored by
// the last value's share of scale. Otherwise levels span the data's own range
// and the line is muted.
func RenderSparkline(data []float64, width int, scale float64) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	lo, hi := 0.0, scale
	if scale <= 0 {
		lo, hi = data[0], data[0]
		for _, v := range data {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}

	var sb strings.Builder
	sb.Grow(len(data) * 3)
	for _, v := range data {
		sb.WriteRune(sparklineBlockRunes[level(v, lo, hi)])
	}

	color := ColorMuted
	if scale > 0 {
		color = ThresholdColor(data[len(data)-1] / scale * 100)
	}
	return lipgloss.NewStyle().Foreground(color).Render(sb.String())
}

// level maps v into one of the block levels. A flat range sits in the middle.
func level(v, lo, hi float64) int {
	n := len(sparklineBlockRunes)
	if hi <= lo {
		return n / 2
	}
	l := int((v - lo) / (hi - lo) * float64(n-1))
	return max(0, min(l, n-1))
}
