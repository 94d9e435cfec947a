package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// graphFill shades filled cells from the baseline up.
var graphFill = []rune{'█', '▓', '▒', '░'}

// RenderTimeSeriesGraph renders a multi-row graph where each column is one
// sample, filled from the bottom in proportion to its share of scale. A
// non-positive scale falls back to the data's maximum.
func RenderTimeSeriesGraph(data []float64, width, height int, scale float64, color lipgloss.Color) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	if scale <= 0 {
		for _, v := range data {
			scale = max(scale, v)
		}
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	rows := make([]strings.Builder, height)
	for _, val := range data {
		normalized := 0.0
		if scale > 0 {
			normalized = max(0, min(val/scale, 1))
		}
		filled := int(normalized*float64(height) + 0.5)

		for row := 0; row < height; row++ {
			fromBottom := height - 1 - row
			if fromBottom < filled {
				idx := min(fromBottom*len(graphFill)/max(filled, 1), len(graphFill)-1)
				rows[row].WriteRune(graphFill[idx])
			} else {
				rows[row].WriteRune(' ')
			}
		}
	}

	style := lipgloss.NewStyle().Foreground(color)
	lines := make([]string, height)
	for i := range rows {
		lines[i] = style.Render(rows[i].String())
	}
	return strings.Join(lines, "\n")
}

// windowStats summarizes a history window.
type windowStats struct {
	Min, Max, Avg float64
	Count         int
}

func summarize(values []float64) windowStats {
	if len(values) == 0 {
		return windowStats{}
	}
	s := windowStats{Min: values[0], Max: values[0], Count: len(values)}
	var sum float64
	for _, v := range values {
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
		sum += v
	}
	s.Avg = sum / float64(len(values))
	return s
}
