package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/pulse/internal/live"
)

// RenderTrend renders a colored trend chip, e.g. "▲ up".
func RenderTrend(t live.Trend) string {
	switch t {
	case live.TrendUp:
		return InfoStyle().Render(SymbolUp + " up")
	case live.TrendDown:
		return lipgloss.NewStyle().Foreground(ColorSecondary).Render(SymbolDown + " down")
	case live.TrendFlat:
		return MutedStyle().Render(SymbolFlat + " flat")
	default:
		return MutedStyle().Render(SymbolUnknown)
	}
}

// FormatValue renders v with its unit. Percentages keep one decimal, rates
// switch to MB/s past 1000 KB/s, and counts are whole numbers.
func FormatValue(v float64, unit string) string {
	switch unit {
	case "%":
		return fmt.Sprintf("%.1f%%", v)
	case "KB/s":
		if v >= 1000 {
			return fmt.Sprintf("%.1f MB/s", v/1000)
		}
		return fmt.Sprintf("%.0f KB/s", v)
	case "":
		return fmt.Sprintf("%.0f", math.Round(v))
	default:
		return strings.TrimSpace(fmt.Sprintf("%.1f %s", v, unit))
	}
}

// FormatLatest renders a view's latest value or a placeholder before the
// first sample.
func FormatLatest(v live.View, unit string) string {
	if v.Latest == nil {
		return "--"
	}
	return FormatValue(*v.Latest, unit)
}

// PadRight pads s with spaces to width visible cells, ignoring ANSI codes.
func PadRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}
