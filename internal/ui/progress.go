package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Bar block characters.
const (
	BarFilled = '█'
	BarEmpty  = '░'
)

// RenderBar draws a percentage bar width cells wide followed by the
// percentage, e.g. "████████░░░░  67%". Percent is clamped to 0-100 and the
// bar is colored by ThresholdColor.
func RenderBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	percent = max(0, min(percent, 100))

	filled := int(percent / 100 * float64(width))

	var sb strings.Builder
	sb.Grow(width * 3)
	sb.WriteString(strings.Repeat(string(BarFilled), filled))
	sb.WriteString(strings.Repeat(string(BarEmpty), width-filled))

	style := lipgloss.NewStyle().Foreground(ThresholdColor(percent))
	return style.Render(sb.String()) + fmt.Sprintf(" %3.0f%%", percent)
}
