package monitor

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/pulse/internal/live"
	"github.com/rileyhilliard/pulse/internal/ui"
)

// Dashboard color palette
const (
	// Background colors
	ColorDarkBg    = lipgloss.Color("#0A0A0F") // Deep void
	ColorSurfaceBg = lipgloss.Color("#12121A") // Dark surface
	ColorBorder    = lipgloss.Color("#2A2A4A") // Glass border (purple tint)

	// Semantic colors - neon style
	ColorHealthy  = lipgloss.Color("#39FF14") // Neon green
	ColorWarning  = lipgloss.Color("#FFAA00") // Electric amber
	ColorCritical = lipgloss.Color("#FF0055") // Hot red-pink

	// Text colors
	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0") // Lavender gray
	ColorTextMuted     = lipgloss.Color("#6B6B8D") // Purple-gray

	ColorAccent = lipgloss.Color("#FF2E97") // Neon pink
	ColorGraph  = lipgloss.Color("#00FFFF") // Neon cyan
)

// Base styles for the dashboard
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginRight(1)

	CardSelectedStyle = CardStyle.
				BorderForeground(ColorAccent)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	OfflineStyle = lipgloss.NewStyle().
			Foreground(ColorCritical).
			Bold(true)

	NoticeErrorStyle = lipgloss.NewStyle().
				Foreground(ColorCritical)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)
)

// stateBadge renders a surface's polling state as a colored symbol and word.
func stateBadge(s live.State) string {
	switch s {
	case live.StatePolling:
		return lipgloss.NewStyle().Foreground(ColorHealthy).Render(ui.SymbolLive + " live")
	case live.StatePaused:
		return lipgloss.NewStyle().Foreground(ColorWarning).Render(ui.SymbolPaused + " paused")
	default:
		return MutedStyle.Render(ui.SymbolIdle + " " + s.String())
	}
}

// offlineBadge flags that displayed values are synthetic.
func offlineBadge() string {
	return OfflineStyle.Render(ui.SymbolFail + " offline")
}
