package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/pulse/internal/live"
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderSurfaces())

	if m.ShowFooter() {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}

	return b.String()
}

// renderHeader renders the title with global refresh state and freshness.
func (m Model) renderHeader() string {
	cfg := m.engine.RefreshConfig()

	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("pulse")

	state := live.StatePaused
	if m.engine.IsLive() {
		state = live.StatePolling
	} else if cfg.Enabled {
		state = live.StateIdle
	}

	stats := lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Render(fmt.Sprintf(" | %s | %d surfaces | last update %s",
			formatInterval(cfg.IntervalSeconds), len(m.surfaces), m.updateAge()))

	header := title + " " + stateBadge(state) + stats
	if m.engine.Offline() {
		header += " " + offlineBadge()
	}
	return HeaderStyle.Render(header)
}

func (m Model) updateAge() string {
	if m.lastSample.IsZero() {
		return "pending"
	}
	switch age := m.SecondsSinceUpdate(); age {
	case 0:
		return "just now"
	default:
		return fmt.Sprintf("%ds ago", age)
	}
}

// renderSurfaces renders the card grid, or one line per surface when narrow.
func (m Model) renderSurfaces() string {
	if len(m.surfaces) == 0 {
		return LabelStyle.Render("No surfaces configured")
	}

	offline := m.engine.Offline()
	if m.LayoutMode() == LayoutMinimal && m.width > 0 {
		lines := make([]string, len(m.surfaces))
		for i, s := range m.surfaces {
			lines[i] = m.renderMinimalLine(s, i == m.selected)
		}
		return strings.Join(lines, "\n")
	}

	cards := make([]string, len(m.surfaces))
	for i, s := range m.surfaces {
		cards[i] = m.renderCard(s, cardWidth, i == m.selected, offline)
	}
	return m.layoutCards(cards)
}

// cardsPerRow is how many cards fit side by side.
func (m Model) cardsPerRow() int {
	switch m.LayoutMode() {
	case LayoutStandard:
		return 3
	case LayoutCompact:
		return 2
	default:
		return 1
	}
}

// layoutCards arranges cards in rows based on terminal width.
func (m Model) layoutCards(cards []string) string {
	perRow := m.cardsPerRow()

	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := min(i+perRow, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderFooter renders the short key help and the latest notice.
func (m Model) renderFooter() string {
	footer := m.help.View(m.keys)
	if m.notice != "" {
		style := NoticeStyle
		if m.noticeIsErr {
			style = NoticeErrorStyle
		}
		footer += "  " + style.Render(m.notice)
	}
	return FooterStyle.Render(footer)
}
