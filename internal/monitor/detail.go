package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/pulse/internal/live"
	"github.com/rileyhilliard/pulse/internal/ui"
)

// Detail view styles
var (
	detailSectionStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorder).
				Padding(0, 1)

	detailGraphHeight = 5
)

// renderDetailView renders the expanded single-surface view.
func (m Model) renderDetailView() string {
	s := m.SelectedSurface()
	if s == nil {
		return LabelStyle.Render("No surface selected")
	}

	body := m.renderDetailBody(s)
	if m.viewportReady {
		body = m.detailViewport.View()
	}

	return m.renderDetailHeader(s) + "\n\n" + body + "\n" + m.renderDetailFooter()
}

// updateDetailViewportContent refreshes the scrollable content for the selected surface.
func (m *Model) updateDetailViewportContent() {
	if !m.viewportReady {
		return
	}
	if s := m.SelectedSurface(); s != nil {
		m.detailViewport.SetContent(m.renderDetailBody(s))
	}
}

func (m Model) renderDetailHeader(s *live.Surface) string {
	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render(s.Title())

	header := title + "  " + stateBadge(s.State())
	if cfg := s.PollConfig(); cfg.Enabled {
		header += MutedStyle.Render("  " + formatInterval(cfg.IntervalSeconds))
	}
	if m.engine.Offline() {
		header += "  " + offlineBadge()
	}
	return header
}

// renderDetailBody renders one section per metric plus the scheduler counters.
func (m Model) renderDetailBody(s *live.Surface) string {
	width := max(m.width-4, 40)

	var sections []string
	for _, metric := range s.Metrics() {
		sections = append(sections, m.renderDetailMetric(s, metric, width))
	}
	sections = append(sections, m.renderDetailStats(s, width))

	return strings.Join(sections, "\n")
}

func (m Model) renderDetailMetric(s *live.Surface, metric string, width int) string {
	spec, _ := s.Spec(metric)
	view, _ := s.View(metric)
	values := s.Values(metric)
	inner := width - 4

	lines := []string{
		TitleStyle.Render(spec.Label) + "  " +
			ValueStyle.Render(ui.FormatLatest(view, spec.Unit)) + "  " +
			ui.RenderTrend(view.Trend) +
			MutedStyle.Render(fmt.Sprintf("  %.0f%% of %s", view.Percentage, ui.FormatValue(s.ScaleMax(metric), spec.Unit))),
	}

	if len(values) == 0 {
		lines = append(lines, MutedStyle.Render("Waiting for samples..."))
		return detailSectionStyle.Width(width).Render(strings.Join(lines, "\n"))
	}

	lines = append(lines, RenderTimeSeriesGraph(values, inner, detailGraphHeight, s.ScaleMax(metric), ColorGraph))

	st := summarize(values)
	lines = append(lines, LabelStyle.Render(fmt.Sprintf("min %s  avg %s  max %s  %d samples",
		ui.FormatValue(st.Min, spec.Unit),
		ui.FormatValue(st.Avg, spec.Unit),
		ui.FormatValue(st.Max, spec.Unit),
		st.Count)))

	return detailSectionStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderDetailStats(s *live.Surface, width int) string {
	st := s.Stats()
	sc := st.Scheduler

	lines := []string{
		TitleStyle.Render("Polling"),
		LabelStyle.Render(fmt.Sprintf("ticks %d  fetches %d  applied %d", sc.Ticks, sc.Fetches, sc.Applied)),
		LabelStyle.Render(fmt.Sprintf("skipped %d in flight, %d paused  stale %d", sc.SkippedInFlight, sc.SkippedPaused, sc.StaleDiscarded)),
		LabelStyle.Render(fmt.Sprintf("samples %d  synthetic %d  dropped %d", st.Appended, st.Synthetic, st.Dropped)),
	}
	if t := s.LastUpdate(); !t.IsZero() {
		lines = append(lines, MutedStyle.Render("last update "+t.Format("15:04:05")))
	}
	if failures := m.engine.ConsecutiveFailures(); failures > 0 {
		lines = append(lines, NoticeErrorStyle.Render(fmt.Sprintf("%d provider failures in a row", failures)))
	}

	return detailSectionStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderDetailFooter() string {
	return FooterStyle.Render("esc back | ↑↓ scroll | p pause | r refresh | q quit")
}
