package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/pulse/internal/live"
	"github.com/rileyhilliard/pulse/internal/ui"
)

// Card layout constants
const (
	cardWidth       = 36
	cardMinBarWidth = 10
	// barSuffixWidth is the " 100%" the bar appends.
	barSuffixWidth = 5
)

// renderCard renders one surface with every metric it polls.
func (m Model) renderCard(s *live.Surface, width int, selected bool, offline bool) string {
	style := CardStyle.Width(width)
	if selected {
		style = CardSelectedStyle.Width(width)
	}
	// Border and padding take four columns.
	lineWidth := max(width-4, cardMinBarWidth)

	lines := []string{m.renderTitleLine(s, lineWidth)}
	for _, metric := range s.Metrics() {
		lines = append(lines, m.renderMetricSection(s, metric, lineWidth)...)
	}
	if offline {
		lines = append(lines, offlineBadge()+MutedStyle.Render(" synthetic values"))
	}

	return style.Render(strings.Join(lines, "\n"))
}

// renderTitleLine shows the title on the left and state plus interval on the right.
func (m Model) renderTitleLine(s *live.Surface, width int) string {
	title := TitleStyle.Render(s.Title())
	right := stateBadge(s.State())
	if cfg := s.PollConfig(); s.IsLive() {
		right += MutedStyle.Render(" " + formatInterval(cfg.IntervalSeconds))
	}
	gap := max(width-lipgloss.Width(title)-lipgloss.Width(right), 1)
	return title + strings.Repeat(" ", gap) + right
}

// renderMetricSection renders the label/value/trend line, the bar, and the sparkline.
func (m Model) renderMetricSection(s *live.Surface, metric string, width int) []string {
	spec, _ := s.Spec(metric)
	view, _ := s.View(metric)

	head := LabelStyle.Render(ui.PadRight(spec.Label, 9)) +
		ValueStyle.Render(ui.PadRight(ui.FormatLatest(view, spec.Unit), 11)) +
		ui.RenderTrend(view.Trend)

	barWidth := max(width-barSuffixWidth, cardMinBarWidth)
	bar := ui.RenderBar(view.Percentage, barWidth)
	if view.Latest == nil {
		bar = MutedStyle.Render(strings.Repeat(string(ui.BarEmpty), barWidth))
	}

	spark := ui.RenderSparkline(s.Values(metric), width, s.ScaleMax(metric))
	if spark == "" {
		spark = MutedStyle.Render("waiting for samples")
	}

	return []string{head, bar, spark}
}

// renderMinimalLine renders a surface on one line for narrow terminals.
func (m Model) renderMinimalLine(s *live.Surface, selected bool) string {
	marker := "  "
	if selected {
		marker = lipgloss.NewStyle().Foreground(ColorAccent).Render("> ")
	}

	parts := []string{TitleStyle.Render(ui.PadRight(s.Title(), 9))}
	for _, metric := range s.Metrics() {
		spec, _ := s.Spec(metric)
		view, _ := s.View(metric)
		parts = append(parts, ui.FormatLatest(view, spec.Unit)+" "+ui.RenderTrend(view.Trend))
	}
	return marker + strings.Join(parts, "  ")
}

// formatInterval renders an interval like "every 3s".
func formatInterval(seconds int) string {
	return fmt.Sprintf("every %ds", seconds)
}
