package monitor

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/pulse/internal/errors"
)

// ViewMode defines the current display mode of the dashboard.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
)

// KeyMap holds the dashboard's key bindings.
type KeyMap struct {
	Quit       key.Binding
	ToggleAuto key.Binding
	Slower     key.Binding
	Faster     key.Binding
	Refresh    key.Binding
	Up         key.Binding
	Down       key.Binding
	Expand     key.Binding
	Collapse   key.Binding
	Help       key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		ToggleAuto: key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p/space", "pause/resume")),
		Slower:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "slower")),
		Faster:     key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "faster")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next")),
		Expand:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Collapse:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

// ShortHelp implements help.KeyMap for the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.ToggleAuto, k.Slower, k.Faster, k.Refresh, k.Help}
}

// FullHelp implements help.KeyMap for the overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.ToggleAuto, k.Slower, k.Faster, k.Refresh},
		{k.Up, k.Down, k.Expand, k.Collapse, k.Help},
	}
}

// HandleKeyMsg processes keyboard input and returns updated model state and command.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	// Help toggle takes priority
	if key.Matches(msg, m.keys.Help) {
		m.showHelp = !m.showHelp
		return true, nil
	}

	if key.Matches(msg, m.keys.Collapse) {
		switch {
		case m.showHelp:
			m.showHelp = false
		case m.viewMode == ViewDetail:
			m.viewMode = ViewList
		}
		return true, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return true, tea.Quit

	case key.Matches(msg, m.keys.ToggleAuto):
		enabled := !m.engine.RefreshConfig().Enabled
		m.report(m.engine.ToggleAutoRefresh(enabled))
		if m.notice == "" {
			if enabled {
				m.notice = "auto-refresh on"
			} else {
				m.notice = "auto-refresh paused"
			}
		}
		return true, nil

	case key.Matches(msg, m.keys.Slower):
		m.stepInterval(1)
		return true, nil

	case key.Matches(msg, m.keys.Faster):
		m.stepInterval(-1)
		return true, nil

	case key.Matches(msg, m.keys.Refresh):
		m.engine.Refresh()
		m.report(nil)
		m.notice = "refreshing"
		return true, nil

	case key.Matches(msg, m.keys.Up):
		if m.viewMode == ViewDetail {
			return false, nil
		}
		if m.selected > 0 {
			m.selected--
		}
		return true, nil

	case key.Matches(msg, m.keys.Down):
		if m.viewMode == ViewDetail {
			return false, nil
		}
		if m.selected < len(m.surfaces)-1 {
			m.selected++
		}
		return true, nil

	case key.Matches(msg, m.keys.Expand):
		if m.viewMode == ViewList && len(m.surfaces) > 0 {
			m.viewMode = ViewDetail
			m.updateDetailViewportContent()
		}
		return true, nil
	}

	return false, nil
}

// stepInterval moves the global interval by delta seconds. Out-of-range
// requests leave the interval unchanged and show the reason.
func (m *Model) stepInterval(delta int) {
	next := m.engine.RefreshConfig().IntervalSeconds + delta
	m.report(m.engine.SetInterval(next))
	if m.notice == "" {
		m.notice = "polling " + formatInterval(next)
	}
}

// report replaces the footer notice with err's short form, or clears it.
func (m *Model) report(err error) {
	m.notice = ""
	m.noticeIsErr = err != nil
	if err != nil {
		m.notice = errors.Short(err)
	}
}
