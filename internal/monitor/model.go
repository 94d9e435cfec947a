package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/pulse/internal/live"
)

// LayoutMode represents the responsive layout mode based on terminal size.
type LayoutMode int

const (
	// LayoutMinimal is for terminals < 80 columns: one line per metric, no graphs
	LayoutMinimal LayoutMode = iota
	// LayoutCompact is for terminals 80-120 columns: full cards, two per row
	LayoutCompact
	// LayoutStandard is for terminals 120+ columns: full cards, three per row
	LayoutStandard
)

// Width breakpoints for layout modes
const (
	BreakpointCompact  = 80
	BreakpointStandard = 120
)

// HeightMinimal is the height below which the footer is hidden.
const HeightMinimal = 16

// updateBuffer bounds queued sample notifications between the engine and
// the program.
const updateBuffer = 64

// clockInterval repaints the "last update" age.
const clockInterval = time.Second

// sampleMsg reports that metric received a new sample.
type sampleMsg struct {
	metric string
}

// clockMsg advances the header clock.
type clockMsg time.Time

// Model is the Bubble Tea model for the live dashboard.
type Model struct {
	engine   *live.Engine
	updates  <-chan string
	surfaces []*live.Surface
	keys     KeyMap
	help     help.Model
	now      func() time.Time

	selected   int
	viewMode   ViewMode
	showHelp   bool
	width      int
	height     int
	quitting   bool
	lastSample time.Time
	samples    int

	// notice is the footer's one-line status; noticeIsErr styles it as a failure.
	notice      string
	noticeIsErr bool

	// Detail view viewport for scrollable content
	detailViewport viewport.Model
	viewportReady  bool
}

// Subscribe registers an engine listener that forwards metric names to the
// returned channel without blocking. Call the returned function to stop.
func Subscribe(engine *live.Engine) (<-chan string, func()) {
	ch := make(chan string, updateBuffer)
	unsubscribe := engine.Subscribe(func(metric string) {
		select {
		case ch <- metric:
		default:
		}
	})
	return ch, unsubscribe
}

// NewModel creates a dashboard over engine. updates normally comes from
// Subscribe; nil disables sample notifications.
func NewModel(engine *live.Engine, updates <-chan string) Model {
	return Model{
		engine:   engine,
		updates:  updates,
		surfaces: engine.Surfaces(),
		keys:     DefaultKeyMap(),
		help:     help.New(),
		now:      time.Now,
	}
}

// Run shows the dashboard until the user quits or ctx is cancelled. The
// engine must already be started; Run does not stop it.
func Run(ctx context.Context, engine *live.Engine, opts ...tea.ProgramOption) error {
	updates, unsubscribe := Subscribe(engine)
	defer unsubscribe()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewModel(engine, updates), opts...)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// Init starts the clock and waits for the first sample.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.clockCmd(), m.waitForSample())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}
		if m.viewMode == ViewDetail && m.viewportReady {
			var vpCmd tea.Cmd
			m.detailViewport, vpCmd = m.detailViewport.Update(msg)
			return m, vpCmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// Reserve space for header and footer
		viewportHeight := max(m.height-5, 1)
		if !m.viewportReady {
			m.detailViewport = viewport.New(m.width, viewportHeight)
			m.detailViewport.YPosition = 3
			m.viewportReady = true
		} else {
			m.detailViewport.Width = m.width
			m.detailViewport.Height = viewportHeight
		}
		if m.viewMode == ViewDetail {
			m.updateDetailViewportContent()
		}

	case sampleMsg:
		m.lastSample = m.now()
		m.samples++
		if m.viewMode == ViewDetail {
			m.updateDetailViewportContent()
		}
		return m, m.waitForSample()

	case clockMsg:
		return m, m.clockCmd()
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.viewMode == ViewDetail {
		return m.renderDetailView()
	}
	return m.renderDashboard()
}

// waitForSample blocks on the next engine notification.
func (m Model) waitForSample() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	updates := m.updates
	return func() tea.Msg {
		metric, ok := <-updates
		if !ok {
			return nil
		}
		return sampleMsg{metric: metric}
	}
}

func (m Model) clockCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// SelectedSurface returns the highlighted surface, or nil when there are none.
func (m Model) SelectedSurface() *live.Surface {
	if m.selected >= 0 && m.selected < len(m.surfaces) {
		return m.surfaces[m.selected]
	}
	return nil
}

// SecondsSinceUpdate returns how many seconds have passed since the last sample.
func (m Model) SecondsSinceUpdate() int {
	if m.lastSample.IsZero() {
		return 0
	}
	return int(m.now().Sub(m.lastSample).Seconds())
}

// LayoutMode returns the current layout mode based on terminal width.
func (m Model) LayoutMode() LayoutMode {
	switch {
	case m.width >= BreakpointStandard:
		return LayoutStandard
	case m.width >= BreakpointCompact:
		return LayoutCompact
	default:
		return LayoutMinimal
	}
}

// ShowFooter returns true if the terminal is tall enough to show the footer.
func (m Model) ShowFooter() bool {
	return m.height == 0 || m.height >= HeightMinimal
}
