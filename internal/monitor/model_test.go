package monitor

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/pulse/internal/live"
	"github.com/rileyhilliard/pulse/internal/logger"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

type quietTicker struct{ c chan time.Time }

func (t quietTicker) C() <-chan time.Time { return t.c }
func (t quietTicker) Stop()               {}

type fixedSource struct {
	values   map[string]float64
	failures int
}

func (s fixedSource) FetchSnapshot(context.Context) live.Snapshot {
	values := make(map[string]float64, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	return live.Snapshot{Values: values}
}

func (s fixedSource) ConsecutiveFailures() int { return s.failures }

func newEngine(t *testing.T, src live.Source) *live.Engine {
	t.Helper()
	e, err := live.New(live.DefaultEngineConfig(), src,
		live.WithLogger(logger.Noop()),
		live.WithTickerFunc(func(time.Duration) live.Ticker { return quietTicker{c: make(chan time.Time)} }))
	require.NoError(t, err)
	t.Cleanup(e.Stop)
	return e
}

func sampleValues() map[string]float64 {
	return map[string]float64{
		live.MetricCPU:        42,
		live.MetricMemory:     63,
		live.MetricDisk:       70,
		live.MetricNetworkIn:  512,
		live.MetricNetworkOut: 128,
		live.MetricVisitors:   17,
		live.MetricRequests:   9.5,
	}
}

// startedEngine starts e and waits until every surface applied once.
func startedEngine(t *testing.T, src live.Source) *live.Engine {
	t.Helper()
	e := newEngine(t, src)
	require.NoError(t, e.Start())
	require.Eventually(t, func() bool {
		return e.Stats().Totals.Scheduler.Applied == uint64(len(e.Surfaces()))
	}, 2*time.Second, 5*time.Millisecond)
	return e
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestNewModel(t *testing.T) {
	e := newEngine(t, fixedSource{})

	m := NewModel(e, nil)

	assert.Len(t, m.surfaces, 6)
	assert.Equal(t, "cpu", m.SelectedSurface().Name())
	assert.Equal(t, ViewList, m.viewMode)
	assert.Zero(t, m.SecondsSinceUpdate())
}

func TestSubscribe_ForwardsAppends(t *testing.T) {
	e := newEngine(t, fixedSource{values: sampleValues()})
	updates, unsubscribe := Subscribe(e)
	defer unsubscribe()

	require.NoError(t, e.Start())

	seen := make(map[string]bool)
	deadline := time.After(2 * time.Second)
	for len(seen) < 7 {
		select {
		case metric := <-updates:
			seen[metric] = true
		case <-deadline:
			t.Fatalf("only saw %v", seen)
		}
	}
	assert.True(t, seen[live.MetricNetworkOut])
}

func TestSubscribe_DropsWhenFull(t *testing.T) {
	e := newEngine(t, fixedSource{values: sampleValues()})
	updates, unsubscribe := Subscribe(e)
	defer unsubscribe()

	require.NoError(t, e.Start())
	require.Eventually(t, func() bool {
		e.Refresh()
		return e.Stats().Totals.Appended > updateBuffer
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, updateBuffer, len(updates))
}

func TestModel_SampleMsg(t *testing.T) {
	e := newEngine(t, fixedSource{})
	updates := make(chan string, 1)
	m := NewModel(e, updates)
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }

	next, cmd := m.Update(sampleMsg{metric: live.MetricCPU})
	m = next.(Model)

	assert.Equal(t, now, m.lastSample)
	assert.Equal(t, 1, m.samples)
	require.NotNil(t, cmd)

	updates <- live.MetricDisk
	assert.Equal(t, sampleMsg{metric: live.MetricDisk}, cmd())

	now = now.Add(4 * time.Second)
	assert.Equal(t, 4, m.SecondsSinceUpdate())
}

func TestModel_WaitForSampleClosed(t *testing.T) {
	e := newEngine(t, fixedSource{})
	updates := make(chan string)
	close(updates)

	cmd := NewModel(e, updates).waitForSample()

	assert.Nil(t, cmd())
	assert.Nil(t, NewModel(e, nil).waitForSample())
}

func TestModel_Keys(t *testing.T) {
	t.Run("toggle auto refresh", func(t *testing.T) {
		e := startedEngine(t, fixedSource{values: sampleValues()})
		m := NewModel(e, nil)

		m, _ = press(t, m, keyRunes("p"))
		assert.False(t, e.RefreshConfig().Enabled)
		assert.False(t, e.IsLive())
		assert.Equal(t, "auto-refresh paused", m.notice)

		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		assert.True(t, e.RefreshConfig().Enabled)
		assert.True(t, e.IsLive())
		assert.Equal(t, "auto-refresh on", m.notice)
	})

	t.Run("interval steps", func(t *testing.T) {
		e := newEngine(t, fixedSource{})
		m := NewModel(e, nil)

		m, _ = press(t, m, keyRunes("+"))
		assert.Equal(t, 4, e.RefreshConfig().IntervalSeconds)
		assert.Equal(t, "polling every 4s", m.notice)

		m, _ = press(t, m, keyRunes("-"))
		m, _ = press(t, m, keyRunes("-"))
		assert.Equal(t, 2, e.RefreshConfig().IntervalSeconds)
		assert.False(t, m.noticeIsErr)
	})

	t.Run("interval out of range", func(t *testing.T) {
		e := newEngine(t, fixedSource{})
		require.NoError(t, e.SetInterval(live.MinIntervalSeconds))
		m := NewModel(e, nil)

		m, _ = press(t, m, keyRunes("-"))

		assert.Equal(t, live.MinIntervalSeconds, e.RefreshConfig().IntervalSeconds)
		assert.True(t, m.noticeIsErr)
		assert.NotEmpty(t, m.notice)
	})

	t.Run("refresh", func(t *testing.T) {
		e := startedEngine(t, fixedSource{values: sampleValues()})
		before := e.Stats().Totals.Scheduler.Ticks
		m := NewModel(e, nil)

		m, _ = press(t, m, keyRunes("r"))

		assert.Equal(t, "refreshing", m.notice)
		assert.Greater(t, e.Stats().Totals.Scheduler.Ticks, before)
	})

	t.Run("selection", func(t *testing.T) {
		m := NewModel(newEngine(t, fixedSource{}), nil)

		m, _ = press(t, m, keyRunes("k"))
		assert.Equal(t, 0, m.selected)

		for i := 0; i < 10; i++ {
			m, _ = press(t, m, keyRunes("j"))
		}
		assert.Equal(t, 5, m.selected)
		assert.Equal(t, "requests", m.SelectedSurface().Name())

		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
		assert.Equal(t, 4, m.selected)
	})

	t.Run("detail and back", func(t *testing.T) {
		m := NewModel(newEngine(t, fixedSource{}), nil)

		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		assert.Equal(t, ViewDetail, m.viewMode)

		m, _ = press(t, m, keyRunes("j"))
		assert.Equal(t, 0, m.selected, "j scrolls the detail view instead of moving selection")

		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
		assert.Equal(t, ViewList, m.viewMode)
	})

	t.Run("help", func(t *testing.T) {
		m := NewModel(newEngine(t, fixedSource{}), nil)

		m, _ = press(t, m, keyRunes("?"))
		assert.True(t, m.showHelp)
		assert.Contains(t, m.View(), "Keyboard Shortcuts")

		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
		assert.False(t, m.showHelp)
	})

	t.Run("quit", func(t *testing.T) {
		m := NewModel(newEngine(t, fixedSource{}), nil)

		m, cmd := press(t, m, keyRunes("q"))

		assert.True(t, m.quitting)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Empty(t, m.View())
	})
}

func TestModel_WindowSize(t *testing.T) {
	m := NewModel(newEngine(t, fixedSource{}), nil)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 130, Height: 40})
	m = next.(Model)

	assert.Equal(t, LayoutStandard, m.LayoutMode())
	assert.True(t, m.viewportReady)
	assert.Equal(t, 35, m.detailViewport.Height)
	assert.True(t, m.ShowFooter())

	next, _ = m.Update(tea.WindowSizeMsg{Width: 90, Height: 10})
	m = next.(Model)
	assert.Equal(t, LayoutCompact, m.LayoutMode())
	assert.False(t, m.ShowFooter())
	assert.Equal(t, 5, m.detailViewport.Height)
}

func TestModel_ClockKeepsTicking(t *testing.T) {
	m := NewModel(newEngine(t, fixedSource{}), nil)

	_, cmd := m.Update(clockMsg(time.Now()))

	assert.NotNil(t, cmd)
}

func TestView_BeforeSamples(t *testing.T) {
	m := NewModel(newEngine(t, fixedSource{}), nil)

	out := m.View()

	assert.Contains(t, out, "pulse")
	assert.Contains(t, out, "last update pending")
	assert.Contains(t, out, "CPU")
	assert.Contains(t, out, "Network")
	assert.Contains(t, out, "waiting for samples")
	assert.Contains(t, out, "--")
	assert.NotContains(t, out, "offline")
}

func TestView_WithSamples(t *testing.T) {
	e := startedEngine(t, fixedSource{values: sampleValues()})
	m := NewModel(e, nil)
	m, _ = press(t, m, keyRunes("r"))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 130, Height: 60})
	m = next.(Model)

	out := m.View()

	assert.Contains(t, out, "live")
	assert.Contains(t, out, "every 3s")
	assert.Contains(t, out, "42.0%")
	assert.Contains(t, out, "512 KB/s")
	assert.Contains(t, out, "17")
	assert.Contains(t, out, "42%")
	assert.NotContains(t, out, "waiting for samples")
}

func TestView_Offline(t *testing.T) {
	e := startedEngine(t, fixedSource{values: sampleValues(), failures: 5})
	m := NewModel(e, nil)

	out := m.View()

	assert.Contains(t, out, "offline")
	assert.Contains(t, out, "synthetic values")
}

func TestView_Paused(t *testing.T) {
	e := startedEngine(t, fixedSource{values: sampleValues()})
	require.NoError(t, e.ToggleAutoRefresh(false))

	out := NewModel(e, nil).View()

	assert.Contains(t, out, "paused")
}

func TestView_MinimalLayout(t *testing.T) {
	e := startedEngine(t, fixedSource{values: sampleValues()})
	m := NewModel(e, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 30})
	m = next.(Model)

	out := m.View()

	lines := strings.Split(out, "\n")
	var cpuLine string
	for _, l := range lines {
		if strings.Contains(l, "CPU") {
			cpuLine = l
		}
	}
	require.NotEmpty(t, cpuLine)
	assert.True(t, strings.HasPrefix(cpuLine, "> "), "selected surface is marked")
	assert.Contains(t, cpuLine, "42.0%")
}

func TestView_Detail(t *testing.T) {
	e := startedEngine(t, fixedSource{values: sampleValues()})
	m := NewModel(e, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 80})
	m = next.(Model)
	for i := 0; i < 3; i++ {
		m, _ = press(t, m, keyRunes("j"))
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	out := m.View()

	assert.Contains(t, out, "Network")
	assert.Contains(t, out, "Net in")
	assert.Contains(t, out, "Net out")
	assert.Contains(t, out, "min 512 KB/s")
	assert.Contains(t, out, "fetches 1")
	assert.Contains(t, out, "esc back")
}

func TestView_NoticeInFooter(t *testing.T) {
	e := newEngine(t, fixedSource{})
	require.NoError(t, e.SetInterval(live.MaxIntervalSeconds))
	m := NewModel(e, nil)

	m, _ = press(t, m, keyRunes("+"))

	assert.Contains(t, m.View(), m.notice)
}
