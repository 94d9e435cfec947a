package monitor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTimeSeriesGraph(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, RenderTimeSeriesGraph(nil, 10, 3, 100, ColorGraph))
		assert.Empty(t, RenderTimeSeriesGraph([]float64{1}, 0, 3, 100, ColorGraph))
		assert.Empty(t, RenderTimeSeriesGraph([]float64{1}, 10, 0, 100, ColorGraph))
	})

	t.Run("fills from the bottom", func(t *testing.T) {
		out := RenderTimeSeriesGraph([]float64{0, 50, 100}, 10, 4, 100, ColorGraph)
		rows := strings.Split(out, "\n")

		assert.Len(t, rows, 4)
		for _, r := range rows {
			assert.Len(t, []rune(r), 3)
		}
		assert.Equal(t, ' ', []rune(rows[0])[1], "half scale leaves the top empty")
		assert.NotEqual(t, ' ', []rune(rows[3])[1])
		assert.NotEqual(t, ' ', []rune(rows[0])[2], "full scale reaches the top")
		assert.Equal(t, ' ', []rune(rows[3])[0], "zero stays empty")
	})

	t.Run("keeps most recent columns", func(t *testing.T) {
		out := RenderTimeSeriesGraph([]float64{100, 100, 0}, 1, 2, 100, ColorGraph)
		assert.Equal(t, " \n ", out)
	})

	t.Run("clamps above scale", func(t *testing.T) {
		out := RenderTimeSeriesGraph([]float64{250}, 5, 2, 100, ColorGraph)
		assert.NotContains(t, out, " ")
	})

	t.Run("unscaled uses data max", func(t *testing.T) {
		out := RenderTimeSeriesGraph([]float64{5, 10}, 5, 2, 0, ColorGraph)
		rows := strings.Split(out, "\n")
		assert.NotEqual(t, ' ', []rune(rows[0])[1])
	})
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, windowStats{}, summarize(nil))
	assert.Equal(t, windowStats{Min: 1, Max: 5, Avg: 3, Count: 3}, summarize([]float64{5, 1, 3}))
}
