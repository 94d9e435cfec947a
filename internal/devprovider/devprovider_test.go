package devprovider

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/live"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	opts.Rand = rand.NewPCG(7, 11)
	opts.Logger = logger.Noop()
	s, err := New(opts)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func getPayload(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url + MetricsPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp.StatusCode, payload
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"fail rate above one", Options{FailRate: 1.5}},
		{"negative fail rate", Options{FailRate: -0.1}},
		{"drop rate above one", Options{DropRate: 2}},
		{"negative latency", Options{Latency: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
		})
	}
}

func TestServer_ServesEveryField(t *testing.T) {
	_, ts := newServer(t, Options{})

	status, payload := getPayload(t, ts.URL)

	require.Equal(t, http.StatusOK, status)
	schema := live.DefaultSchema()
	for _, name := range schema.Names() {
		spec := schema[name]
		raw, ok := payload[spec.Field]
		require.True(t, ok, spec.Field)
		v, ok := raw.(float64)
		require.True(t, ok, spec.Field)
		assert.True(t, spec.InRange(v), "%s=%v", spec.Field, v)
	}
	assert.Contains(t, payload, "timestampMs")
}

func TestServer_WalkStaysInRange(t *testing.T) {
	s, err := New(Options{Rand: rand.NewPCG(1, 1), Logger: logger.Noop()})
	require.NoError(t, err)
	schema := live.DefaultSchema()

	for i := 0; i < 1000; i++ {
		payload, fail := s.step()
		require.False(t, fail)
		for _, name := range schema.Names() {
			spec := schema[name]
			assert.True(t, spec.InRange(payload[spec.Field].(float64)))
		}
	}
}

func TestServer_FailRate(t *testing.T) {
	s, ts := newServer(t, Options{FailRate: 1})

	status, _ := getPayload(t, ts.URL)

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, Stats{Requests: 1, Failed: 1}, s.Stats())
}

func TestServer_DropRate(t *testing.T) {
	s, ts := newServer(t, Options{DropRate: 1})

	status, payload := getPayload(t, ts.URL)

	require.Equal(t, http.StatusOK, status)
	assert.Len(t, payload, 1, "only the timestamp remains")
	assert.Equal(t, uint64(7), s.Stats().Dropped)
}

func TestServer_Latency(t *testing.T) {
	_, ts := newServer(t, Options{Latency: 80 * time.Millisecond})

	start := time.Now()
	status, _ := getPayload(t, ts.URL)

	assert.Equal(t, http.StatusOK, status)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestServer_Token(t *testing.T) {
	_, ts := newServer(t, Options{Token: "abc"})

	status, _ := getPayload(t, ts.URL)
	assert.Equal(t, http.StatusUnauthorized, status)

	src, err := provider.NewHTTPSource(provider.Options{
		URL:    ts.URL + MetricsPath,
		Token:  "abc",
		Logger: logger.Noop(),
	})
	require.NoError(t, err)
	snap := src.FetchSnapshot(context.Background())
	assert.NoError(t, snap.Err)
	assert.Empty(t, snap.Synthetic)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	_, ts := newServer(t, Options{})

	resp, err := http.Post(ts.URL+MetricsPath, "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_Health(t *testing.T) {
	_, ts := newServer(t, Options{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestServer_DroppedFieldsFallBackInSource(t *testing.T) {
	_, ts := newServer(t, Options{DropRate: 1})
	src, err := provider.NewHTTPSource(provider.Options{URL: ts.URL + MetricsPath, Logger: logger.Noop()})
	require.NoError(t, err)

	snap := src.FetchSnapshot(context.Background())

	assert.NoError(t, snap.Err)
	assert.Equal(t, 0, src.ConsecutiveFailures())
	for _, name := range live.DefaultSchema().Names() {
		assert.True(t, snap.IsSynthetic(name), name)
	}
	assert.Equal(t, uint64(7), src.Stats().Fallbacks)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	s, err := New(Options{Logger: logger.Noop()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
