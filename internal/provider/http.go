// Package provider implements the engine's MetricSource: an HTTP client for
// the panel's metrics provider that degrades to synthetic values whenever
// the provider cannot deliver.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/live"
	"github.com/rileyhilliard/pulse/internal/logger"
)

const (
	// DefaultTimeout bounds one provider request.
	DefaultTimeout = 2 * time.Second

	// maxBodyBytes caps response body reads.
	maxBodyBytes = 1 << 20

	// timestampField carries the provider's own clock, in Unix milliseconds.
	timestampField = "timestampMs"

	userAgent = "pulse"
)

// Options configures an HTTPSource.
type Options struct {
	URL     string
	Token   string
	Timeout time.Duration
	Schema  live.Schema

	// Client overrides the HTTP client. Its Timeout is left untouched.
	Client    *http.Client
	Synthetic *Synthetic
	Logger    logger.Logger
}

// Stats are the source's diagnostic counters.
type Stats struct {
	Fetches             uint64 `json:"fetches"`
	Failures            uint64 `json:"failures"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	Fallbacks           uint64 `json:"fallbacks"`
	LastError           string `json:"last_error,omitempty"`
}

// HTTPSource fetches snapshots from the metrics provider. It is safe for
// concurrent use by every surface's scheduler.
type HTTPSource struct {
	url     string
	token   string
	timeout time.Duration
	schema  live.Schema
	fields  map[string]string // JSON field -> metric name
	client  *http.Client
	synth   *Synthetic
	log     logger.Logger

	fetches     atomic.Uint64
	failures    atomic.Uint64
	consecutive atomic.Int64
	fallbacks   atomic.Uint64

	mu      sync.Mutex
	lastErr error
}

var _ live.Source = (*HTTPSource)(nil)

// NewHTTPSource validates opts and creates a source.
func NewHTTPSource(opts Options) (*HTTPSource, error) {
	if opts.URL == "" {
		return nil, errors.New(errors.ErrConfig,
			"No metrics provider URL configured",
			"Set provider.url in .pulse.yaml or PULSE_PROVIDER_URL.")
	}
	u, err := url.Parse(opts.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Provider URL '%s' is not a valid http(s) URL", opts.URL),
			"Use a full URL like http://127.0.0.1:9100/api/v1/metrics")
	}

	if opts.Schema == nil {
		opts.Schema = live.DefaultSchema()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Synthetic == nil {
		opts.Synthetic = NewSynthetic(opts.Schema, nil)
	}

	fields := make(map[string]string, len(opts.Schema))
	for name, spec := range opts.Schema {
		fields[spec.Field] = name
	}

	return &HTTPSource{
		url:     opts.URL,
		token:   opts.Token,
		timeout: opts.Timeout,
		schema:  opts.Schema,
		fields:  fields,
		client:  opts.Client,
		synth:   opts.Synthetic,
		log:     logger.OrDefault(opts.Logger),
	}, nil
}

// URL returns the provider endpoint.
func (s *HTTPSource) URL() string { return s.url }

// FetchSnapshot performs one request. It never fails: on a transport or
// parse failure every metric is synthetic and the failure counters move.
// A fetch abandoned because ctx was cancelled is not a provider failure and
// leaves the counters alone.
func (s *HTTPSource) FetchSnapshot(ctx context.Context) live.Snapshot {
	s.fetches.Add(1)

	payload, err := s.fetch(ctx)
	if err != nil && ctx.Err() != nil {
		s.log.Debug("metrics fetch abandoned: %v", ctx.Err())
		snap := s.synth.Snapshot()
		snap.Err = ctx.Err()
		return snap
	}
	if err != nil {
		n := s.consecutive.Add(1)
		s.failures.Add(1)
		s.setLastErr(err)
		s.log.Warn("metrics provider unavailable (%d in a row): %s", n, errors.Short(err))

		snap := s.synth.Snapshot()
		snap.Err = err
		return snap
	}

	s.consecutive.Store(0)
	s.setLastErr(nil)
	return s.decode(payload)
}

// ConsecutiveFailures returns how many fetches in a row have failed.
func (s *HTTPSource) ConsecutiveFailures() int {
	return int(s.consecutive.Load())
}

// Stats returns a copy of the diagnostic counters.
func (s *HTTPSource) Stats() Stats {
	st := Stats{
		Fetches:             s.fetches.Load(),
		Failures:            s.failures.Load(),
		ConsecutiveFailures: s.ConsecutiveFailures(),
		Fallbacks:           s.fallbacks.Load(),
	}
	s.mu.Lock()
	if s.lastErr != nil {
		st.LastError = errors.Short(s.lastErr)
	}
	s.mu.Unlock()
	return st
}

func (s *HTTPSource) setLastErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *HTTPSource) fetch(ctx context.Context) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTransport, "Couldn't build provider request", "")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTransport,
			"Couldn't reach the metrics provider",
			"Check that provider.url is reachable.")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, errors.New(errors.ErrTransport,
			fmt.Sprintf("Metrics provider returned %s", resp.Status), "")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTransport, "Couldn't read provider response", "")
	}
	if len(body) > maxBodyBytes {
		return nil, errors.New(errors.ErrTransport,
			fmt.Sprintf("Provider response exceeds %d bytes", maxBodyBytes), "")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTransport, "Provider sent invalid JSON", "")
	}
	if payload == nil {
		return nil, errors.New(errors.ErrTransport, "Provider sent an empty snapshot", "")
	}
	return payload, nil
}

// decode validates payload against the schema. Fields that are missing or
// not finite numbers fall back to synthetic values individually.
func (s *HTTPSource) decode(payload map[string]any) live.Snapshot {
	snap := live.Snapshot{
		Values:    make(map[string]float64, len(s.schema)),
		Synthetic: make(map[string]bool),
	}

	for _, name := range s.schema.Names() {
		spec := s.schema[name]
		v, err := numberField(payload, spec.Field)
		if err != nil {
			s.fallbacks.Add(1)
			s.log.Debug("%s: %s, using synthetic value", name, err)
			snap.Values[name], _ = s.synth.Value(name)
			snap.Synthetic[name] = true
			continue
		}
		s.synth.Observe(name, v)
		snap.Values[name] = spec.Clamp(v)
	}

	if ts, err := numberField(payload, timestampField); err == nil {
		snap.ProviderTimeMs = int64(ts)
	}

	var unknown []string
	for field := range payload {
		if _, ok := s.fields[field]; !ok && field != timestampField {
			unknown = append(unknown, field)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		s.log.Debug("ignoring unknown provider fields: %v", unknown)
	}
	return snap
}

func numberField(payload map[string]any, field string) (float64, error) {
	raw, ok := payload[field]
	if !ok {
		return 0, fmt.Errorf("field %q missing", field)
	}
	num, ok := raw.(json.Number)
	if !ok {
		return 0, fmt.Errorf("field %q is not a number", field)
	}
	v, err := num.Float64()
	if err != nil || !live.IsFinite(v) {
		return 0, fmt.Errorf("field %q is not a finite number", field)
	}
	return v, nil
}
