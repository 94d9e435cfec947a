// Package devprovider serves a stand-in for the panel's metrics provider.
// Values follow a bounded random walk around each metric's baseline, and
// failures, dropped fields and latency can be injected to exercise the
// engine's fallback path locally.
package devprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/live"
	"github.com/rileyhilliard/pulse/internal/logger"
)

// MetricsPath is the route the provider serves snapshots on.
const MetricsPath = "/api/v1/metrics"

// DefaultAddr is where 'pulse provider' listens by default.
const DefaultAddr = "127.0.0.1:9100"

// reversion pulls each walk back toward its baseline on every step.
const reversion = 0.1

// Options configures the development provider.
type Options struct {
	// FailRate is the probability in [0,1] of answering 503.
	FailRate float64
	// DropRate is the probability in [0,1] of omitting each field.
	DropRate float64
	// Latency delays every response.
	Latency time.Duration
	// Token, when set, is required as a bearer token.
	Token string

	Schema live.Schema
	Rand   rand.Source
	Logger logger.Logger
}

// Stats counts served requests.
type Stats struct {
	Requests uint64 `json:"requests"`
	Failed   uint64 `json:"failed"`
	Dropped  uint64 `json:"dropped_fields"`
}

// Server is the development metrics provider.
type Server struct {
	opts Options
	log  logger.Logger

	mu     sync.Mutex
	rng    *rand.Rand
	values map[string]float64

	requests atomic.Uint64
	failed   atomic.Uint64
	dropped  atomic.Uint64
}

// New validates opts and creates a provider.
func New(opts Options) (*Server, error) {
	if opts.FailRate < 0 || opts.FailRate > 1 {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Fail rate %v is outside [0, 1]", opts.FailRate), "")
	}
	if opts.DropRate < 0 || opts.DropRate > 1 {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Drop rate %v is outside [0, 1]", opts.DropRate), "")
	}
	if opts.Latency < 0 {
		return nil, errors.New(errors.ErrConfig, "Latency can't be negative", "")
	}
	if opts.Schema == nil {
		opts.Schema = live.DefaultSchema()
	}
	if opts.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		opts.Rand = rand.NewPCG(seed, seed>>1|1)
	}

	values := make(map[string]float64, len(opts.Schema))
	for name, spec := range opts.Schema {
		values[name] = spec.Baseline
	}

	return &Server{
		opts:   opts,
		log:    logger.OrDefault(opts.Logger),
		rng:    rand.New(opts.Rand),
		values: values,
	}, nil
}

// Handler returns the provider's routes.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc(MetricsPath, s.handleMetrics).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return router
}

// Stats returns the request counters.
func (s *Server) Stats() Stats {
	return Stats{
		Requests: s.requests.Load(),
		Failed:   s.failed.Load(),
		Dropped:  s.dropped.Load(),
	}
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.WrapWithCode(err, errors.ErrServe,
				fmt.Sprintf("Couldn't listen on %s", addr),
				"Pick a free port with --addr.")
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)

	if s.opts.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.opts.Token {
		s.failed.Add(1)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if s.opts.Latency > 0 {
		select {
		case <-time.After(s.opts.Latency):
		case <-r.Context().Done():
			return
		}
	}

	payload, fail := s.step()
	if fail {
		s.failed.Add(1)
		s.log.Debug("injected failure")
		http.Error(w, "injected failure", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("writing snapshot: %v", err)
	}
}

// step advances every walk and builds the next payload. It reports true when
// the request should fail instead.
func (s *Server) step() (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.FailRate > 0 && s.rng.Float64() < s.opts.FailRate {
		return nil, true
	}

	payload := make(map[string]any, len(s.values)+1)
	for _, name := range s.opts.Schema.Names() {
		spec := s.opts.Schema[name]
		v := s.values[name]
		v += (s.rng.Float64()*2 - 1) * spec.Delta
		v += (spec.Baseline - v) * reversion
		v = spec.Clamp(v)
		s.values[name] = v

		if s.opts.DropRate > 0 && s.rng.Float64() < s.opts.DropRate {
			s.dropped.Add(1)
			continue
		}
		payload[spec.Field] = v
	}
	payload["timestampMs"] = time.Now().UnixMilli()
	return payload, false
}
