// Package server exposes the live engine over HTTP: JSON endpoints for
// browser dashboards, a WebSocket stream of appended samples, and an
// optional Prometheus endpoint.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/live"
	"github.com/rileyhilliard/pulse/internal/logger"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = "127.0.0.1:8080"

// Options configures a Server.
type Options struct {
	Addr string
	// Metrics serves /metrics when set.
	Metrics     http.Handler
	CheckOrigin func(*http.Request) bool
	Logger      logger.Logger
}

// Event is one appended sample as streamed over /ws.
type Event struct {
	Metric     string     `json:"metric"`
	Time       int64      `json:"time"`
	Value      float64    `json:"value"`
	Percentage float64    `json:"percentage"`
	Trend      live.Trend `json:"trend"`
	Offline    bool       `json:"offline"`
}

// Server serves the engine's presentation interface.
type Server struct {
	engine *live.Engine
	hub    *Hub
	opts   Options
	log    logger.Logger
}

// New creates a server for engine.
func New(engine *live.Engine, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	log := logger.OrDefault(opts.Logger)
	return &Server{
		engine: engine,
		hub:    NewHub(log, opts.CheckOrigin),
		opts:   opts,
		log:    log,
	}
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/surfaces", s.handleSurfaces).Methods(http.MethodGet)
	api.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	api.HandleFunc("/metrics/{name}", s.handleMetric).Methods(http.MethodGet)
	api.HandleFunc("/metrics/{name}/series", s.handleSeries).Methods(http.MethodGet)
	api.HandleFunc("/refresh/interval", s.handleSetInterval).Methods(http.MethodPut)
	api.HandleFunc("/refresh/auto", s.handleSetAuto).Methods(http.MethodPut)
	api.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)

	r.HandleFunc("/ws", s.hub.ServeWS).Methods(http.MethodGet)
	if s.opts.Metrics != nil {
		r.Handle("/metrics", s.opts.Metrics).Methods(http.MethodGet)
	}
	return r
}

// Attach runs the hub and streams engine appends to it until ctx is done.
func (s *Server) Attach(ctx context.Context) {
	go s.hub.Run(ctx)
	unsubscribe := s.engine.Subscribe(s.publish)
	go func() {
		<-ctx.Done()
		unsubscribe()
	}()
}

// Run serves on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrServe,
			fmt.Sprintf("Couldn't listen on %s", s.opts.Addr),
			"Pick a free address with --addr or serve.addr.")
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.Attach(ctx)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("serving live metrics on http://%s", ln.Addr())

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.WrapWithCode(err, errors.ErrServe, "HTTP server stopped", "")
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		return srv.Shutdown(shutdownCtx)
	}
}

// publish runs on the engine's apply path, so it only encodes and queues.
func (s *Server) publish(metric string) {
	ev, ok := s.event(metric)
	if !ok {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.Warn("encoding %s event: %v", metric, err)
		return
	}
	if !s.hub.Broadcast(data) {
		s.log.Debug("ws queue full, dropped %s event", metric)
	}
}

func (s *Server) event(metric string) (Event, bool) {
	view, err := s.engine.View(metric)
	if err != nil || view.Latest == nil {
		return Event{}, false
	}
	series := s.engine.Series(metric)
	if len(series) == 0 {
		return Event{}, false
	}
	last := series[len(series)-1]
	return Event{
		Metric:     metric,
		Time:       last.Time,
		Value:      last.Value,
		Percentage: view.Percentage,
		Trend:      view.Trend,
		Offline:    s.engine.Offline(),
	}, true
}
