package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/live"
)

const maxRequestBytes = 4 << 10

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Live                bool             `json:"live"`
	Offline             bool             `json:"offline"`
	IntervalSeconds     int              `json:"interval_seconds"`
	AutoRefresh         bool             `json:"auto_refresh"`
	ConsecutiveFailures int              `json:"consecutive_failures"`
	Clients             int              `json:"clients"`
	Stats               live.EngineStats `json:"stats"`
}

// SurfaceResponse describes one surface in GET /api/surfaces.
type SurfaceResponse struct {
	Name            string     `json:"name"`
	Title           string     `json:"title"`
	State           live.State `json:"state"`
	Live            bool       `json:"live"`
	IntervalSeconds int        `json:"interval_seconds"`
	Enabled         bool       `json:"enabled"`
	Metrics         []string   `json:"metrics"`
	LastUpdate      *time.Time `json:"last_update,omitempty"`
}

// MetricResponse is a metric's derived view plus its schema labels.
type MetricResponse struct {
	live.View
	Surface string `json:"surface"`
	Label   string `json:"label"`
	Unit    string `json:"unit"`
}

// SeriesResponse is the body of GET /api/metrics/{name}/series.
type SeriesResponse struct {
	Metric string       `json:"metric"`
	Points []live.Point `json:"points"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := s.engine.RefreshConfig()
	writeJSON(w, http.StatusOK, StatusResponse{
		Live:                s.engine.IsLive(),
		Offline:             s.engine.Offline(),
		IntervalSeconds:     cfg.IntervalSeconds,
		AutoRefresh:         cfg.Enabled,
		ConsecutiveFailures: s.engine.ConsecutiveFailures(),
		Clients:             s.hub.Clients(),
		Stats:               s.engine.Stats(),
	})
}

func (s *Server) handleSurfaces(w http.ResponseWriter, r *http.Request) {
	surfaces := s.engine.Surfaces()
	out := make([]SurfaceResponse, 0, len(surfaces))
	for _, sf := range surfaces {
		cfg := sf.PollConfig()
		resp := SurfaceResponse{
			Name:            sf.Name(),
			Title:           sf.Title(),
			State:           sf.State(),
			Live:            sf.IsLive(),
			IntervalSeconds: cfg.IntervalSeconds,
			Enabled:         cfg.Enabled,
			Metrics:         sf.Metrics(),
		}
		if t := sf.LastUpdate(); !t.IsZero() {
			resp.LastUpdate = &t
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var out []MetricResponse
	for _, sf := range s.engine.Surfaces() {
		for _, m := range sf.Metrics() {
			if resp, ok := s.metricResponse(sf, m); ok {
				out = append(out, resp)
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMetric(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	for _, sf := range s.engine.Surfaces() {
		if resp, ok := s.metricResponse(sf, name); ok {
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}
	writeError(w, http.StatusNotFound, errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown metric '%s'", name), ""))
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, err := s.engine.View(name); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	points := s.engine.Series(name)
	if points == nil {
		points = []live.Point{}
	}
	writeJSON(w, http.StatusOK, SeriesResponse{Metric: name, Points: points})
}

func (s *Server) handleSetInterval(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seconds *int `json:"seconds"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Seconds == nil {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrConfig, "Missing 'seconds'", ""))
		return
	}
	if err := s.engine.SetInterval(*req.Seconds); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.RefreshConfig())
}

func (s *Server) handleSetAuto(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrConfig, "Missing 'enabled'", ""))
		return
	}
	if err := s.engine.ToggleAutoRefresh(*req.Enabled); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.RefreshConfig())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.engine.Refresh()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) metricResponse(sf *live.Surface, metric string) (MetricResponse, bool) {
	spec, ok := sf.Spec(metric)
	if !ok {
		return MetricResponse{}, false
	}
	view, ok := sf.View(metric)
	if !ok {
		return MetricResponse{}, false
	}
	return MetricResponse{View: view, Surface: sf.Name(), Label: spec.Label, Unit: spec.Unit}, true
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Invalid request body", "")
	}
	return nil
}

func statusFor(err error) int {
	switch errors.CodeOf(err) {
	case errors.ErrConfig:
		return http.StatusBadRequest
	case errors.ErrState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: errors.Short(err), Code: errors.CodeOf(err)})
}
