// Package http exposes the wildfire risk API plus health, readiness, and
// metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/wildfire-risk-service/internal/aggregator"
	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
)

// Engine is the aggregator surface the API serves.
type Engine interface {
	Collect(ctx context.Context, p aggregator.CollectParams) (*aggregator.WildfireContext, error)
	EvaluateSmokeThreat(ctx context.Context, p aggregator.CollectParams) (*aggregator.ThreatResult, error)
	ComputePlume(ctx context.Context, req aggregator.PlumeRequest) (*aggregator.PlumeResult, error)
	AssessRisk(ctx context.Context, req aggregator.RiskRequest) (*aggregator.RiskReport, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the JSON API and operational endpoints.
type Server struct {
	httpServer *http.Server
	engine     Engine
	logger     *slog.Logger
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(addr string, engine Engine, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine: engine,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/plume", s.handlePlume)
	mux.HandleFunc("POST /api/wildfire/overview", s.handleOverview)
	mux.HandleFunc("POST /api/wildfire/smoke-risk", s.handleSmokeRisk)
	mux.HandleFunc("GET /api/fire-risk/assessment", s.handleRiskAssessment)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.engine.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handlePlume(w http.ResponseWriter, r *http.Request) {
	var req aggregator.PlumeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := s.engine.ComputePlume(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	var params aggregator.CollectParams
	if !decodeBody(w, r, &params) {
		return
	}
	wc, err := s.engine.Collect(r.Context(), params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wc)
}

func (s *Server) handleSmokeRisk(w http.ResponseWriter, r *http.Request) {
	var params aggregator.CollectParams
	if !decodeBody(w, r, &params) {
		return
	}
	result, err := s.engine.EvaluateSmokeThreat(r.Context(), params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRiskAssessment(w http.ResponseWriter, r *http.Request) {
	req, err := riskRequestFromQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	report, err := s.engine.AssessRisk(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// riskRequestFromQuery parses ?station_id= or ?lat=&lon=[&stations=].
func riskRequestFromQuery(r *http.Request) (aggregator.RiskRequest, error) {
	var req aggregator.RiskRequest
	q := r.URL.Query()

	if raw := q.Get("station_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return req, invalidParam("station_id", raw)
		}
		req.StationID = &id
		return req, nil
	}

	rawLat, rawLon := q.Get("lat"), q.Get("lon")
	if rawLat == "" || rawLon == "" {
		return req, invalidParam("lat/lon", rawLat+","+rawLon)
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return req, invalidParam("lat", rawLat)
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return req, invalidParam("lon", rawLon)
	}
	req.Lat, req.Lon = &lat, &lon

	if raw := q.Get("stations"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return req, invalidParam("stations", raw)
		}
		req.Stations = n
	}
	return req, nil
}

func invalidParam(name, value string) error {
	return &apiError{status: http.StatusBadRequest, message: "invalid " + name + ": " + value}
}

type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string { return e.message }

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// writeError maps the domain error taxonomy onto HTTP statuses. Empty
// results are never errors; they surface as structured responses upstream.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var apiErr *apiError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.status
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrOutsideBounds):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrProviderUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrNoObservations):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
