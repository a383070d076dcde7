// Package gbdfake serves a deterministic stand-in for the central draws
// service, for local runs and end-to-end tests.
package gbdfake

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/lbwsg/get-draws/internal/adapter/gbd"
	"github.com/lbwsg/get-draws/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the /v1 draws API plus /healthz, /readyz and /metrics.
type Server struct {
	httpServer *http.Server
	data       *Dataset
	token      string
	logger     *slog.Logger

	mu       sync.Mutex
	failures map[string]int
	requests map[string]int
}

// Option customizes a Server.
type Option func(*Server)

// WithToken requires "Authorization: Bearer <token>" on /v1 routes.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// NewServer creates the fake draws service.
func NewServer(addr string, data *Dataset, logger *slog.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		data:     data,
		logger:   logger,
		failures: make(map[string]int),
		requests: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(s))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/locations", s.api(gbd.EndpointLocations, s.handleLocations))
	mux.HandleFunc("GET /v1/age-groups", s.api(gbd.EndpointAgeGroups, s.handleAgeGroups))
	mux.HandleFunc("POST /v1/draws", s.api(gbd.EndpointDraws, s.handleDraws))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("fake draws service starting", "addr", s.httpServer.Addr, "draws", s.data.NumDraws)
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

// CheckReadiness reports whether the dataset can serve every endpoint.
func (s *Server) CheckReadiness(_ context.Context) error {
	return s.data.Validate()
}

// FailEndpoint makes every later request to endpoint answer with status.
// A zero status clears the failure.
func (s *Server) FailEndpoint(endpoint string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, endpoint)
		return
	}
	s.failures[endpoint] = status
}

// Requests returns how many requests endpoint has received.
func (s *Server) Requests(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[endpoint]
}

func (s *Server) api(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[endpoint]++
		status := s.failures[endpoint]
		s.mu.Unlock()

		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		if status != 0 {
			writeError(w, status, "injected failure")
			return
		}
		s.logger.Debug("api request", "endpoint", endpoint, "query", r.URL.RawQuery)
		h(w, r)
	}
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	setID, ok := intParam(w, r, "location_set_id")
	if !ok || !s.checkRound(w, r) {
		return
	}
	records, found := s.data.Locations[setID]
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown location set %d", setID))
		return
	}
	writeJSON(w, http.StatusOK, gbd.LocationsResponse{Locations: records})
}

func (s *Server) handleAgeGroups(w http.ResponseWriter, r *http.Request) {
	setID, ok := intParam(w, r, "age_group_set_id")
	if !ok || !s.checkRound(w, r) {
		return
	}
	if setID != domain.AgeGroupSetID {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown age group set %d", setID))
		return
	}
	writeJSON(w, http.StatusOK, gbd.AgeGroupsResponse{AgeGroups: s.data.AgeGroups})
}

func (s *Server) handleDraws(w http.ResponseWriter, r *http.Request) {
	var req domain.DrawsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RoundID != s.data.RoundID {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no draws for round %d", req.RoundID))
		return
	}
	if !s.data.hasLocation(req.LocationID) || slices.Contains(s.data.NoDraws, req.LocationID) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no draws for location %d", req.LocationID))
		return
	}
	writeJSON(w, http.StatusOK, s.data.Table(req))
}

func validateRequest(req domain.DrawsRequest) error {
	if req.GBDIDType != domain.GBDIDType || req.GBDID != domain.LBWSGReiID {
		return fmt.Errorf("unsupported gbd id %s=%d", req.GBDIDType, req.GBDID)
	}
	if _, err := domain.ParseSource(string(req.Source)); err != nil {
		return err
	}
	if req.Status != domain.StatusBest {
		return fmt.Errorf("unsupported status %q", req.Status)
	}
	if len(req.SexIDs) == 0 || len(req.AgeGroups) == 0 {
		return fmt.Errorf("sex_id and age_group_id are required")
	}
	return nil
}

func (s *Server) checkRound(w http.ResponseWriter, r *http.Request) bool {
	round, ok := intParam(w, r, "gbd_round_id")
	if !ok {
		return false
	}
	if round != s.data.RoundID {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown round %d", round))
		return false
	}
	return true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return v, true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, gbd.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client disconnects are not actionable
}
