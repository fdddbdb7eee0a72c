// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/peloton/internal/adapters/repository"
	"github.com/okian/peloton/internal/adapters/source"
	service "github.com/okian/peloton/internal/app"
	"github.com/okian/peloton/internal/domain/filter"
	"github.com/okian/peloton/internal/domain/rider"
	"github.com/okian/peloton/internal/domain/scoring"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	RidersDependencies
	InsightsDependencies
	ReloadDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	ridersHandler    *RidersHandler
	insightsHandler  *InsightsHandler
	reloadHandler    *ReloadHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		ridersHandler:    NewRidersHandler(deps),
		insightsHandler:  NewInsightsHandler(deps),
		reloadHandler:    NewReloadHandler(deps),
		dashboardHandler: newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/riders", MetricsMiddleware(s.ridersHandler.HandleListRiders, "riders"))
	mux.HandleFunc("/riders/", MetricsMiddleware(s.ridersHandler.HandleGetRider, "rider"))
	mux.HandleFunc("/insights", MetricsMiddleware(s.insightsHandler.HandleInsights, "insights"))
	mux.HandleFunc("/reload", MetricsMiddleware(s.reloadHandler.HandleReload, "reload"))
}

// Compile-time check that the service satisfies the handler contracts.
var _ Dependencies = (*service.Service)(nil)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ridersResponse is the body of GET /riders.
type ridersResponse struct {
	Count  int                   `json:"count"`
	Riders []scoring.ScoredRider `json:"riders"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, filter.ErrInvalidCriteria),
		errors.Is(err, filter.ErrUnknownSortKey),
		errors.Is(err, service.ErrLimitExceeded):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, rider.ErrInvalidRecord),
		errors.Is(err, rider.ErrDuplicateRider),
		errors.Is(err, source.ErrMalformedFantasy),
		errors.Is(err, source.ErrUnsupportedFormat):
		writeError(w, http.StatusUnprocessableEntity, "invalid_population", err)
	case errors.Is(err, ErrReloadPending):
		writeError(w, http.StatusConflict, "reload_pending", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
