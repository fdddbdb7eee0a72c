package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	service "github.com/okian/peloton/internal/app"
	"github.com/okian/peloton/internal/domain/scoring"
)

// RidersDependencies defines the interface for rider queries.
type RidersDependencies interface {
	Riders(ctx context.Context, q service.Query) ([]scoring.ScoredRider, error)
	Rider(ctx context.Context, name string) (scoring.ScoredRider, error)
}

// RidersHandler serves scored riders.
type RidersHandler struct {
	deps RidersDependencies
}

// NewRidersHandler creates a new riders handler.
func NewRidersHandler(deps RidersDependencies) *RidersHandler {
	return &RidersHandler{deps: deps}
}

// HandleListRiders handles GET /riders.
func (h *RidersHandler) HandleListRiders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	riders, err := h.deps.Riders(r.Context(), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ridersResponse{Count: len(riders), Riders: riders})
}

// HandleGetRider handles GET /riders/{name}.
func (h *RidersHandler) HandleGetRider(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name, err := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), "/riders/"))
	if err != nil || strings.TrimSpace(name) == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	rider, err := h.deps.Rider(r.Context(), name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rider)
}
