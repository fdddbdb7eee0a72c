package api

import (
	"context"
	"net/http"

	"github.com/okian/peloton/internal/domain/analytics"
	"github.com/okian/peloton/internal/domain/filter"
)

// InsightsDependencies defines the interface for analytics queries.
type InsightsDependencies interface {
	Insights(ctx context.Context, c filter.Criteria) (analytics.Report, error)
}

// InsightsHandler serves the analytics report.
type InsightsHandler struct {
	deps InsightsDependencies
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(deps InsightsDependencies) *InsightsHandler {
	return &InsightsHandler{deps: deps}
}

// HandleInsights handles GET /insights with the same filters as /riders.
func (h *InsightsHandler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rep, err := h.deps.Insights(r.Context(), c)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
