package api

import (
	"context"
	"net/http"

	"github.com/okian/peloton/internal/adapters/mq/queue"
	service "github.com/okian/peloton/internal/app"
)

// ReloadDependencies defines the interface for population reloads.
type ReloadDependencies interface {
	ReloadNow(ctx context.Context, trigger string, force bool) (service.ReloadResult, error)
	RequestReload(ctx context.Context, trigger string, force bool) bool
}

// ReloadHandler handles reload requests.
type ReloadHandler struct {
	deps ReloadDependencies
}

// NewReloadHandler creates a new reload handler.
func NewReloadHandler(deps ReloadDependencies) *ReloadHandler {
	return &ReloadHandler{deps: deps}
}

type reloadAck struct {
	Status string `json:"status"`
}

// HandleReload handles POST /reload. force=true refetches race results;
// async=true queues the reload and answers 202.
func (h *ReloadHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	force, err := optionalBool(r.URL.Query(), "force")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	async, err := optionalBool(r.URL.Query(), "async")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if async {
		if !h.deps.RequestReload(r.Context(), queue.TriggerAPI, force) {
			writeServiceError(w, ErrReloadPending)
			return
		}
		writeJSON(w, http.StatusAccepted, reloadAck{Status: "queued"})
		return
	}

	res, err := h.deps.ReloadNow(r.Context(), queue.TriggerAPI, force)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
