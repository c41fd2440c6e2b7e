// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/helixhq/helix/internal/domain/types"
)

// ReadinessDependencies defines the interface for readiness queries.
type ReadinessDependencies interface {
	Readiness(ctx context.Context, employeeID, currentRole string) (*types.Readiness, error)
}

// ReadinessHandler handles readiness requests.
type ReadinessHandler struct {
	deps ReadinessDependencies
}

// NewReadinessHandler creates a new readiness handler.
func NewReadinessHandler(deps ReadinessDependencies) *ReadinessHandler {
	return &ReadinessHandler{deps: deps}
}

// HandleGetReadiness handles GET /readiness/{employee_id}?current_role=...
// requests. Unknown employees are not a 404: their stores come back empty
// and the result is a baseline score.
func (h *ReadinessHandler) HandleGetReadiness(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_readiness"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	employeeID := pathParam(r.URL.Path, "/readiness/")
	if employeeID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, ErrBadRequest))
		return
	}
	currentRole := r.URL.Query().Get("current_role")

	result, err := h.deps.Readiness(r.Context(), employeeID, currentRole)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Errorf("%s: %w", op, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
