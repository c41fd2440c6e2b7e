// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/helixhq/helix/internal/domain/types"
)

// ReportDependencies defines the interface for confidence and points reports.
type ReportDependencies interface {
	ConfidenceReport(ctx context.Context, employeeID string) (*types.ConfidenceReport, error)
	PointsReport(ctx context.Context, employeeID string) (*types.PointsReport, error)
}

// ReportsHandler handles confidence and points report requests.
type ReportsHandler struct {
	deps ReportDependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps ReportDependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// HandleGetConfidence handles GET /confidence/{employee_id} requests.
func (h *ReportsHandler) HandleGetConfidence(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_confidence"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	employeeID := pathParam(r.URL.Path, "/confidence/")
	if employeeID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, ErrBadRequest))
		return
	}
	report, err := h.deps.ConfidenceReport(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Errorf("%s: %w", op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleGetPoints handles GET /points/{employee_id} requests.
func (h *ReportsHandler) HandleGetPoints(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_points"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	employeeID := pathParam(r.URL.Path, "/points/")
	if employeeID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, ErrBadRequest))
		return
	}
	report, err := h.deps.PointsReport(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Errorf("%s: %w", op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
