// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/helixhq/helix/internal/domain/dedupe"
	"github.com/helixhq/helix/internal/domain/model"
)

// ContributionDependencies defines the interface for contribution intake.
type ContributionDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, contribution model.Contribution) bool
}

// ContributionsHandler handles contribution submissions.
type ContributionsHandler struct {
	deps ContributionDependencies
}

// NewContributionsHandler creates a new contributions handler.
func NewContributionsHandler(deps ContributionDependencies) *ContributionsHandler {
	return &ContributionsHandler{deps: deps}
}

// HandlePostContribution handles POST /contributions requests.
// Contributions arriving without an id get one assigned; the id also
// drives idempotency, so resubmitting the same id is acknowledged as a
// duplicate without re-entering the pipeline.
func (h *ContributionsHandler) HandlePostContribution(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_contribution"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req contributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	// Idempotency check, mark as seen first.
	if h.deps.SeenAndRecord(r.Context(), req.ID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ID: req.ID, Duplicate: true})
		return
	}

	contribution := model.Contribution{
		ID:                req.ID,
		EmployeeID:        req.EmployeeID,
		Skill:             req.Skill,
		ContributionLevel: req.ContributionLevel,
		Role:              req.Role,
		ConfidenceImpact:  req.ConfidenceImpact,
		Status:            model.StatusValidated,
		ValidatedAt:       req.ValidatedAt,
	}

	if ok := h.deps.Enqueue(r.Context(), contribution); !ok {
		// Roll back the seen mark so the client can retry.
		h.deps.Unrecord(r.Context(), req.ID)
		writeError(w, http.StatusTooManyRequests, "backpressure", fmt.Errorf("%s: %w", op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: req.ID, Duplicate: false})
}
