// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/helixhq/helix/internal/domain/dedupe"
	"github.com/helixhq/helix/internal/domain/model"
	"github.com/helixhq/helix/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a contribution for async processing. Returns false
	// on backpressure.
	Enqueue(ctx context.Context, contribution model.Contribution) bool

	// Read operations expose readiness and report data.
	Readiness(ctx context.Context, employeeID, currentRole string) (*types.Readiness, error)
	ConfidenceReport(ctx context.Context, employeeID string) (*types.ConfidenceReport, error)
	PointsReport(ctx context.Context, employeeID string) (*types.PointsReport, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	contributionsHandler *ContributionsHandler
	readinessHandler     *ReadinessHandler
	reportsHandler       *ReportsHandler
	dashboardHandler     *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		contributionsHandler: NewContributionsHandler(deps),
		readinessHandler:     NewReadinessHandler(deps),
		reportsHandler:       NewReportsHandler(deps),
		dashboardHandler:     newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/contributions", MetricsMiddleware(s.contributionsHandler.HandlePostContribution, "contributions"))
	mux.HandleFunc("/readiness/", MetricsMiddleware(s.readinessHandler.HandleGetReadiness, "readiness"))
	mux.HandleFunc("/confidence/", MetricsMiddleware(s.reportsHandler.HandleGetConfidence, "confidence"))
	mux.HandleFunc("/points/", MetricsMiddleware(s.reportsHandler.HandleGetPoints, "points"))
}

// contributionRequest mirrors the OpenAPI schema for POST /contributions.
type contributionRequest struct {
	ID                string  `json:"id"`
	EmployeeID        string  `json:"employee_id"`
	Skill             string  `json:"skill"`
	ContributionLevel string  `json:"contribution_level"`
	Role              string  `json:"role"`
	ConfidenceImpact  float64 `json:"confidence_impact"`
	ValidatedAt       string  `json:"validated_at"`
}

var (
	validLevels = map[string]struct{}{
		model.LevelMinor:       {},
		model.LevelModerate:    {},
		model.LevelSignificant: {},
	}
	validRoles = map[string]struct{}{
		model.RoleAssistant:   {},
		model.RoleContributor: {},
		model.RoleLead:        {},
		model.RoleArchitect:   {},
	}
)

func (c contributionRequest) validate() error {
	switch {
	case strings.TrimSpace(c.EmployeeID) == "":
		return errors.New("missing employee_id")
	case strings.TrimSpace(c.Skill) == "":
		return errors.New("missing skill")
	case strings.TrimSpace(c.ValidatedAt) == "":
		return errors.New("missing validated_at")
	case c.ConfidenceImpact <= 0 || c.ConfidenceImpact > 100:
		return errors.New("confidence_impact must be in (0,100]")
	}
	if c.ContributionLevel != "" {
		if _, ok := validLevels[c.ContributionLevel]; !ok {
			return errors.New("invalid contribution_level")
		}
	}
	if c.Role != "" {
		if _, ok := validRoles[c.Role]; !ok {
			return errors.New("invalid role")
		}
	}
	if _, err := time.Parse(time.RFC3339, c.ValidatedAt); err != nil {
		return errors.New("invalid validated_at; must be RFC3339")
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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

// pathParam extracts the single path segment after prefix, or "" when
// the path is malformed.
func pathParam(path, prefix string) string {
	param := strings.TrimPrefix(path, prefix)
	if param == "" || strings.Contains(param, "/") {
		return ""
	}
	return param
}
