// Package store defines persistence contracts for confidence, points,
// and contribution data, plus the in-memory and postgres backends.
package store

import (
	"context"
	"fmt"

	"github.com/helixhq/helix/internal/domain/model"
)

// Month keys passed to MonthlyGrowth and MonthlyPoints use this layout.
const MonthKeyLayout = "2006-01"

// ConfidenceStore provides access to skill confidence state. Unknown
// employees are not an error: reads return empty datasets.
type ConfidenceStore interface {
	// Confidence returns the current confidence per skill.
	Confidence(ctx context.Context, employeeID string) (model.SkillConfidence, error)

	// ConfidenceHistory returns all applied confidence updates.
	ConfidenceHistory(ctx context.Context, employeeID string) ([]model.ConfidenceUpdate, error)

	// AppendUpdate records an applied update and moves the snapshot.
	AppendUpdate(ctx context.Context, employeeID string, update model.ConfidenceUpdate) error

	// MonthlyGrowth returns confidence gained per skill in the given month.
	MonthlyGrowth(ctx context.Context, employeeID, month string) (map[string]float64, error)
}

// PointsStore provides access to Helix Points state.
type PointsStore interface {
	// Points returns the employee's total points balance.
	Points(ctx context.Context, employeeID string) (model.PointsSnapshot, error)

	// PointAwards returns all point awards.
	PointAwards(ctx context.Context, employeeID string) ([]model.PointAward, error)

	// AppendAward records a granted award.
	AppendAward(ctx context.Context, employeeID string, award model.PointAward) error

	// MonthlyPoints returns points awarded per skill in the given month.
	MonthlyPoints(ctx context.Context, employeeID, month string) (map[string]int, error)
}

// ContributionStore provides access to contribution records.
type ContributionStore interface {
	// Validated returns the employee's validated contributions.
	Validated(ctx context.Context, employeeID string) ([]model.Contribution, error)

	// Put records a contribution, replacing any record with the same id.
	Put(ctx context.Context, contribution model.Contribution) error
}

// Store bundles the three persistence contracts behind one backend.
type Store interface {
	ConfidenceStore
	PointsStore
	ContributionStore
}

// Backend names accepted by New.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// New creates a store for the named backend.
func New(ctx context.Context, backend, dsn string) (Store, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendPostgres:
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
