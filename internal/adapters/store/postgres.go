package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/helixhq/helix/internal/domain/model"
	"github.com/helixhq/helix/pkg/metrics"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const (
	pgMaxOpenConns    = 16
	pgMaxIdleConns    = 8
	pgConnMaxLifetime = 30 * time.Minute
	pgPingTimeout     = 5 * time.Second
)

// schema is applied on startup. Timestamps are stored as RFC3339 text,
// matching the wire and engine representation.
const schema = `
CREATE TABLE IF NOT EXISTS confidence_snapshots (
	employee_id TEXT NOT NULL,
	skill       TEXT NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (employee_id, skill)
);

CREATE TABLE IF NOT EXISTS confidence_updates (
	id                     BIGSERIAL PRIMARY KEY,
	employee_id            TEXT NOT NULL,
	skill                  TEXT NOT NULL,
	previous_confidence    DOUBLE PRECISION NOT NULL,
	new_confidence         DOUBLE PRECISION NOT NULL,
	increment              DOUBLE PRECISION NOT NULL,
	source_contribution_id TEXT NOT NULL,
	contribution_level     TEXT NOT NULL,
	role                   TEXT NOT NULL,
	applied_at             TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_confidence_updates_employee
	ON confidence_updates (employee_id);

CREATE TABLE IF NOT EXISTS point_awards (
	id                     BIGSERIAL PRIMARY KEY,
	employee_id            TEXT NOT NULL,
	skill                  TEXT NOT NULL,
	points_awarded         INTEGER NOT NULL,
	source_contribution_id TEXT NOT NULL,
	contribution_level     TEXT NOT NULL,
	role                   TEXT NOT NULL,
	confidence_delta       DOUBLE PRECISION NOT NULL,
	base_points            INTEGER NOT NULL,
	role_multiplier        DOUBLE PRECISION NOT NULL,
	confidence_multiplier  DOUBLE PRECISION NOT NULL,
	awarded_at             TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_point_awards_employee
	ON point_awards (employee_id);

CREATE TABLE IF NOT EXISTS contributions (
	id                 TEXT PRIMARY KEY,
	employee_id        TEXT NOT NULL,
	skill              TEXT NOT NULL,
	contribution_level TEXT NOT NULL,
	role               TEXT NOT NULL,
	confidence_impact  DOUBLE PRECISION NOT NULL,
	status             TEXT NOT NULL,
	validated_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contributions_employee
	ON contributions (employee_id);
`

// PostgresStore persists all state in postgres through sqlx.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects, verifies the connection, and ensures the
// schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailure, err)
	}
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	db.SetConnMaxLifetime(pgConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pgPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailure, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Confidence returns the current confidence per skill.
func (s *PostgresStore) Confidence(ctx context.Context, employeeID string) (model.SkillConfidence, error) {
	defer trackStoreOp("confidence_snapshot")()

	rows := []struct {
		Skill      string  `db:"skill"`
		Confidence float64 `db:"confidence"`
	}{}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT skill, confidence FROM confidence_snapshots WHERE employee_id = $1`, employeeID)
	if err != nil {
		metrics.RecordStoreError("confidence_snapshot")
		return nil, fmt.Errorf("selecting confidence snapshot: %w", err)
	}

	snapshot := make(model.SkillConfidence, len(rows))
	for _, row := range rows {
		snapshot[row.Skill] = row.Confidence
	}
	return snapshot, nil
}

// ConfidenceHistory returns all applied confidence updates.
func (s *PostgresStore) ConfidenceHistory(ctx context.Context, employeeID string) ([]model.ConfidenceUpdate, error) {
	defer trackStoreOp("confidence_history")()

	updates := []model.ConfidenceUpdate{}
	err := s.db.SelectContext(ctx, &updates,
		`SELECT skill, previous_confidence, new_confidence, increment,
		        source_contribution_id, contribution_level, role, applied_at
		   FROM confidence_updates
		  WHERE employee_id = $1
		  ORDER BY applied_at, id`, employeeID)
	if err != nil {
		metrics.RecordStoreError("confidence_history")
		return nil, fmt.Errorf("selecting confidence history: %w", err)
	}
	return updates, nil
}

// AppendUpdate records an applied update and moves the snapshot in one
// transaction.
func (s *PostgresStore) AppendUpdate(ctx context.Context, employeeID string, update model.ConfidenceUpdate) error {
	defer trackStoreOp("confidence_append")()

	if employeeID == "" {
		metrics.RecordStoreError("confidence_append")
		return ErrMissingEmployee
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		metrics.RecordStoreError("confidence_append")
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO confidence_updates
		        (employee_id, skill, previous_confidence, new_confidence, increment,
		         source_contribution_id, contribution_level, role, applied_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		employeeID, update.Skill, update.PreviousConfidence, update.NewConfidence,
		update.Increment, update.SourceContributionID, update.ContributionLevel,
		update.Role, update.AppliedAt)
	if err != nil {
		metrics.RecordStoreError("confidence_append")
		return fmt.Errorf("inserting confidence update: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO confidence_snapshots (employee_id, skill, confidence)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (employee_id, skill) DO UPDATE SET confidence = EXCLUDED.confidence`,
		employeeID, update.Skill, update.NewConfidence)
	if err != nil {
		metrics.RecordStoreError("confidence_append")
		return fmt.Errorf("upserting confidence snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordStoreError("confidence_append")
		return fmt.Errorf("committing confidence update: %w", err)
	}
	return nil
}

// MonthlyGrowth sums confidence gained per skill in the given month.
func (s *PostgresStore) MonthlyGrowth(ctx context.Context, employeeID, month string) (map[string]float64, error) {
	defer trackStoreOp("confidence_monthly_growth")()

	rows := []struct {
		Skill  string  `db:"skill"`
		Growth float64 `db:"growth"`
	}{}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT skill, SUM(increment) AS growth
		   FROM confidence_updates
		  WHERE employee_id = $1 AND left(applied_at, 7) = $2
		  GROUP BY skill`, employeeID, month)
	if err != nil {
		metrics.RecordStoreError("confidence_monthly_growth")
		return nil, fmt.Errorf("selecting monthly growth: %w", err)
	}

	growth := make(map[string]float64, len(rows))
	for _, row := range rows {
		growth[row.Skill] = row.Growth
	}
	return growth, nil
}

// Points returns the employee's total points balance.
func (s *PostgresStore) Points(ctx context.Context, employeeID string) (model.PointsSnapshot, error) {
	defer trackStoreOp("points_snapshot")()

	var total sql.NullInt64
	err := s.db.GetContext(ctx, &total,
		`SELECT SUM(points_awarded) FROM point_awards WHERE employee_id = $1`, employeeID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		metrics.RecordStoreError("points_snapshot")
		return model.PointsSnapshot{}, fmt.Errorf("selecting points total: %w", err)
	}
	return model.PointsSnapshot{TotalPoints: int(total.Int64)}, nil
}

// PointAwards returns all point awards.
func (s *PostgresStore) PointAwards(ctx context.Context, employeeID string) ([]model.PointAward, error) {
	defer trackStoreOp("points_history")()

	awards := []model.PointAward{}
	err := s.db.SelectContext(ctx, &awards,
		`SELECT employee_id, skill, points_awarded, source_contribution_id,
		        contribution_level, role, confidence_delta, base_points,
		        role_multiplier, confidence_multiplier, awarded_at
		   FROM point_awards
		  WHERE employee_id = $1
		  ORDER BY awarded_at, id`, employeeID)
	if err != nil {
		metrics.RecordStoreError("points_history")
		return nil, fmt.Errorf("selecting point awards: %w", err)
	}
	return awards, nil
}

// AppendAward records a granted award.
func (s *PostgresStore) AppendAward(ctx context.Context, employeeID string, award model.PointAward) error {
	defer trackStoreOp("points_append")()

	if employeeID == "" {
		metrics.RecordStoreError("points_append")
		return ErrMissingEmployee
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO point_awards
		        (employee_id, skill, points_awarded, source_contribution_id,
		         contribution_level, role, confidence_delta, base_points,
		         role_multiplier, confidence_multiplier, awarded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		employeeID, award.Skill, award.PointsAwarded, award.SourceContributionID,
		award.ContributionLevel, award.Role, award.ConfidenceDelta, award.BasePoints,
		award.RoleMultiplier, award.ConfidenceMultiplier, award.AwardedAt)
	if err != nil {
		metrics.RecordStoreError("points_append")
		return fmt.Errorf("inserting point award: %w", err)
	}
	return nil
}

// MonthlyPoints sums points awarded per skill in the given month.
func (s *PostgresStore) MonthlyPoints(ctx context.Context, employeeID, month string) (map[string]int, error) {
	defer trackStoreOp("points_monthly")()

	rows := []struct {
		Skill  string `db:"skill"`
		Points int    `db:"points"`
	}{}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT skill, SUM(points_awarded) AS points
		   FROM point_awards
		  WHERE employee_id = $1 AND left(awarded_at, 7) = $2
		  GROUP BY skill`, employeeID, month)
	if err != nil {
		metrics.RecordStoreError("points_monthly")
		return nil, fmt.Errorf("selecting monthly points: %w", err)
	}

	totals := make(map[string]int, len(rows))
	for _, row := range rows {
		totals[row.Skill] = row.Points
	}
	return totals, nil
}

// Validated returns the employee's validated contributions.
func (s *PostgresStore) Validated(ctx context.Context, employeeID string) ([]model.Contribution, error) {
	defer trackStoreOp("contributions_validated")()

	contributions := []model.Contribution{}
	err := s.db.SelectContext(ctx, &contributions,
		`SELECT id, employee_id, skill, contribution_level, role,
		        confidence_impact, status, validated_at
		   FROM contributions
		  WHERE employee_id = $1 AND status = $2
		  ORDER BY validated_at, id`, employeeID, model.StatusValidated)
	if err != nil {
		metrics.RecordStoreError("contributions_validated")
		return nil, fmt.Errorf("selecting validated contributions: %w", err)
	}
	return contributions, nil
}

// Put records a contribution, replacing any record with the same id.
func (s *PostgresStore) Put(ctx context.Context, contribution model.Contribution) error {
	defer trackStoreOp("contributions_put")()

	if contribution.ID == "" {
		metrics.RecordStoreError("contributions_put")
		return ErrMissingContribID
	}
	if contribution.EmployeeID == "" {
		metrics.RecordStoreError("contributions_put")
		return ErrMissingEmployee
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contributions
		        (id, employee_id, skill, contribution_level, role,
		         confidence_impact, status, validated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		        employee_id = EXCLUDED.employee_id,
		        skill = EXCLUDED.skill,
		        contribution_level = EXCLUDED.contribution_level,
		        role = EXCLUDED.role,
		        confidence_impact = EXCLUDED.confidence_impact,
		        status = EXCLUDED.status,
		        validated_at = EXCLUDED.validated_at`,
		contribution.ID, contribution.EmployeeID, contribution.Skill,
		contribution.ContributionLevel, contribution.Role,
		contribution.ConfidenceImpact, contribution.Status, contribution.ValidatedAt)
	if err != nil {
		metrics.RecordStoreError("contributions_put")
		return fmt.Errorf("upserting contribution: %w", err)
	}
	return nil
}
