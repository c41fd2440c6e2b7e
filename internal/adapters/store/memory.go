package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/helixhq/helix/internal/domain/model"
	"github.com/helixhq/helix/pkg/metrics"
)

// employeeRecord holds all state tracked for one employee.
type employeeRecord struct {
	confidence    model.SkillConfidence
	updates       []model.ConfidenceUpdate
	awards        []model.PointAward
	contributions map[string]model.Contribution
}

func newEmployeeRecord() *employeeRecord {
	return &employeeRecord{
		confidence:    model.SkillConfidence{},
		contributions: map[string]model.Contribution{},
	}
}

// MemoryStore is the default in-process backend. All reads copy out so
// callers can never mutate shared state.
type MemoryStore struct {
	mu        sync.RWMutex
	employees map[string]*employeeRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		employees: map[string]*employeeRecord{},
	}
}

// Confidence returns the current confidence per skill.
func (s *MemoryStore) Confidence(ctx context.Context, employeeID string) (model.SkillConfidence, error) {
	defer trackStoreOp("confidence_snapshot")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.employees[employeeID]
	if !ok {
		return model.SkillConfidence{}, nil
	}
	out := make(model.SkillConfidence, len(rec.confidence))
	for skill, conf := range rec.confidence {
		out[skill] = conf
	}
	return out, nil
}

// ConfidenceHistory returns all applied confidence updates in insertion order.
func (s *MemoryStore) ConfidenceHistory(ctx context.Context, employeeID string) ([]model.ConfidenceUpdate, error) {
	defer trackStoreOp("confidence_history")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.employees[employeeID]
	if !ok {
		return []model.ConfidenceUpdate{}, nil
	}
	out := make([]model.ConfidenceUpdate, len(rec.updates))
	copy(out, rec.updates)
	return out, nil
}

// AppendUpdate records an applied update and moves the snapshot.
func (s *MemoryStore) AppendUpdate(ctx context.Context, employeeID string, update model.ConfidenceUpdate) error {
	defer trackStoreOp("confidence_append")()

	if employeeID == "" {
		metrics.RecordStoreError("confidence_append")
		return ErrMissingEmployee
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(employeeID)
	rec.updates = append(rec.updates, update)
	rec.confidence[update.Skill] = update.NewConfidence
	return nil
}

// MonthlyGrowth sums confidence gained per skill in the given month.
func (s *MemoryStore) MonthlyGrowth(ctx context.Context, employeeID, month string) (map[string]float64, error) {
	defer trackStoreOp("confidence_monthly_growth")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	growth := map[string]float64{}
	rec, ok := s.employees[employeeID]
	if !ok {
		return growth, nil
	}
	for _, update := range rec.updates {
		if strings.HasPrefix(update.AppliedAt, month) {
			growth[update.Skill] += update.Increment
		}
	}
	return growth, nil
}

// Points returns the employee's total points balance.
func (s *MemoryStore) Points(ctx context.Context, employeeID string) (model.PointsSnapshot, error) {
	defer trackStoreOp("points_snapshot")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := model.PointsSnapshot{}
	rec, ok := s.employees[employeeID]
	if !ok {
		return snapshot, nil
	}
	for _, award := range rec.awards {
		snapshot.TotalPoints += award.PointsAwarded
	}
	return snapshot, nil
}

// PointAwards returns all point awards in insertion order.
func (s *MemoryStore) PointAwards(ctx context.Context, employeeID string) ([]model.PointAward, error) {
	defer trackStoreOp("points_history")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.employees[employeeID]
	if !ok {
		return []model.PointAward{}, nil
	}
	out := make([]model.PointAward, len(rec.awards))
	copy(out, rec.awards)
	return out, nil
}

// AppendAward records a granted award.
func (s *MemoryStore) AppendAward(ctx context.Context, employeeID string, award model.PointAward) error {
	defer trackStoreOp("points_append")()

	if employeeID == "" {
		metrics.RecordStoreError("points_append")
		return ErrMissingEmployee
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(employeeID)
	rec.awards = append(rec.awards, award)
	return nil
}

// MonthlyPoints sums points awarded per skill in the given month.
func (s *MemoryStore) MonthlyPoints(ctx context.Context, employeeID, month string) (map[string]int, error) {
	defer trackStoreOp("points_monthly")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := map[string]int{}
	rec, ok := s.employees[employeeID]
	if !ok {
		return totals, nil
	}
	for _, award := range rec.awards {
		if strings.HasPrefix(award.AwardedAt, month) {
			totals[award.Skill] += award.PointsAwarded
		}
	}
	return totals, nil
}

// Validated returns the employee's validated contributions.
func (s *MemoryStore) Validated(ctx context.Context, employeeID string) ([]model.Contribution, error) {
	defer trackStoreOp("contributions_validated")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Contribution{}
	rec, ok := s.employees[employeeID]
	if !ok {
		return out, nil
	}
	for _, contrib := range rec.contributions {
		if contrib.Status == model.StatusValidated {
			out = append(out, contrib)
		}
	}
	// Stable order so downstream plans are deterministic.
	sort.Slice(out, func(i, j int) bool {
		if out[i].ValidatedAt != out[j].ValidatedAt {
			return out[i].ValidatedAt < out[j].ValidatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Put records a contribution, replacing any record with the same id.
func (s *MemoryStore) Put(ctx context.Context, contribution model.Contribution) error {
	defer trackStoreOp("contributions_put")()

	if contribution.ID == "" {
		metrics.RecordStoreError("contributions_put")
		return ErrMissingContribID
	}
	if contribution.EmployeeID == "" {
		metrics.RecordStoreError("contributions_put")
		return ErrMissingEmployee
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(contribution.EmployeeID)
	rec.contributions[contribution.ID] = contribution
	return nil
}

// EmployeeCount reports how many employees have any state.
func (s *MemoryStore) EmployeeCount(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.employees)
}

// record returns the employee's record, creating it if needed. Callers
// must hold the write lock.
func (s *MemoryStore) record(employeeID string) *employeeRecord {
	rec, ok := s.employees[employeeID]
	if !ok {
		rec = newEmployeeRecord()
		s.employees[employeeID] = rec
	}
	return rec
}

func trackStoreOp(op string) func() {
	start := time.Now()
	return func() {
		metrics.RecordStoreOperationLatency(op, float64(time.Since(start).Milliseconds()))
	}
}
