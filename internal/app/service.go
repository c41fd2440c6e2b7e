// Package service wires the readiness engine, the contribution
// pipeline, and the store behind the interfaces the HTTP API needs.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	contributionqueue "github.com/helixhq/helix/internal/adapters/mq/queue"
	workerpool "github.com/helixhq/helix/internal/adapters/mq/worker"
	"github.com/helixhq/helix/internal/adapters/store"
	"github.com/helixhq/helix/internal/domain/confidence"
	"github.com/helixhq/helix/internal/domain/dedupe"
	"github.com/helixhq/helix/internal/domain/model"
	"github.com/helixhq/helix/internal/domain/points"
	"github.com/helixhq/helix/internal/domain/readiness"
	"github.com/helixhq/helix/internal/domain/types"
	"github.com/helixhq/helix/pkg/logger"
	"github.com/helixhq/helix/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultWorkerCount = 8
	defaultQueueSize   = 100000
	defaultDedupeSize  = 50000
)

// Fan-out sources labeling the fetch latency metric.
const (
	sourceConfidenceSnapshot = "confidence_snapshot"
	sourceConfidenceHistory  = "confidence_history"
	sourcePointsBalance      = "points_balance"
	sourcePointAwards        = "point_awards"
	sourceContributions      = "contributions"
)

// Service implements the API dependencies for the readiness system. It
// also implements worker.Processor so queued contributions flow back
// through it.
type Service struct {
	mu sync.RWMutex

	store      store.Store
	deduper    dedupe.Deduper
	queue      *contributionqueue.InMemoryQueue
	calculator *readiness.Calculator
	pool       *workerpool.Pool

	workerCount  int
	queueSize    int
	dedupeSize   int
	storeBackend string
	postgresDSN  string
	now          func() time.Time

	started bool
	stopCh  chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the contribution queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreBackend selects the persistence backend by name.
func WithStoreBackend(backend string) Option {
	return func(s *Service) {
		if backend != "" {
			s.storeBackend = backend
		}
	}
}

// WithPostgresDSN sets the DSN used by the postgres backend.
func WithPostgresDSN(dsn string) Option {
	return func(s *Service) {
		s.postgresDSN = dsn
	}
}

// WithClock sets the time source for monthly caps and trailing windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  defaultWorkerCount,
		queueSize:    defaultQueueSize,
		dedupeSize:   defaultDedupeSize,
		storeBackend: store.BackendMemory,
		now:          time.Now,
		stopCh:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting readiness service...")

	backend, err := store.New(ctx, s.storeBackend, s.postgresDSN)
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	s.store = backend
	s.logger.Info(ctx, "store initialized", logger.String("backend", s.storeBackend))

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = contributionqueue.NewInMemoryQueue(
		contributionqueue.WithCapacity(s.queueSize),
		contributionqueue.WithBufferSize(s.queueSize),
	)
	s.calculator = readiness.New(
		readiness.WithClock(s.now),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "readiness service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping readiness service...")

	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(ctx, "readiness service stopped")
}

// Readiness computes the promotion readiness result for an employee.
// The five input reads fan out concurrently and join all-or-nothing: if
// any read fails, no result is produced. Unknown employees are not a
// failure; their reads come back empty and yield a baseline result.
func (s *Service) Readiness(ctx context.Context, employeeID, currentRole string) (*types.Readiness, error) {
	if employeeID == "" {
		s.logger.Warn(ctx, "readiness requested without employee id")
		metrics.RecordReadinessFailure()
		return nil, ErrMissingEmployeeID
	}

	start := time.Now()

	var (
		snapshot      model.SkillConfidence
		history       []model.ConfidenceUpdate
		balance       model.PointsSnapshot
		awards        []model.PointAward
		contributions []model.Contribution
	)

	fetchErrs := make([]error, 5)
	var wg sync.WaitGroup
	fetch := func(slot int, source string, read func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetchStart := time.Now()
			fetchErrs[slot] = read()
			metrics.RecordFetchLatency(source, float64(time.Since(fetchStart).Milliseconds()))
		}()
	}

	fetch(0, sourceConfidenceSnapshot, func() error {
		var err error
		snapshot, err = s.store.Confidence(ctx, employeeID)
		return err
	})
	fetch(1, sourceConfidenceHistory, func() error {
		var err error
		history, err = s.store.ConfidenceHistory(ctx, employeeID)
		return err
	})
	fetch(2, sourcePointsBalance, func() error {
		var err error
		balance, err = s.store.Points(ctx, employeeID)
		return err
	})
	fetch(3, sourcePointAwards, func() error {
		var err error
		awards, err = s.store.PointAwards(ctx, employeeID)
		return err
	})
	fetch(4, sourceContributions, func() error {
		var err error
		contributions, err = s.store.Validated(ctx, employeeID)
		return err
	})
	wg.Wait()

	for _, err := range fetchErrs {
		if err != nil {
			metrics.RecordReadinessFailure()
			s.logger.Error(ctx, "readiness input fetch failed",
				logger.String("employee_id", employeeID),
				logger.Error(err),
			)
			return nil, fmt.Errorf("fetching readiness inputs: %w", err)
		}
	}

	result := s.calculator.Evaluate(snapshot, history, awards, contributions, currentRole)

	metrics.RecordReadinessComputation()
	metrics.RecordReadinessDuration(float64(time.Since(start).Milliseconds()))
	s.logger.Debug(ctx, "readiness computed",
		logger.String("employee_id", employeeID),
		logger.Float64("score", result.Score),
		logger.String("level", result.Level),
		logger.Int("total_points", balance.TotalPoints),
	)

	return &types.Readiness{
		EmployeeID:               employeeID,
		PromotionReadinessScore:  result.Score,
		ReadinessLevel:           result.Level,
		RecommendedNextRole:      result.RecommendedNextRole,
		SkillGaps:                result.SkillGaps,
		EstimatedTimeToPromotion: result.EstimatedTimeToPromotion,
		Factors: types.Factors{
			AverageConfidence:       result.Factors.AverageConfidence,
			ConfidenceGrowthRate:    result.Factors.ConfidenceGrowthRate,
			PointsRate:              result.Factors.PointsRate,
			ContributionConsistency: result.Factors.ContributionConsistency,
			SkillDiversity:          result.Factors.SkillDiversity,
		},
	}, nil
}

// Process applies one contribution end to end: persist it, plan and
// append confidence updates, then plan and append point awards for the
// updates that landed. Implements worker.Processor.
func (s *Service) Process(ctx context.Context, contribution model.Contribution) error {
	now := s.now()

	if err := s.store.Put(ctx, contribution); err != nil {
		return fmt.Errorf("storing contribution %s: %w", contribution.ID, err)
	}
	if contribution.Status != model.StatusValidated {
		s.logger.Debug(ctx, "contribution stored but not validated, skipping pipeline",
			logger.String("contribution_id", contribution.ID),
			logger.String("status", contribution.Status),
		)
		return nil
	}

	employeeID := contribution.EmployeeID
	month := now.UTC().Format(store.MonthKeyLayout)

	snapshot, err := s.store.Confidence(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("reading confidence snapshot: %w", err)
	}
	history, err := s.store.ConfidenceHistory(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("reading confidence history: %w", err)
	}
	monthlyGrowth, err := s.store.MonthlyGrowth(ctx, employeeID, month)
	if err != nil {
		return fmt.Errorf("reading monthly growth: %w", err)
	}

	confPlan := confidence.BuildPlan(
		[]model.Contribution{contribution}, snapshot, history, monthlyGrowth, now)
	if err := confidence.ValidatePlan(confPlan); err != nil {
		return fmt.Errorf("confidence plan for contribution %s: %w", contribution.ID, err)
	}
	if len(confPlan.Updates) == 0 {
		if len(confPlan.Errors) > 0 {
			return fmt.Errorf("%w: %s", ErrNoConfidenceUpdate, confPlan.Errors[0])
		}
		// Already applied or not eligible; nothing more to do.
		return nil
	}

	for _, update := range confPlan.Updates {
		if err := s.store.AppendUpdate(ctx, employeeID, update); err != nil {
			return fmt.Errorf("appending confidence update for %s: %w", update.Skill, err)
		}
		metrics.RecordConfidenceUpdate()
	}

	monthlyPoints, err := s.store.MonthlyPoints(ctx, employeeID, month)
	if err != nil {
		return fmt.Errorf("reading monthly points: %w", err)
	}

	pointsPlan := points.BuildPlan(
		[]model.Contribution{contribution}, confPlan.Updates, monthlyPoints, now)
	if err := points.ValidatePlan(pointsPlan); err != nil {
		return fmt.Errorf("points plan for contribution %s: %w", contribution.ID, err)
	}
	// Confidence already moved; a capped award is a warning, not a failure.
	for _, planErr := range pointsPlan.Errors {
		s.logger.Warn(ctx, "point award skipped",
			logger.String("contribution_id", contribution.ID),
			logger.String("reason", planErr),
		)
	}

	for _, award := range pointsPlan.Awards {
		if err := s.store.AppendAward(ctx, employeeID, award); err != nil {
			return fmt.Errorf("appending point award for %s: %w", award.Skill, err)
		}
		metrics.RecordPointsAwarded(award.PointsAwarded)
	}

	if s.pool != nil {
		s.pool.RecordProcessedMessage()
	}

	s.logger.Debug(ctx, "contribution processed",
		logger.String("contribution_id", contribution.ID),
		logger.String("employee_id", employeeID),
		logger.Int("updates", len(confPlan.Updates)),
		logger.Int("points", pointsPlan.TotalPoints),
	)

	return nil
}

// Enqueue submits a contribution for asynchronous processing. Returns
// false when the queue rejects it (backpressure or closed).
func (s *Service) Enqueue(ctx context.Context, contribution model.Contribution) bool {
	ok := s.queue.Enqueue(ctx, contribution)
	if ok {
		metrics.RecordContributionAccepted()
	}
	return ok
}

// SeenAndRecord atomically checks if a contribution id was seen and
// records it if not. Returns true if it was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordContributionDuplicate()
	}
	return seen
}

// Unrecord removes a contribution ID from the seen set so the client
// may retry it, used when the queue rejected an already-recorded id.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// ConfidenceReport returns an employee's confidence snapshot and history.
func (s *Service) ConfidenceReport(ctx context.Context, employeeID string) (*types.ConfidenceReport, error) {
	if employeeID == "" {
		return nil, ErrMissingEmployeeID
	}

	snapshot, err := s.store.Confidence(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("reading confidence snapshot: %w", err)
	}
	history, err := s.store.ConfidenceHistory(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("reading confidence history: %w", err)
	}

	return &types.ConfidenceReport{
		EmployeeID: employeeID,
		Snapshot:   snapshot,
		History:    history,
	}, nil
}

// PointsReport returns an employee's points balance and award history.
func (s *Service) PointsReport(ctx context.Context, employeeID string) (*types.PointsReport, error) {
	if employeeID == "" {
		return nil, ErrMissingEmployeeID
	}

	balance, err := s.store.Points(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("reading points balance: %w", err)
	}
	awards, err := s.store.PointAwards(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("reading point awards: %w", err)
	}

	return &types.PointsReport{
		EmployeeID: employeeID,
		Balance:    balance,
		Awards:     awards,
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		if counter, ok := s.store.(interface{ EmployeeCount(context.Context) int }); ok {
			total := counter.EmployeeCount(ctx)
			stats["totalEmployees"] = total
			metrics.UpdateTotalEmployees(total)
		}
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
