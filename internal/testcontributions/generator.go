package testcontributions

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/helixhq/helix/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	profileDivisor     = 5
	windowDays         = 170
)

// Constants for impact generation ranges.
const (
	steadyImpactMin     = 2.0
	steadyImpactRange   = 3.0
	strongImpactMin     = 5.0
	strongImpactRange   = 3.0
	minorImpactMin      = 0.5
	minorImpactRange    = 1.5
	standoutImpactMin   = 8.0
	standoutImpactRange = 2.0
	wideImpactMin       = 0.5
	wideImpactRange     = 9.5
)

// Constants for contributor profile cases.
const (
	caseSteadyContributor   = 0
	caseStrongContributor   = 1
	caseMinorContributor    = 2
	caseStandoutContributor = 3
	caseWideRange           = 4
)

// Skill, level, and role pools sampled during generation.
var (
	skills = []string{
		"Go", "Kubernetes", "PostgreSQL", "System Design",
		"Code Review", "Incident Response", "Mentoring", "CI/CD",
	}
	levels = []string{"Minor", "Minor", "Minor", "Moderate", "Moderate", "Significant"}
	roles  = []string{"Assistant", "Contributor", "Contributor", "Contributor", "Lead", "Architect"}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// pick returns a random element from the pool.
func pick(pool []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	return pool[n.Int64()]
}

// generateContributions creates validated contributions spread across unique
// employee IDs. Timestamps are scattered over the trailing months so the
// consistency and points-rate windows see realistic activity.
func generateContributions(ctx context.Context, config *Config, stats *Stats) ([]Contribution, error) {
	total := config.NumEmployees * config.PerEmployee
	logger.Get().Info(ctx, "generating contributions",
		logger.Int("employees", config.NumEmployees),
		logger.Int("perEmployee", config.PerEmployee),
		logger.Int("total", total))

	employeeIDs := make([]string, config.NumEmployees)
	for i := 0; i < config.NumEmployees; i++ {
		employeeIDs[i] = uuid.New().String()
	}

	type result struct {
		index        int
		contribution Contribution
		err          error
	}

	resultChan := make(chan result, total)

	workerCount := minInt(config.Workers, total)
	perWorker := total / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = total
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- result{index: i, err: ctx.Err()}
					return
				default:
					employeeID := employeeIDs[i/config.PerEmployee]
					resultChan <- result{index: i, contribution: generateSingleContribution(employeeID)}
				}
			}
		}(start, end)
	}

	contributions := make([]Contribution, total)
	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during contribution generation: %w", ctx.Err())
		case r := <-resultChan:
			if r.err != nil {
				return nil, fmt.Errorf("failed to generate contribution %d: %w", r.index, r.err)
			}
			contributions[r.index] = r.contribution
		}
	}

	stats.ContributionsGenerated = len(contributions)
	logger.Get().Info(ctx, "generated contributions successfully", logger.Int("count", len(contributions)))

	return contributions, nil
}

// generateSingleContribution creates one validated contribution for an employee.
func generateSingleContribution(employeeID string) Contribution {
	daysBack, _ := rand.Int(rand.Reader, big.NewInt(windowDays))
	validatedAt := time.Now().UTC().AddDate(0, 0, -int(daysBack.Int64())).Format(time.RFC3339)

	return Contribution{
		ID:                uuid.New().String(),
		EmployeeID:        employeeID,
		Skill:             pick(skills),
		ContributionLevel: pick(levels),
		Role:              pick(roles),
		ConfidenceImpact:  generateVariedImpact(),
		ValidatedAt:       validatedAt,
	}
}

// generateVariedImpact creates a confidence impact with varied distribution.
func generateVariedImpact() float64 {
	randNum, _ := rand.Int(rand.Reader, big.NewInt(profileDivisor))
	switch randNum.Int64() {
	case caseSteadyContributor:
		// Steady contributors (2.0 - 5.0) - most common
		return steadyImpactMin + getRandomFloat()*steadyImpactRange
	case caseStrongContributor:
		// Strong contributors (5.0 - 8.0)
		return strongImpactMin + getRandomFloat()*strongImpactRange
	case caseMinorContributor:
		// Minor contributors (0.5 - 2.0)
		return minorImpactMin + getRandomFloat()*minorImpactRange
	case caseStandoutContributor:
		// Standout contributors (8.0 - 10.0) - rare
		return standoutImpactMin + getRandomFloat()*standoutImpactRange
	case caseWideRange:
		// Random across full range (0.5 - 10.0)
		return wideImpactMin + getRandomFloat()*wideImpactRange
	default:
		return wideImpactMin + getRandomFloat()*wideImpactRange
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
