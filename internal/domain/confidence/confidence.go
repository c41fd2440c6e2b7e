// Package confidence incrementally updates skill confidence from
// validated contributions. Updates never decrease confidence, stay
// inside [0,100], and respect a per-skill monthly growth cap. The
// package only plans updates; persisting them is the caller's job.
package confidence

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/helixhq/helix/internal/domain/model"
)

const (
	minConfidence = 0.0
	maxConfidence = 100.0

	// MonthlyGrowthCap bounds confidence growth per skill per calendar
	// month.
	MonthlyGrowthCap = 15.0

	// diminishingFactor shrinks the increment for each contribution
	// already applied to the same skill.
	diminishingFactor = 0.8
)

// Plan is the outcome of processing a batch of validated contributions.
// Nothing is persisted yet; Errors collects contributions that could not
// produce an update.
type Plan struct {
	Updates                []model.ConfidenceUpdate `json:"updates"`
	AppliedContributionIDs []string                 `json:"applied_contribution_ids"`
	Errors                 []string                 `json:"errors"`
}

// roleMultipliers weight a contribution's impact by the role held on it.
var roleMultipliers = map[string]float64{
	model.RoleArchitect:   1.2,
	model.RoleLead:        1.1,
	model.RoleContributor: 1.0,
	model.RoleAssistant:   0.8,
}

// Increment computes the confidence increment for a contribution:
// base impact weighted by role, with diminishing returns for each
// contribution already applied to the same skill. Unknown roles weigh
// 1.0. The result is rounded to two decimals.
func Increment(baseImpact float64, role string, priorApplied int) float64 {
	mult, ok := roleMultipliers[role]
	if !ok {
		mult = 1.0
	}
	increment := baseImpact * mult * math.Pow(diminishingFactor, float64(priorApplied))
	return round2(increment)
}

// Apply adds an increment to the current confidence under the
// safeguards: non-positive increments are no-ops, the monthly growth
// cap truncates the increment, and the result is clamped to [0,100].
// It returns the new confidence and the increment actually applied.
func Apply(current, increment, monthlyUsed float64) (float64, float64) {
	if increment <= 0 {
		return current, 0
	}

	capped := math.Min(increment, MonthlyGrowthCap-monthlyUsed)
	next := current + capped
	next = math.Max(minConfidence, math.Min(next, maxConfidence))

	return round2(next), round2(next - current)
}

// BuildPlan turns a batch of contributions into an update plan against
// the employee's current snapshot. The history supplies both the set of
// already-applied contribution ids and the per-skill counts driving
// diminishing returns; monthlyGrowth is the confidence already gained
// per skill this month. Skills are processed in sorted order so the
// plan is deterministic.
func BuildPlan(
	contributions []model.Contribution,
	current model.SkillConfidence,
	history []model.ConfidenceUpdate,
	monthlyGrowth map[string]float64,
	now time.Time,
) Plan {
	applied := make(map[string]struct{}, len(history))
	priorBySkill := make(map[string]int, len(history))
	for _, update := range history {
		if update.SourceContributionID != "" {
			applied[update.SourceContributionID] = struct{}{}
		}
		priorBySkill[update.Skill]++
	}

	bySkill := make(map[string][]model.Contribution)
	for _, contrib := range contributions {
		if contrib.Status != model.StatusValidated {
			continue
		}
		if _, seen := applied[contrib.ID]; seen {
			continue
		}
		bySkill[contrib.Skill] = append(bySkill[contrib.Skill], contrib)
	}

	skills := make([]string, 0, len(bySkill))
	for skill := range bySkill {
		skills = append(skills, skill)
	}
	sort.Strings(skills)

	appliedAt := now.UTC().Format(time.RFC3339)
	plan := Plan{
		Updates:                []model.ConfidenceUpdate{},
		AppliedContributionIDs: []string{},
		Errors:                 []string{},
	}

	for _, skill := range skills {
		conf := current[skill]
		growthUsed := monthlyGrowth[skill]
		priorCount := priorBySkill[skill]

		for _, contrib := range bySkill[skill] {
			level := contrib.ContributionLevel
			if level == "" {
				level = model.LevelModerate
			}
			role := contrib.Role
			if role == "" {
				role = model.RoleContributor
			}

			increment := Increment(contrib.ConfidenceImpact, role, priorCount)
			next, actual := Apply(conf, increment, growthUsed)
			if actual <= 0 {
				plan.Errors = append(plan.Errors, fmt.Sprintf(
					"contribution %s: no increment applied (cap reached or invalid)", contrib.ID))
				continue
			}

			plan.Updates = append(plan.Updates, model.ConfidenceUpdate{
				Skill:                skill,
				PreviousConfidence:   conf,
				NewConfidence:        next,
				Increment:            actual,
				SourceContributionID: contrib.ID,
				ContributionLevel:    level,
				Role:                 role,
				AppliedAt:            appliedAt,
			})
			plan.AppliedContributionIDs = append(plan.AppliedContributionIDs, contrib.ID)

			conf = next
			growthUsed += actual
			priorCount++
		}
	}

	return plan
}

// ValidatePlan re-checks a plan's invariants before it is persisted:
// required fields, confidence bounds, non-negative increments, and
// monotonic confidence. It returns nil for a valid plan.
func ValidatePlan(plan Plan) error {
	var issues []string
	for _, update := range plan.Updates {
		if update.Skill == "" {
			issues = append(issues, "update missing skill")
			continue
		}
		if update.SourceContributionID == "" {
			issues = append(issues, fmt.Sprintf("update for %s missing source contribution id", update.Skill))
		}
		if update.PreviousConfidence < minConfidence || update.PreviousConfidence > maxConfidence {
			issues = append(issues, fmt.Sprintf("invalid previous confidence for %s: %v", update.Skill, update.PreviousConfidence))
		}
		if update.NewConfidence < minConfidence || update.NewConfidence > maxConfidence {
			issues = append(issues, fmt.Sprintf("invalid new confidence for %s: %v", update.Skill, update.NewConfidence))
		}
		if update.Increment < 0 {
			issues = append(issues, fmt.Sprintf("invalid increment for %s: %v", update.Skill, update.Increment))
		}
		if update.NewConfidence < update.PreviousConfidence {
			issues = append(issues, fmt.Sprintf("confidence decreased for %s: %v -> %v",
				update.Skill, update.PreviousConfidence, update.NewConfidence))
		}
	}
	if len(issues) > 0 {
		return fmt.Errorf("%w: %d issue(s), first: %s", ErrInvalidPlan, len(issues), issues[0])
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
