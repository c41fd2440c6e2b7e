// Package points awards Helix Points for validated contributions whose
// confidence updates have been applied. Awards are incremental and
// bounded: a per-contribution floor and ceiling, and a per-skill
// monthly cap. Like the confidence updater, this package only plans
// awards.
package points

import (
	"fmt"
	"math"
	"time"

	"github.com/helixhq/helix/internal/domain/model"
)

const (
	basePointsMinor       = 10
	basePointsModerate    = 25
	basePointsSignificant = 50

	// deltaThreshold is the confidence gain above which the bonus
	// multiplier kicks in; deltaFactor adds 10% per threshold unit.
	deltaThreshold = 5.0
	deltaFactor    = 1.1
	maxDeltaMult   = 2.0

	// MonthlyCapPerSkill bounds points awarded per skill per calendar
	// month.
	MonthlyCapPerSkill = 200

	// MinPerContribution and MaxPerContribution bound a single award.
	MinPerContribution = 5
	MaxPerContribution = 150
)

// Plan is the outcome of processing a batch of applied contributions.
type Plan struct {
	Awards      []model.PointAward `json:"awards"`
	TotalPoints int                `json:"total_points"`
	Errors      []string           `json:"errors"`
}

// BasePoints maps a contribution level to its base award. Unknown
// levels are treated as Moderate.
func BasePoints(level string) int {
	switch level {
	case model.LevelMinor:
		return basePointsMinor
	case model.LevelSignificant:
		return basePointsSignificant
	default:
		return basePointsModerate
	}
}

// RoleMultiplier weights an award by the role held on the contribution.
// Unknown roles weigh as Contributor.
func RoleMultiplier(role string) float64 {
	switch role {
	case model.RoleAssistant:
		return 0.7
	case model.RoleLead:
		return 1.3
	case model.RoleArchitect:
		return 1.3 * 1.1
	default:
		return 1.0
	}
}

// DeltaMultiplier rewards larger confidence gains. Gains below the
// threshold earn no bonus; above it the bonus scales linearly and caps
// at 2x.
func DeltaMultiplier(delta float64) float64 {
	if delta < deltaThreshold {
		return 1.0
	}
	return math.Min((delta/deltaThreshold)*deltaFactor, maxDeltaMult)
}

// Calculate computes the bounded award for a single contribution. The
// rarity multiplier is a hook for rare-skill weighting and is 1.0
// everywhere today.
func Calculate(level, role string, delta, rarity float64) int {
	total := float64(BasePoints(level)) * RoleMultiplier(role) * DeltaMultiplier(delta) * rarity
	award := int(math.Round(total))
	if award < MinPerContribution {
		return MinPerContribution
	}
	if award > MaxPerContribution {
		return MaxPerContribution
	}
	return award
}

// BuildPlan matches contributions to their applied confidence updates
// and plans point awards. A contribution without a matching update is
// rejected: points are only ever granted after confidence has moved.
// monthlyPoints carries the per-skill points already awarded this
// month; awards planned here count against the same cap, truncated to
// the remaining headroom and dropped when the remainder falls below
// the per-contribution minimum.
func BuildPlan(
	contributions []model.Contribution,
	updates []model.ConfidenceUpdate,
	monthlyPoints map[string]int,
	now time.Time,
) Plan {
	updateByID := make(map[string]model.ConfidenceUpdate, len(updates))
	for _, update := range updates {
		if update.SourceContributionID != "" {
			updateByID[update.SourceContributionID] = update
		}
	}

	used := make(map[string]int, len(monthlyPoints))
	for skill, pts := range monthlyPoints {
		used[skill] = pts
	}

	awardedAt := now.UTC().Format(time.RFC3339)
	plan := Plan{
		Awards: []model.PointAward{},
		Errors: []string{},
	}

	for _, contrib := range contributions {
		update, ok := updateByID[contrib.ID]
		if !ok {
			plan.Errors = append(plan.Errors, fmt.Sprintf(
				"no confidence update found for contribution %s", contrib.ID))
			continue
		}

		level := contrib.ContributionLevel
		if level == "" {
			level = model.LevelModerate
		}
		role := contrib.Role
		if role == "" {
			role = model.RoleContributor
		}
		delta := update.Increment

		if used[contrib.Skill] >= MonthlyCapPerSkill {
			plan.Errors = append(plan.Errors, fmt.Sprintf(
				"monthly cap reached for skill %s (contribution %s)", contrib.Skill, contrib.ID))
			continue
		}

		award := Calculate(level, role, delta, 1.0)
		if used[contrib.Skill]+award > MonthlyCapPerSkill {
			award = MonthlyCapPerSkill - used[contrib.Skill]
			if award < MinPerContribution {
				plan.Errors = append(plan.Errors, fmt.Sprintf(
					"points would exceed monthly cap for skill %s", contrib.Skill))
				continue
			}
		}

		plan.Awards = append(plan.Awards, model.PointAward{
			EmployeeID:           contrib.EmployeeID,
			Skill:                contrib.Skill,
			PointsAwarded:        award,
			SourceContributionID: contrib.ID,
			ContributionLevel:    level,
			Role:                 role,
			ConfidenceDelta:      delta,
			BasePoints:           BasePoints(level),
			RoleMultiplier:       RoleMultiplier(role),
			ConfidenceMultiplier: DeltaMultiplier(delta),
			AwardedAt:            awardedAt,
		})
		plan.TotalPoints += award
		used[contrib.Skill] += award
	}

	return plan
}

// ValidatePlan re-checks an award plan before it is persisted: required
// fields and per-contribution bounds. It returns nil for a valid plan.
func ValidatePlan(plan Plan) error {
	var issues []string
	for _, award := range plan.Awards {
		if award.EmployeeID == "" {
			issues = append(issues, "award missing employee id")
		}
		if award.Skill == "" {
			issues = append(issues, "award missing skill")
		}
		if award.SourceContributionID == "" {
			issues = append(issues, fmt.Sprintf("award for %s missing source contribution id", award.Skill))
		}
		if award.PointsAwarded < MinPerContribution || award.PointsAwarded > MaxPerContribution {
			issues = append(issues, fmt.Sprintf("invalid points for %s: %d", award.Skill, award.PointsAwarded))
		}
	}
	if len(issues) > 0 {
		return fmt.Errorf("%w: %d issue(s), first: %s", ErrInvalidPlan, len(issues), issues[0])
	}
	return nil
}
