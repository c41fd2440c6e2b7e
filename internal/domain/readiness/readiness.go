// Package readiness computes deterministic promotion readiness scores
// from skill confidence, Helix Points, and validated contributions.
//
// The engine is read-only and explainable: no entity is mutated, nothing
// is persisted, and the same inputs with the same clock always produce
// the same result.
package readiness

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/helixhq/helix/internal/domain/model"
)

// Readiness thresholds and factor weights.
const (
	thresholdMedium = 40.0
	thresholdHigh   = 70.0
	maxScore        = 100.0

	weightAverageConfidence       = 0.30
	weightConfidenceGrowth        = 0.25
	weightPointsRate              = 0.20
	weightContributionConsistency = 0.15
	weightSkillDiversity          = 0.10

	// confidencePromotionThreshold marks a skill as promotion-ready;
	// anything below it counts as a gap.
	confidencePromotionThreshold = 70.0
	confidenceAdvancedThreshold  = 80.0

	pointsWindowMonths      = 3
	consistencyWindowMonths = 6
	daysPerMonth            = 30

	// defaultRole is used when the caller does not supply a current role.
	defaultRole = "Developer"

	defaultEstimateMonths = 12.0
)

// Readiness levels.
const (
	LevelLow    = "Low"
	LevelMedium = "Medium"
	LevelHigh   = "High"
)

// Factors holds the raw per-factor values behind a score.
type Factors struct {
	AverageConfidence       float64
	ConfidenceGrowthRate    float64
	PointsRate              float64
	ContributionConsistency float64
	SkillDiversity          float64
}

// Result is the immutable outcome of a readiness evaluation.
type Result struct {
	Score                    float64
	Level                    string
	RecommendedNextRole      string
	SkillGaps                []string
	EstimatedTimeToPromotion string
	Factors                  Factors
}

// Calculator evaluates promotion readiness. The clock is injectable so
// trailing-window calculations are reproducible in tests.
type Calculator struct {
	now         func() time.Time
	progression map[string]Progression
}

// New creates a Calculator with configuration options.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		now:         time.Now,
		progression: defaultProgression,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Evaluate derives a readiness result from the joined inputs. It never
// fails: malformed history entries are skipped locally and unknown roles
// fall back to heuristics.
func (c *Calculator) Evaluate(
	snapshot model.SkillConfidence,
	history []model.ConfidenceUpdate,
	awards []model.PointAward,
	contributions []model.Contribution,
	currentRole string,
) Result {
	if currentRole == "" {
		currentRole = defaultRole
	}
	now := c.now()

	avg := AverageConfidence(snapshot)
	growth := GrowthRate(history)
	pointsRate := PointsRate(awards, now)
	consistency := Consistency(contributions, now)
	diversity := Diversity(snapshot)

	// Normalize each factor to 0-100 before weighting.
	growthScore := clamp((growth+5)*10, 0, maxScore)
	pointsScore := clamp(pointsRate*2, 0, maxScore)

	score := avg*weightAverageConfidence +
		growthScore*weightConfidenceGrowth +
		pointsScore*weightPointsRate +
		consistency*weightContributionConsistency +
		diversity*weightSkillDiversity
	score = clamp(round1(score), 0, maxScore)

	level := LevelLow
	switch {
	case score >= thresholdHigh:
		level = LevelHigh
	case score >= thresholdMedium:
		level = LevelMedium
	}

	nextRole := c.RecommendNextRole(currentRole, snapshot)
	gaps := c.SkillGaps(snapshot, nextRole)
	estimate := EstimateTimeToPromotion(score, growth, pointsRate)

	return Result{
		Score:                    score,
		Level:                    level,
		RecommendedNextRole:      nextRole,
		SkillGaps:                gaps,
		EstimatedTimeToPromotion: estimate,
		Factors: Factors{
			AverageConfidence:       round1(avg),
			ConfidenceGrowthRate:    round2(growth),
			PointsRate:              round1(pointsRate),
			ContributionConsistency: round1(consistency),
			SkillDiversity:          round1(diversity),
		},
	}
}

// AverageConfidence returns the arithmetic mean of all confidence values,
// or 0 for an empty snapshot.
func AverageConfidence(snapshot model.SkillConfidence) float64 {
	if len(snapshot) == 0 {
		return 0
	}
	var total float64
	for _, conf := range snapshot {
		total += conf
	}
	return total / float64(len(snapshot))
}

// GrowthRate computes the confidence growth per month from the first and
// last history entries, sorted by applied time. Fewer than two entries
// yield 0. If either timestamp fails to parse, the delta is spread over
// (count - 1) entries instead of elapsed time.
func GrowthRate(history []model.ConfidenceUpdate) float64 {
	if len(history) < 2 {
		return 0
	}

	sorted := make([]model.ConfidenceUpdate, len(history))
	copy(sorted, history)
	// RFC3339 strings sort chronologically, so entries with unparsable
	// timestamps still land in a stable position.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AppliedAt < sorted[j].AppliedAt
	})

	first := sorted[0]
	last := sorted[len(sorted)-1]
	delta := last.NewConfidence - first.NewConfidence

	firstAt, errFirst := parseTime(first.AppliedAt)
	lastAt, errLast := parseTime(last.AppliedAt)
	if errFirst != nil || errLast != nil {
		// Fallback: spread the delta evenly across the entries.
		return delta / float64(len(sorted)-1)
	}

	months := lastAt.Sub(firstAt).Hours() / 24 / daysPerMonth
	if months <= 0 {
		return 0
	}
	return delta / months
}

// PointsRate returns Helix Points accumulated per month over a trailing
// 3-month window. The divisor is the fixed window length, not the number
// of months that actually contain awards.
func PointsRate(awards []model.PointAward, now time.Time) float64 {
	if len(awards) == 0 {
		return 0
	}

	cutoff := now.AddDate(0, 0, -pointsWindowMonths*daysPerMonth)
	var total float64
	qualifying := false
	for _, award := range awards {
		awardedAt, err := parseTime(award.AwardedAt)
		if err != nil {
			continue
		}
		if !awardedAt.Before(cutoff) {
			total += float64(award.PointsAwarded)
			qualifying = true
		}
	}
	if !qualifying {
		return 0
	}
	return total / pointsWindowMonths
}

// Consistency scores how regularly an employee contributes over a
// trailing 6-month window (0-100). The base score is the fraction of
// active calendar months; a regularity bonus rewards low variance in
// per-month volume.
func Consistency(contributions []model.Contribution, now time.Time) float64 {
	if len(contributions) == 0 {
		return 0
	}

	cutoff := now.AddDate(0, 0, -consistencyWindowMonths*daysPerMonth)
	monthly := make(map[string]int)
	for _, contrib := range contributions {
		validatedAt, err := parseTime(contrib.ValidatedAt)
		if err != nil {
			continue
		}
		if !validatedAt.Before(cutoff) {
			monthly[validatedAt.Format("2006-01")]++
		}
	}
	if len(monthly) == 0 {
		return 0
	}

	active := len(monthly)
	score := float64(active) / consistencyWindowMonths * 100

	if active > 1 {
		var sum float64
		for _, count := range monthly {
			sum += float64(count)
		}
		mean := sum / float64(active)
		var variance float64
		for _, count := range monthly {
			variance += (float64(count) - mean) * (float64(count) - mean)
		}
		variance /= float64(active)
		bonus := math.Max(0, 20-math.Sqrt(variance)*5)
		score = math.Min(maxScore, score+bonus)
	}
	return score
}

// Diversity scores skill breadth (0-100): 10 points per skill capped at
// 100, plus 5 per high-confidence skill capped at 20, clamped to 100.
func Diversity(snapshot model.SkillConfidence) float64 {
	if len(snapshot) == 0 {
		return 0
	}

	score := math.Min(float64(len(snapshot))*10, maxScore)
	highConfidence := 0
	for _, conf := range snapshot {
		if conf >= confidencePromotionThreshold {
			highConfidence++
		}
	}
	score += math.Min(float64(highConfidence)*5, 20)
	return math.Min(maxScore, score)
}

// RecommendNextRole resolves the next role from the progression table,
// then the default ladder, then a confidence heuristic.
func (c *Calculator) RecommendNextRole(currentRole string, snapshot model.SkillConfidence) string {
	if prog, ok := c.progression[currentRole]; ok {
		return prog.Next
	}

	for i, role := range defaultLadder {
		if role == currentRole && i < len(defaultLadder)-1 {
			return defaultLadder[i+1]
		}
	}

	avg := AverageConfidence(snapshot)
	switch {
	case avg >= confidenceAdvancedThreshold:
		return "Senior Developer"
	case avg >= confidencePromotionThreshold:
		return "Mid-Level Developer"
	default:
		return "Junior Developer"
	}
}

// SkillGaps lists the required skills for recommendedRole whose snapshot
// confidence falls below the promotion threshold. Skills missing from the
// snapshot count as confidence 0. Unrecognized roles yield no gaps.
func (c *Calculator) SkillGaps(snapshot model.SkillConfidence, recommendedRole string) []string {
	gaps := []string{}
	for _, skill := range c.progression[recommendedRole].RequiredSkills {
		if snapshot[skill] < confidencePromotionThreshold {
			gaps = append(gaps, skill)
		}
	}
	return gaps
}

// EstimateTimeToPromotion projects how long it will take to reach the
// high readiness threshold given current growth rates. The two per-rate
// estimates are averaged and widened into a range.
func EstimateTimeToPromotion(score, growthRate, pointsRate float64) string {
	if score >= thresholdHigh {
		return "Ready now"
	}

	gap := thresholdHigh - score

	monthsByGrowth := defaultEstimateMonths
	if growthRate > 0 {
		monthsByGrowth = gap / (growthRate * 2)
	}
	monthsByPoints := defaultEstimateMonths
	if pointsRate > 0 {
		// Roughly 10 points per month moves readiness by one point.
		monthsByPoints = gap / (pointsRate / 10)
	}

	avg := (monthsByGrowth + monthsByPoints) / 2
	minMonths := int(avg * 0.8)
	if minMonths < 1 {
		minMonths = 1
	}
	maxMonths := int(avg*1.2) + 1

	switch {
	case minMonths >= 12:
		return "12+ months"
	case minMonths == maxMonths:
		if minMonths > 1 {
			return fmt.Sprintf("%d months", minMonths)
		}
		return fmt.Sprintf("%d month", minMonths)
	default:
		return fmt.Sprintf("%d-%d months", minMonths, maxMonths)
	}
}

// parseTime accepts RFC3339 with or without fractional seconds.
func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Parse(time.RFC3339Nano, value)
	}
	return t, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
