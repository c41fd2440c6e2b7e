package readiness_test

import (
	"testing"
	"time"

	"github.com/helixhq/helix/internal/domain/model"
	readiness "github.com/helixhq/helix/internal/domain/readiness"
	. "github.com/smartystreets/goconvey/convey"
)

// fixedClock pins "now" so trailing-window calculations are reproducible.
func fixedClock(value string) func() time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func TestCalculator_Evaluate(t *testing.T) {
	Convey("Given a calculator with a fixed clock", t, func() {
		calc := readiness.New(readiness.WithClock(fixedClock("2024-06-15T00:00:00Z")))

		Convey("When evaluating a fully populated employee", func() {
			snapshot := model.SkillConfidence{
				"React":      75,
				"Node.js":    70,
				"AWS":        65,
				"TypeScript": 72,
			}
			history := []model.ConfidenceUpdate{
				{Skill: "React", NewConfidence: 50, AppliedAt: "2024-01-01T00:00:00Z"},
				{Skill: "React", NewConfidence: 55, AppliedAt: "2024-02-01T00:00:00Z"},
				{Skill: "React", NewConfidence: 60, AppliedAt: "2024-03-01T00:00:00Z"},
				{Skill: "React", NewConfidence: 65, AppliedAt: "2024-04-01T00:00:00Z"},
				{Skill: "React", NewConfidence: 70, AppliedAt: "2024-05-01T00:00:00Z"},
			}
			awards := []model.PointAward{
				{PointsAwarded: 25, AwardedAt: "2024-03-01T00:00:00Z"},
				{PointsAwarded: 30, AwardedAt: "2024-04-01T00:00:00Z"},
				{PointsAwarded: 28, AwardedAt: "2024-05-01T00:00:00Z"},
			}
			contributions := []model.Contribution{
				{Status: model.StatusValidated, ValidatedAt: "2024-03-01T00:00:00Z"},
				{Status: model.StatusValidated, ValidatedAt: "2024-04-01T00:00:00Z"},
				{Status: model.StatusValidated, ValidatedAt: "2024-05-01T00:00:00Z"},
				{Status: model.StatusValidated, ValidatedAt: "2024-06-01T00:00:00Z"},
			}

			result := calc.Evaluate(snapshot, history, awards, contributions, "Mid-Level Developer")

			Convey("Then the score should match the weighted factor sum", func() {
				So(result.Score, ShouldAlmostEqual, 72.3, 0.001)
				So(result.Level, ShouldEqual, readiness.LevelHigh)
				So(result.EstimatedTimeToPromotion, ShouldEqual, "Ready now")
			})

			Convey("And each factor should be derived from its input series", func() {
				So(result.Factors.AverageConfidence, ShouldAlmostEqual, 70.5, 0.001)
				So(result.Factors.ConfidenceGrowthRate, ShouldAlmostEqual, 4.96, 0.001)
				// 30 + 28 points inside the trailing 3-month window, over 3 months.
				So(result.Factors.PointsRate, ShouldAlmostEqual, 19.3, 0.001)
				// Four active months out of six, one contribution each: full bonus.
				So(result.Factors.ContributionConsistency, ShouldAlmostEqual, 86.7, 0.001)
				// 4 skills and 3 high-confidence skills.
				So(result.Factors.SkillDiversity, ShouldAlmostEqual, 55, 0.001)
			})

			Convey("And the next role should follow the progression table", func() {
				So(result.RecommendedNextRole, ShouldEqual, "Senior Developer")
			})

			Convey("And every skill gap should be below the promotion threshold", func() {
				for _, gap := range result.SkillGaps {
					So(snapshot[gap], ShouldBeLessThan, 70)
				}
			})
		})

		Convey("When evaluating a sparse employee with two skills and nothing else", func() {
			snapshot := model.SkillConfidence{"A": 80, "B": 60}
			result := calc.Evaluate(snapshot, nil, nil, nil, "Junior Developer")

			Convey("Then factors should degrade to their documented defaults", func() {
				So(result.Factors.AverageConfidence, ShouldAlmostEqual, 70, 0.001)
				So(result.Factors.ConfidenceGrowthRate, ShouldEqual, 0)
				So(result.Factors.PointsRate, ShouldEqual, 0)
				So(result.Factors.ContributionConsistency, ShouldEqual, 0)
				// Two skills plus one high-confidence bonus.
				So(result.Factors.SkillDiversity, ShouldAlmostEqual, 25, 0.001)
			})

			Convey("Then the weighted score lands just under the medium threshold", func() {
				// 70*0.30 + 50*0.25 + 0 + 0 + 25*0.10
				So(result.Score, ShouldAlmostEqual, 36.0, 0.001)
				So(result.Level, ShouldEqual, readiness.LevelLow)
			})

			Convey("And the progression table recommends the next rung", func() {
				So(result.RecommendedNextRole, ShouldEqual, "Mid-Level Developer")
			})

			Convey("And the estimate uses the default 12-month rates", func() {
				// Both rate estimates default to 12 months; the widened
				// range is 9-15.
				So(result.EstimatedTimeToPromotion, ShouldEqual, "9-15 months")
			})
		})

		Convey("When evaluating with no data at all", func() {
			result := calc.Evaluate(nil, nil, nil, nil, "")

			Convey("Then everything should be zero and the level Low", func() {
				So(result.Factors.AverageConfidence, ShouldEqual, 0)
				So(result.Factors.SkillDiversity, ShouldEqual, 0)
				So(result.Score, ShouldAlmostEqual, 12.5, 0.001) // only the growth baseline contributes
				So(result.Level, ShouldEqual, readiness.LevelLow)
			})

			Convey("And the fallback role heuristic should apply", func() {
				So(result.RecommendedNextRole, ShouldEqual, "Junior Developer")
			})
		})

		Convey("When evaluating twice with identical inputs", func() {
			snapshot := model.SkillConfidence{"Go": 61, "SQL": 74}
			history := []model.ConfidenceUpdate{
				{NewConfidence: 40, AppliedAt: "2024-02-01T00:00:00Z"},
				{NewConfidence: 60, AppliedAt: "2024-05-01T00:00:00Z"},
			}
			first := calc.Evaluate(snapshot, history, nil, nil, "Senior Developer")
			second := calc.Evaluate(snapshot, history, nil, nil, "Senior Developer")

			Convey("Then the results should be identical", func() {
				So(second, ShouldResemble, first)
			})
		})

		Convey("When the score is below the high threshold", func() {
			result := calc.Evaluate(model.SkillConfidence{"Go": 30}, nil, nil, nil, "Junior Developer")

			Convey("Then the estimate should never be Ready now", func() {
				So(result.Score, ShouldBeLessThan, 70)
				So(result.EstimatedTimeToPromotion, ShouldNotEqual, "Ready now")
			})
		})
	})
}

func TestCalculator_Bounds(t *testing.T) {
	Convey("Given extreme inputs", t, func() {
		calc := readiness.New(readiness.WithClock(fixedClock("2024-06-15T00:00:00Z")))

		Convey("When every factor saturates", func() {
			snapshot := model.SkillConfidence{}
			for _, skill := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
				snapshot[skill] = 100
			}
			history := []model.ConfidenceUpdate{
				{NewConfidence: 0, AppliedAt: "2024-05-01T00:00:00Z"},
				{NewConfidence: 100, AppliedAt: "2024-06-01T00:00:00Z"},
			}
			awards := []model.PointAward{
				{PointsAwarded: 5000, AwardedAt: "2024-06-01T00:00:00Z"},
			}
			var contributions []model.Contribution
			for _, ts := range []string{
				"2024-01-05T00:00:00Z", "2024-02-05T00:00:00Z", "2024-03-05T00:00:00Z",
				"2024-04-05T00:00:00Z", "2024-05-05T00:00:00Z", "2024-06-05T00:00:00Z",
			} {
				contributions = append(contributions, model.Contribution{Status: model.StatusValidated, ValidatedAt: ts})
			}

			result := calc.Evaluate(snapshot, history, awards, contributions, "Lead Developer")

			Convey("Then the score should stay within [0,100]", func() {
				So(result.Score, ShouldBeLessThanOrEqualTo, 100)
				So(result.Score, ShouldBeGreaterThanOrEqualTo, 0)
				So(result.Level, ShouldEqual, readiness.LevelHigh)
			})
		})

		Convey("When growth is strongly negative", func() {
			history := []model.ConfidenceUpdate{
				{NewConfidence: 90, AppliedAt: "2024-01-01T00:00:00Z"},
				{NewConfidence: 10, AppliedAt: "2024-02-01T00:00:00Z"},
			}
			result := calc.Evaluate(model.SkillConfidence{"Go": 50}, history, nil, nil, "")

			Convey("Then the growth factor is negative but the score stays bounded", func() {
				So(result.Factors.ConfidenceGrowthRate, ShouldBeLessThan, 0)
				So(result.Score, ShouldBeGreaterThanOrEqualTo, 0)
			})
		})
	})
}

func TestGrowthRate(t *testing.T) {
	Convey("Given confidence histories", t, func() {
		Convey("When the history has fewer than two entries", func() {
			So(readiness.GrowthRate(nil), ShouldEqual, 0)
			So(readiness.GrowthRate([]model.ConfidenceUpdate{
				{NewConfidence: 50, AppliedAt: "2024-01-01T00:00:00Z"},
			}), ShouldEqual, 0)
		})

		Convey("When entries arrive out of order", func() {
			history := []model.ConfidenceUpdate{
				{NewConfidence: 70, AppliedAt: "2024-05-01T00:00:00Z"},
				{NewConfidence: 50, AppliedAt: "2024-01-01T00:00:00Z"},
			}

			Convey("Then the engine sorts before computing the rate", func() {
				// 20 points over 121 days.
				So(readiness.GrowthRate(history), ShouldAlmostEqual, 20/(121.0/30), 0.0001)
			})
		})

		Convey("When the first and last timestamps are identical", func() {
			history := []model.ConfidenceUpdate{
				{NewConfidence: 50, AppliedAt: "2024-01-01T00:00:00Z"},
				{NewConfidence: 70, AppliedAt: "2024-01-01T00:00:00Z"},
			}

			Convey("Then the elapsed time is zero and the rate is zero", func() {
				So(readiness.GrowthRate(history), ShouldEqual, 0)
			})
		})

		Convey("When timestamps are unparsable", func() {
			history := []model.ConfidenceUpdate{
				{NewConfidence: 40, AppliedAt: "not-a-date"},
				{NewConfidence: 50, AppliedAt: "still-not-a-date"},
				{NewConfidence: 70, AppliedAt: "yep-not-a-date"},
			}

			Convey("Then the delta is spread across the entry count", func() {
				// (70 - 40) / (3 - 1)
				So(readiness.GrowthRate(history), ShouldAlmostEqual, 15, 0.0001)
			})
		})
	})
}

func TestPointsRate(t *testing.T) {
	Convey("Given point award histories", t, func() {
		now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

		Convey("When there are no awards", func() {
			So(readiness.PointsRate(nil, now), ShouldEqual, 0)
		})

		Convey("When all awards fall outside the trailing window", func() {
			awards := []model.PointAward{
				{PointsAwarded: 100, AwardedAt: "2023-01-01T00:00:00Z"},
			}
			So(readiness.PointsRate(awards, now), ShouldEqual, 0)
		})

		Convey("When some awards qualify", func() {
			awards := []model.PointAward{
				{PointsAwarded: 100, AwardedAt: "2023-01-01T00:00:00Z"},
				{PointsAwarded: 30, AwardedAt: "2024-05-01T00:00:00Z"},
				{PointsAwarded: 30, AwardedAt: "2024-06-01T00:00:00Z"},
			}

			Convey("Then the sum is divided by the fixed window length", func() {
				So(readiness.PointsRate(awards, now), ShouldAlmostEqual, 20, 0.0001)
			})
		})

		Convey("When an award has an unparsable timestamp", func() {
			awards := []model.PointAward{
				{PointsAwarded: 30, AwardedAt: "garbage"},
				{PointsAwarded: 60, AwardedAt: "2024-06-01T00:00:00Z"},
			}

			Convey("Then only the parsable award counts", func() {
				So(readiness.PointsRate(awards, now), ShouldAlmostEqual, 20, 0.0001)
			})
		})
	})
}

func TestConsistency(t *testing.T) {
	Convey("Given contribution histories", t, func() {
		now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

		Convey("When there are no contributions", func() {
			So(readiness.Consistency(nil, now), ShouldEqual, 0)
		})

		Convey("When one contribution lands in each of six months", func() {
			var contributions []model.Contribution
			for _, ts := range []string{
				"2024-01-05T00:00:00Z", "2024-02-05T00:00:00Z", "2024-03-05T00:00:00Z",
				"2024-04-05T00:00:00Z", "2024-05-05T00:00:00Z", "2024-06-05T00:00:00Z",
			} {
				contributions = append(contributions, model.Contribution{ValidatedAt: ts})
			}

			Convey("Then the score should cap at 100", func() {
				So(readiness.Consistency(contributions, now), ShouldEqual, 100)
			})
		})

		Convey("When activity is lumpy", func() {
			contributions := []model.Contribution{
				{ValidatedAt: "2024-05-01T00:00:00Z"},
				{ValidatedAt: "2024-05-02T00:00:00Z"},
				{ValidatedAt: "2024-05-03T00:00:00Z"},
				{ValidatedAt: "2024-06-01T00:00:00Z"},
			}

			Convey("Then the variance penalty shrinks the regularity bonus", func() {
				// Two active months (base 33.33), counts 3 and 1,
				// stddev 1 so the bonus is 15.
				So(readiness.Consistency(contributions, now), ShouldAlmostEqual, 100.0/3+15, 0.0001)
			})
		})

		Convey("When dates are unparsable", func() {
			contributions := []model.Contribution{
				{ValidatedAt: "???"},
				{ValidatedAt: ""},
			}

			Convey("Then entries are skipped and the score is zero", func() {
				So(readiness.Consistency(contributions, now), ShouldEqual, 0)
			})
		})
	})
}

func TestDiversity(t *testing.T) {
	Convey("Given skill snapshots", t, func() {
		Convey("When the snapshot is empty", func() {
			So(readiness.Diversity(nil), ShouldEqual, 0)
			So(readiness.Diversity(model.SkillConfidence{}), ShouldEqual, 0)
		})

		Convey("When there are many skills", func() {
			snapshot := model.SkillConfidence{}
			for _, skill := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"} {
				snapshot[skill] = 30
			}

			Convey("Then the base is capped at 100 with no bonus", func() {
				So(readiness.Diversity(snapshot), ShouldEqual, 100)
			})
		})

		Convey("When high-confidence skills earn the bonus", func() {
			snapshot := model.SkillConfidence{"a": 90, "b": 85, "c": 40}

			Convey("Then 10 per skill plus 5 per high-confidence skill", func() {
				So(readiness.Diversity(snapshot), ShouldEqual, 40)
			})
		})
	})
}

func TestRecommendNextRole(t *testing.T) {
	Convey("Given the default progression", t, func() {
		calc := readiness.New()

		Convey("When the current role is in the table", func() {
			So(calc.RecommendNextRole("Junior Developer", nil), ShouldEqual, "Mid-Level Developer")
			So(calc.RecommendNextRole("Lead Developer", nil), ShouldEqual, "Principal Engineer")
		})

		Convey("When the role is only on the default ladder", func() {
			// Principal Engineer is the top rung with no table entry; the
			// heuristic takes over.
			So(calc.RecommendNextRole("Principal Engineer", model.SkillConfidence{"Go": 90}), ShouldEqual, "Senior Developer")
		})

		Convey("When the role is unrecognized", func() {
			Convey("Then the confidence heuristic decides", func() {
				So(calc.RecommendNextRole("Wizard", model.SkillConfidence{"Go": 85}), ShouldEqual, "Senior Developer")
				So(calc.RecommendNextRole("Wizard", model.SkillConfidence{"Go": 72}), ShouldEqual, "Mid-Level Developer")
				So(calc.RecommendNextRole("Wizard", model.SkillConfidence{"Go": 10}), ShouldEqual, "Junior Developer")
			})
		})
	})

	Convey("Given an injected progression table", t, func() {
		calc := readiness.New(readiness.WithProgression(map[string]readiness.Progression{
			"Analyst": {Next: "Senior Analyst", RequiredSkills: []string{"Modelling"}},
		}))

		Convey("Then lookups should use the injected table", func() {
			So(calc.RecommendNextRole("Analyst", nil), ShouldEqual, "Senior Analyst")
			So(calc.SkillGaps(model.SkillConfidence{"Modelling": 50}, "Senior Analyst"), ShouldResemble, []string{})
		})
	})
}

func TestSkillGaps(t *testing.T) {
	Convey("Given the default progression", t, func() {
		calc := readiness.New()

		Convey("When skills are missing or weak", func() {
			snapshot := model.SkillConfidence{"System Design": 75, "Code Review": 50}
			gaps := calc.SkillGaps(snapshot, "Mid-Level Developer")

			Convey("Then weak and absent required skills are gaps", func() {
				So(gaps, ShouldResemble, []string{"Code Review", "Mentoring"})
			})
		})

		Convey("When the recommended role has no required-skill list", func() {
			So(calc.SkillGaps(model.SkillConfidence{"Go": 10}, "Staff Engineer"), ShouldResemble, []string{})
		})
	})
}

func TestEstimateTimeToPromotion(t *testing.T) {
	Convey("Given score and rate combinations", t, func() {
		Convey("When the score already meets the threshold", func() {
			So(readiness.EstimateTimeToPromotion(70, 0, 0), ShouldEqual, "Ready now")
			So(readiness.EstimateTimeToPromotion(95.5, 2, 10), ShouldEqual, "Ready now")
		})

		Convey("When both rates are zero", func() {
			Convey("Then both estimates default to 12 months", func() {
				So(readiness.EstimateTimeToPromotion(35.5, 0, 0), ShouldEqual, "9-15 months")
			})
		})

		Convey("When growth is strong", func() {
			// gap 10, growth estimate 10/(5*2)=1, points estimate
			// 10/(100/10)=1, avg 1 -> floor(0.8)=0 raised to 1, floor(1.2)+1=2.
			So(readiness.EstimateTimeToPromotion(60, 5, 100), ShouldEqual, "1-2 months")
		})

		Convey("When progress is very slow", func() {
			// gap 40, growth estimate 40/0.2=200, points default 12:
			// avg 106 -> lower bound over 12.
			So(readiness.EstimateTimeToPromotion(30, 0.1, 0), ShouldEqual, "12+ months")
		})
	})
}
