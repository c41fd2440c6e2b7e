package types_test

import (
	"encoding/json"
	"testing"

	"github.com/helixhq/helix/internal/domain/model"
	types "github.com/helixhq/helix/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestReadiness(t *testing.T) {
	Convey("Given a Readiness result", t, func() {
		Convey("When creating a populated result", func() {
			result := types.Readiness{
				EmployeeID:               "emp-123",
				PromotionReadinessScore:  72.5,
				ReadinessLevel:           "High",
				RecommendedNextRole:      "Senior Developer",
				SkillGaps:                []string{"System Design"},
				EstimatedTimeToPromotion: "3-6 months",
				Factors: types.Factors{
					AverageConfidence:       80.0,
					ConfidenceGrowthRate:    65.0,
					PointsRate:              70.0,
					ContributionConsistency: 90.0,
					SkillDiversity:          55.0,
				},
			}

			Convey("Then it should hold the correct values", func() {
				So(result.EmployeeID, ShouldEqual, "emp-123")
				So(result.PromotionReadinessScore, ShouldEqual, 72.5)
				So(result.ReadinessLevel, ShouldEqual, "High")
				So(result.RecommendedNextRole, ShouldEqual, "Senior Developer")
				So(result.SkillGaps, ShouldResemble, []string{"System Design"})
				So(result.Factors.AverageConfidence, ShouldEqual, 80.0)
			})

			Convey("Then it should serialize with snake_case field names", func() {
				data, err := json.Marshal(result)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, `"promotion_readiness_score":72.5`)
				So(string(data), ShouldContainSubstring, `"readiness_level":"High"`)
				So(string(data), ShouldContainSubstring, `"recommended_next_role":"Senior Developer"`)
				So(string(data), ShouldContainSubstring, `"estimated_time_to_promotion":"3-6 months"`)
				So(string(data), ShouldContainSubstring, `"skill_gaps":["System Design"]`)
			})
		})

		Convey("When creating a zero-value result", func() {
			var result types.Readiness

			Convey("Then it should have empty defaults", func() {
				So(result.EmployeeID, ShouldEqual, "")
				So(result.PromotionReadinessScore, ShouldEqual, 0.0)
				So(result.SkillGaps, ShouldBeNil)
			})
		})
	})
}

func TestConfidenceReport(t *testing.T) {
	Convey("Given a ConfidenceReport", t, func() {
		report := types.ConfidenceReport{
			EmployeeID: "emp-456",
			Snapshot:   model.SkillConfidence{"Go": 42.5},
			History: []model.ConfidenceUpdate{
				{
					Skill:                "Go",
					PreviousConfidence:   40.0,
					NewConfidence:        42.5,
					Increment:            2.5,
					SourceContributionID: "contrib-1",
				},
			},
		}

		Convey("Then it should hold the snapshot and history", func() {
			So(report.Snapshot["Go"], ShouldEqual, 42.5)
			So(report.History, ShouldHaveLength, 1)
			So(report.History[0].Increment, ShouldEqual, 2.5)
		})

		Convey("Then it should serialize snapshot under its own key", func() {
			data, err := json.Marshal(report)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"snapshot":{"Go":42.5}`)
			So(string(data), ShouldContainSubstring, `"employee_id":"emp-456"`)
		})
	})
}

func TestPointsReport(t *testing.T) {
	Convey("Given a PointsReport", t, func() {
		report := types.PointsReport{
			EmployeeID: "emp-789",
			Balance: model.PointsSnapshot{
				TotalPoints:    175,
				MonthlyBySkill: map[string]int{"Go": 50},
			},
			Awards: []model.PointAward{
				{
					EmployeeID:    "emp-789",
					Skill:         "Go",
					PointsAwarded: 50,
				},
			},
		}

		Convey("Then it should hold the balance and awards", func() {
			So(report.Balance.TotalPoints, ShouldEqual, 175)
			So(report.Awards, ShouldHaveLength, 1)
			So(report.Awards[0].PointsAwarded, ShouldEqual, 50)
		})

		Convey("Then it should serialize the balance totals", func() {
			data, err := json.Marshal(report)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"total_points":175`)
		})
	})
}
