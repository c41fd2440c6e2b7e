// Package types contains common types used across the application
package types

import "github.com/helixhq/helix/internal/domain/model"

// Factors holds the five normalized inputs behind a readiness score.
type Factors struct {
	AverageConfidence       float64 `json:"average_confidence"`
	ConfidenceGrowthRate    float64 `json:"confidence_growth_rate"`
	PointsRate              float64 `json:"points_rate"`
	ContributionConsistency float64 `json:"contribution_consistency"`
	SkillDiversity          float64 `json:"skill_diversity"`
}

// Readiness is the promotion readiness result returned to API clients.
type Readiness struct {
	EmployeeID               string   `json:"employee_id"`
	PromotionReadinessScore  float64  `json:"promotion_readiness_score"`
	ReadinessLevel           string   `json:"readiness_level"`
	RecommendedNextRole      string   `json:"recommended_next_role"`
	SkillGaps                []string `json:"skill_gaps"`
	EstimatedTimeToPromotion string   `json:"estimated_time_to_promotion"`
	Factors                  Factors  `json:"factors"`
}

// ConfidenceReport pairs an employee's confidence snapshot with the
// updates that produced it.
type ConfidenceReport struct {
	EmployeeID string                   `json:"employee_id"`
	Snapshot   model.SkillConfidence    `json:"snapshot"`
	History    []model.ConfidenceUpdate `json:"history"`
}

// PointsReport pairs an employee's points balance with its award history.
type PointsReport struct {
	EmployeeID string               `json:"employee_id"`
	Balance    model.PointsSnapshot `json:"balance"`
	Awards     []model.PointAward   `json:"awards"`
}
