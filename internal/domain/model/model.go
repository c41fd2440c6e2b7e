// Package model contains domain models passed between layers.
package model

// Contribution statuses. Only validated contributions feed the
// confidence and points pipelines.
const (
	StatusValidated = "Validated"
	StatusPending   = "Pending"
	StatusRejected  = "Rejected"
)

// Contribution levels, ordered by impact.
const (
	LevelMinor       = "Minor"
	LevelModerate    = "Moderate"
	LevelSignificant = "Significant"
)

// Roles an employee can hold on a contribution.
const (
	RoleAssistant   = "Assistant"
	RoleContributor = "Contributor"
	RoleLead        = "Lead"
	RoleArchitect   = "Architect"
)

// SkillConfidence maps a skill name to a confidence value in [0,100].
type SkillConfidence map[string]float64

// Contribution is a project-work record submitted for an employee.
// ValidatedAt is an RFC3339 timestamp string at the store boundary;
// consumers parse it tolerantly and skip unparsable entries.
type Contribution struct {
	ID                string  `json:"id" db:"id"`
	EmployeeID        string  `json:"employee_id" db:"employee_id"`
	Skill             string  `json:"skill" db:"skill"`
	ContributionLevel string  `json:"contribution_level" db:"contribution_level"`
	Role              string  `json:"role" db:"role"`
	ConfidenceImpact  float64 `json:"confidence_impact" db:"confidence_impact"`
	Status            string  `json:"status" db:"status"`
	ValidatedAt       string  `json:"validated_at" db:"validated_at"`
}

// ConfidenceUpdate records a single applied change to a skill's confidence.
type ConfidenceUpdate struct {
	Skill                string  `json:"skill" db:"skill"`
	PreviousConfidence   float64 `json:"previous_confidence" db:"previous_confidence"`
	NewConfidence        float64 `json:"new_confidence" db:"new_confidence"`
	Increment            float64 `json:"increment" db:"increment"`
	SourceContributionID string  `json:"source_contribution_id" db:"source_contribution_id"`
	ContributionLevel    string  `json:"contribution_level" db:"contribution_level"`
	Role                 string  `json:"role" db:"role"`
	AppliedAt            string  `json:"applied_at" db:"applied_at"`
}

// PointAward records Helix Points granted for a validated contribution.
type PointAward struct {
	EmployeeID           string  `json:"employee_id" db:"employee_id"`
	Skill                string  `json:"skill" db:"skill"`
	PointsAwarded        int     `json:"points_awarded" db:"points_awarded"`
	SourceContributionID string  `json:"source_contribution_id" db:"source_contribution_id"`
	ContributionLevel    string  `json:"contribution_level" db:"contribution_level"`
	Role                 string  `json:"role" db:"role"`
	ConfidenceDelta      float64 `json:"confidence_delta" db:"confidence_delta"`
	BasePoints           int     `json:"base_points" db:"base_points"`
	RoleMultiplier       float64 `json:"role_multiplier" db:"role_multiplier"`
	ConfidenceMultiplier float64 `json:"confidence_multiplier" db:"confidence_multiplier"`
	AwardedAt            string  `json:"awarded_at" db:"awarded_at"`
}

// PointsSnapshot summarizes an employee's Helix Points balance.
type PointsSnapshot struct {
	TotalPoints    int            `json:"total_points"`
	MonthlyBySkill map[string]int `json:"monthly_by_skill,omitempty"`
}
