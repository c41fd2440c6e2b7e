package testcontributions

import "time"

// Config holds configuration for the contribution load test
type Config struct {
	BaseURL      string        // Base URL of the service
	NumEmployees int           // Number of distinct employees to generate
	PerEmployee  int           // Contributions generated per employee
	TopN         int           // Number of top readiness entries to display
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	OutputFile   string        // Output file for contributions
	LogFile      string        // Log file for test output
	Verbose      bool          // Enable verbose logging
}

// Contribution represents a contribution to be submitted
type Contribution struct {
	ID                string  `json:"id"`
	EmployeeID        string  `json:"employee_id"`
	Skill             string  `json:"skill"`
	ContributionLevel string  `json:"contribution_level"`
	Role              string  `json:"role"`
	ConfidenceImpact  float64 `json:"confidence_impact"`
	ValidatedAt       string  `json:"validated_at"`
}

// Entry represents one employee's readiness result
type Entry struct {
	EmployeeID string  `json:"employee_id"`
	Score      float64 `json:"promotion_readiness_score"`
	Tier       string  `json:"readiness_level"`
	NextRole   string  `json:"recommended_next_role"`
	Estimate   string  `json:"estimated_time_to_promotion"`
}

// AckResponse represents the response from contribution submission
type AckResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds test statistics
type Stats struct {
	ContributionsGenerated int
	ContributionsSubmitted int
	ContributionsAccepted  int
	ContributionsDuplicate int
	ContributionsFailed    int
	ReadinessRetrieved     int
	StartTime              time.Time
	EndTime                time.Time
	Duration               time.Duration
}
