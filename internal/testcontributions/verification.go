package testcontributions

import (
	"fmt"
	"log"
	"sort"
)

// Tier boundary constants used to cross-check server results.
const (
	mediumTierFloor = 40.0
	highTierFloor   = 70.0
	maxScore        = 100.0
)

// verifyResults checks the returned readiness evaluations for internal
// consistency and displays the top performers.
func verifyResults(config *Config, results []Entry) error {
	log.Println("verifying results...")

	if len(results) == 0 {
		return fmt.Errorf("no readiness results to verify")
	}

	sorted := make([]Entry, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	if err := verifyScoreInvariants(sorted); err != nil {
		log.Printf("readiness consistency warning: %v", err)
	} else {
		log.Println("readiness consistency verified")
	}

	displayTopPerformers(sorted, config.TopN, config.Verbose)

	log.Println("result verification completed")
	return nil
}

// verifyScoreInvariants checks each entry's score bounds and tier assignment.
func verifyScoreInvariants(entries []Entry) error {
	for _, entry := range entries {
		if entry.Score < 0 || entry.Score > maxScore {
			return fmt.Errorf("employee %s has out-of-range score %.1f", entry.EmployeeID, entry.Score)
		}

		expectedTier := "Low"
		switch {
		case entry.Score >= highTierFloor:
			expectedTier = "High"
		case entry.Score >= mediumTierFloor:
			expectedTier = "Medium"
		}
		if entry.Tier != expectedTier {
			return fmt.Errorf("employee %s has tier %q but score %.1f implies %q",
				entry.EmployeeID, entry.Tier, entry.Score, expectedTier)
		}

		if entry.NextRole == "" {
			return fmt.Errorf("employee %s has no next role", entry.EmployeeID)
		}
	}
	return nil
}

// displayTopPerformers shows the highest-scoring employees.
func displayTopPerformers(sorted []Entry, topN int, verbose bool) {
	if len(sorted) < topN {
		topN = len(sorted)
	}

	log.Printf("top %d employees by readiness score:", topN)
	for i := 0; i < topN; i++ {
		entry := sorted[i]
		log.Printf("   %d. %s - Score: %.1f (%s, next: %s, ready in %s)",
			i+1, entry.EmployeeID, entry.Score, entry.Tier, entry.NextRole, entry.Estimate)
	}

	if verbose && len(sorted) > 0 {
		avgScore := calculateAverageScore(sorted)
		maxObserved := sorted[0].Score
		minObserved := sorted[len(sorted)-1].Score

		log.Printf(`score statistics:
   Average: %.1f
   Maximum: %.1f
   Minimum: %.1f
`, avgScore, maxObserved, minObserved)
	}
}

// calculateAverageScore calculates the average readiness score.
func calculateAverageScore(entries []Entry) float64 {
	if len(entries) == 0 {
		return 0
	}

	sum := 0.0
	for _, entry := range entries {
		sum += entry.Score
	}

	return sum / float64(len(entries))
}
