package testcontributions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/helixhq/helix/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete contribution load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting helix contribution test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("employees", config.NumEmployees),
		logger.Int("perEmployee", config.PerEmployee),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate contributions
	contributions, err := generateContributions(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("contribution generation failed: %w", err)
	}

	// Step 3: Submit contributions concurrently
	if err := submitContributions(ctx, config, contributions, stats); err != nil {
		return fmt.Errorf("contribution submission failed: %w", err)
	}

	// Step 4: Wait for the pipeline to drain
	logger.Get().Info(ctx, "waiting for contributions to be processed")
	time.Sleep(ProcessingDrainDelay)

	// Step 5: Retrieve readiness evaluations concurrently
	results, err := retrieveReadiness(ctx, config, contributions, stats)
	if err != nil {
		return fmt.Errorf("readiness retrieval failed: %w", err)
	}

	// Step 6: Verify results
	if err := verifyResults(config, results); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 7: Save contributions to file
	if err := saveContributionsToFile(ctx, config, contributions); err != nil {
		logger.Get().Warn(ctx, "failed to save contributions to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveContributionsToFile saves the generated contributions to a JSON file.
func saveContributionsToFile(ctx context.Context, config *Config, contributions []Contribution) error {
	if len(contributions) == 0 {
		return fmt.Errorf("no contributions to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_contributions_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, contribution := range contributions {
		jsonData, err := marshalJSON(contribution)
		if err != nil {
			return fmt.Errorf("failed to marshal contribution %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write contribution %d: %w", i, err)
		}

		if i < len(contributions)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "contributions saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, contributionsPerSecond float64

	if stats.ContributionsSubmitted > 0 {
		successRate = float64(stats.ContributionsAccepted) / float64(stats.ContributionsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		contributionsPerSecond = float64(stats.ContributionsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("contributionsGenerated", stats.ContributionsGenerated),
		logger.Int("contributionsSubmitted", stats.ContributionsSubmitted),
		logger.Int("contributionsAccepted", stats.ContributionsAccepted),
		logger.Int("contributionsDuplicate", stats.ContributionsDuplicate),
		logger.Int("contributionsFailed", stats.ContributionsFailed),
		logger.Int("readinessRetrieved", stats.ReadinessRetrieved),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("contributionsPerSecond", contributionsPerSecond))
}
