package testcontributions

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// retrieveReadiness fetches readiness evaluations for all employees concurrently.
func retrieveReadiness(ctx context.Context, config *Config, contributions []Contribution, stats *Stats) ([]Entry, error) {
	// Collect unique employee IDs in submission order.
	seen := make(map[string]struct{}, config.NumEmployees)
	employeeIDs := make([]string, 0, config.NumEmployees)
	for _, contribution := range contributions {
		if _, ok := seen[contribution.EmployeeID]; ok {
			continue
		}
		seen[contribution.EmployeeID] = struct{}{}
		employeeIDs = append(employeeIDs, contribution.EmployeeID)
	}

	log.Printf("retrieving readiness for %d employees with %d workers...", len(employeeIDs), config.Workers)

	client := newHTTPClient(config.Timeout)

	results := make([]Entry, len(employeeIDs))
	var (
		retrieved int64
		failed    int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					employeeID := employeeIDs[index]
					entry, err := retrieveSingleReadiness(ctx, client, config.BaseURL, employeeID)

					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("failed to get readiness for %s: %v", employeeID, err)
						}
					} else {
						results[index] = entry
						atomic.AddInt64(&retrieved, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&retrieved) + atomic.LoadInt64(&failed)
						ret := atomic.LoadInt64(&retrieved)
						fail := atomic.LoadInt64(&failed)

						log.Printf("readiness progress: %d/%d retrieved (success: %d, failed: %d)",
							total, len(employeeIDs), ret, fail)
					}
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range employeeIDs {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	// Filter out empty entries (failed retrievals)
	validResults := make([]Entry, 0, len(results))
	for _, entry := range results {
		if entry.EmployeeID != "" {
			validResults = append(validResults, entry)
		}
	}

	stats.ReadinessRetrieved = len(validResults)

	log.Printf(`readiness retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(validResults), int(atomic.LoadInt64(&failed)))

	return validResults, nil
}

// retrieveSingleReadiness fetches the readiness evaluation for one employee.
func retrieveSingleReadiness(ctx context.Context, client *HTTPClient, baseURL, employeeID string) (Entry, error) {
	url := fmt.Sprintf("%s/readiness/%s", baseURL, employeeID)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return Entry{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return Entry{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var entry Entry
	if err := unmarshalJSON(body, &entry); err != nil {
		return Entry{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return entry, nil
}
