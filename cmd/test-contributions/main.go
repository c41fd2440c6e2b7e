package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/helixhq/helix/internal/testcontributions"
)

// Default configuration constants.
const (
	defaultNumEmployees = 500
	defaultPerEmployee  = 20
	defaultTopN         = 20
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultTestTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numEmployees = flag.Int("employees", defaultNumEmployees, "Number of distinct employees to generate")
		perEmployee  = flag.Int("per-employee", defaultPerEmployee, "Contributions generated per employee")
		topN         = flag.Int("top", defaultTopN, "Number of top readiness entries to display")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile   = flag.String("output", "", "Output file for generated contributions (default: generated_contributions_TIMESTAMP.json)")
		logFile      = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testcontributions.ShowHelp()
		return
	}

	if err := testcontributions.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &testcontributions.Config{
		BaseURL:      *baseURL,
		NumEmployees: *numEmployees,
		PerEmployee:  *perEmployee,
		TopN:         *topN,
		Workers:      *workers,
		Timeout:      *timeout,
		OutputFile:   *outputFile,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	if err := testcontributions.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
