package testwindows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mszinte/locEMexp/internal/domain/types"
	"github.com/mszinte/locEMexp/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run executes the complete load test: health check, generation,
// concurrent submission, result polling and verification.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting window load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("windows", config.NumWindows),
		logger.Int("maxSaccades", config.MaxSaccades),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
	)

	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	windows, err := generateWindows(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("window generation failed: %w", err)
	}
	if config.OutputFile != "" {
		if err := saveWindowsToFile(config.OutputFile, windows); err != nil {
			log.Warn(ctx, "failed to save windows to file", logger.Error(err))
		}
	}

	taken, err := submitWindows(ctx, config, windows, stats)
	if err != nil {
		return stats, fmt.Errorf("window submission failed: %w", err)
	}

	results := collectResults(ctx, config, taken, stats)
	_, verifyErr := verifyResults(ctx, taken, results, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if verifyErr != nil {
		return stats, fmt.Errorf("result verification failed: %w", verifyErr)
	}
	log.Info(ctx, "test completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service answers on /healthz.
func checkServiceHealth(ctx context.Context, config *Config) error {
	resp, err := newHTTPClient(config.Timeout).get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func saveWindowsToFile(path string, windows []Generated) error {
	if err := os.MkdirAll(filepath.Dir(path), directoryPermission); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	type saved struct {
		Expected int               `json:"expected_saccades"`
		Window   types.WindowEntry `json:"window"`
	}
	out := make([]saved, 0, len(windows))
	for _, g := range windows {
		out = append(out, saved{Expected: g.Expected, Window: types.FromWindow(g.Window)})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal windows: %w", err)
	}
	return os.WriteFile(path, data, filePermission)
}

func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.String("duration", stats.Duration.Round(time.Millisecond).String()),
		logger.Int("generated", stats.WindowsGenerated),
		logger.Int("submitted", stats.WindowsSubmitted),
		logger.Int("accepted", stats.WindowsAccepted),
		logger.Int("duplicate", stats.WindowsDuplicate),
		logger.Int("rejected", stats.WindowsRejected),
		logger.Int("failed", stats.WindowsFailed),
		logger.Int("retrieved", stats.ResultsRetrieved),
		logger.Int("matched", stats.CountsMatched),
		logger.Int("mismatched", stats.CountsMismatched),
		logger.Int("notAnalyzable", stats.NotAnalyzable),
		logger.Int("saccadesExpected", stats.SaccadesExpected),
		logger.Int("saccadesReported", stats.SaccadesReported),
		logger.Float64("submitPerSecond", stats.SubmitThroughput),
		logger.Float64("analysisP50ms", stats.AnalysisP50Millis),
		logger.Float64("analysisP95ms", stats.AnalysisP95Millis),
	)
}
