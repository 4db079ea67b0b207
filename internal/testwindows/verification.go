package testwindows

import (
	"context"
	"fmt"
	"sort"

	"github.com/mszinte/locEMexp/internal/domain/types"
	"github.com/mszinte/locEMexp/pkg/logger"
)

// Mismatch is a window whose reported saccade count differs from the
// number synthesized into it.
type Mismatch struct {
	WindowID string
	Expected int
	Reported int
	Status   string
}

// verifyResults compares reported and expected saccade counts. It fails
// when a result is missing or any count differs.
func verifyResults(ctx context.Context, windows []Generated, results map[string]types.ResultEntry, stats *Stats) ([]Mismatch, error) {
	var mismatches []Mismatch
	latencies := make([]float64, 0, len(results))
	missing := 0

	for _, g := range windows {
		r, ok := results[g.Window.WindowID]
		if !ok {
			missing++
			continue
		}
		latencies = append(latencies, r.LatencyMS)
		stats.SaccadesReported += r.SaccadeCount
		if !r.Analyzable {
			stats.NotAnalyzable++
		}
		if r.SaccadeCount == g.Expected {
			stats.CountsMatched++
			continue
		}
		stats.CountsMismatched++
		mismatches = append(mismatches, Mismatch{
			WindowID: g.Window.WindowID,
			Expected: g.Expected,
			Reported: r.SaccadeCount,
			Status:   r.Status,
		})
	}
	stats.AnalysisP50Millis = percentile(latencies, 0.50)
	stats.AnalysisP95Millis = percentile(latencies, 0.95)

	for _, m := range mismatches {
		logger.Get().Warn(ctx, "saccade count mismatch",
			logger.String("window_id", m.WindowID),
			logger.Int("expected", m.Expected),
			logger.Int("reported", m.Reported),
			logger.String("status", m.Status),
		)
	}

	switch {
	case missing > 0:
		return mismatches, fmt.Errorf("%d of %d results missing", missing, len(windows))
	case len(mismatches) > 0:
		return mismatches, fmt.Errorf("%d of %d windows reported the wrong saccade count", len(mismatches), len(windows))
	}
	return nil, nil
}

// percentile returns the nearest-rank percentile of values, 0 when empty.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(p*float64(len(sorted)-1) + 0.5)
	return sorted[idx]
}
