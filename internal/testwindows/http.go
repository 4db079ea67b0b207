package testwindows

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mszinte/locEMexp/internal/domain/types"
	"github.com/mszinte/locEMexp/pkg/logger"
)

// errNotReady marks a result that has not been stored yet.
var errNotReady = errors.New("result not ready")

// Submission outcomes.
const (
	outcomeAccepted  = "accepted"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
)

type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

func (c *httpClient) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.client.Do(req)
}

func (c *httpClient) post(ctx context.Context, url string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// submitWindows posts every window to /windows from config.Workers goroutines
// and returns the windows the service took (accepted or already known).
func submitWindows(ctx context.Context, config *Config, windows []Generated, stats *Stats) ([]Generated, error) {
	log := logger.Get().Named("submit")
	log.Info(ctx, "submitting windows", logger.Int("count", len(windows)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/windows"

	var accepted, duplicate, rejected, failed, submitted atomic.Int64
	jobs := make(chan Generated, config.Workers*2)
	start := time.Now()

	var mu sync.Mutex
	taken := make([]Generated, 0, len(windows))
	take := func(g Generated) { //nolint:gocritic // hugeParam: copied into the slice anyway
		mu.Lock()
		taken = append(taken, g)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range jobs {
				switch submitWindow(ctx, client, url, g) {
				case outcomeAccepted:
					accepted.Add(1)
					take(g)
				case outcomeDuplicate:
					duplicate.Add(1)
					take(g)
				case outcomeRejected:
					rejected.Add(1)
				default:
					failed.Add(1)
				}
				if n := submitted.Add(1); config.Verbose && n%100 == 0 {
					log.Info(ctx, "progress", logger.Any("submitted", n), logger.Int("total", len(windows)))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, g := range windows {
			select {
			case <-ctx.Done():
				return
			case jobs <- g:
			}
		}
	}()
	wg.Wait()

	stats.WindowsSubmitted = int(submitted.Load())
	stats.WindowsAccepted = int(accepted.Load())
	stats.WindowsDuplicate = int(duplicate.Load())
	stats.WindowsRejected = int(rejected.Load())
	stats.WindowsFailed = int(failed.Load())
	if elapsed := time.Since(start).Seconds(); elapsed > 0 {
		stats.SubmitThroughput = float64(stats.WindowsSubmitted) / elapsed
	}

	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.WindowsAccepted),
		logger.Int("duplicate", stats.WindowsDuplicate),
		logger.Int("rejected", stats.WindowsRejected),
		logger.Int("failed", stats.WindowsFailed),
	)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("submission interrupted: %w", err)
	}
	return taken, nil
}

func submitWindow(ctx context.Context, client *httpClient, url string, g Generated) string { //nolint:gocritic // hugeParam: read only
	resp, err := client.post(ctx, url, types.FromWindow(g.Window))
	if err != nil {
		return outcomeFailed
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusAccepted:
		return outcomeAccepted
	case http.StatusOK:
		return outcomeDuplicate
	case http.StatusTooManyRequests:
		return outcomeRejected
	default:
		return outcomeFailed
	}
}

// fetchResult reads one stored result, errNotReady while it is pending.
func fetchResult(ctx context.Context, client *httpClient, baseURL, windowID string) (types.ResultEntry, error) {
	resp, err := client.get(ctx, baseURL+"/results/"+windowID)
	if err != nil {
		return types.ResultEntry{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return types.ResultEntry{}, errNotReady
	default:
		return types.ResultEntry{}, fmt.Errorf("GET /results/%s: status %d", windowID, resp.StatusCode)
	}
	var entry types.ResultEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return types.ResultEntry{}, fmt.Errorf("decode result %s: %w", windowID, err)
	}
	return entry, nil
}

// collectResults polls until every accepted window has a result or the
// poll timeout expires. Windows still missing are left out of the map.
func collectResults(ctx context.Context, config *Config, windows []Generated, stats *Stats) map[string]types.ResultEntry {
	log := logger.Get().Named("poll")
	client := newHTTPClient(config.Timeout)

	pending := make(map[string]struct{}, len(windows))
	for _, g := range windows {
		pending[g.Window.WindowID] = struct{}{}
	}
	results := make(map[string]types.ResultEntry, len(windows))

	deadline := time.Now().Add(config.PollTimeout)
	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()

	for len(pending) > 0 {
		for id := range pending {
			entry, err := fetchResult(ctx, client, config.BaseURL, id)
			switch {
			case err == nil:
				results[id] = entry
				delete(pending, id)
			case !errors.Is(err, errNotReady):
				log.Debug(ctx, "poll failed", logger.String("window_id", id), logger.Error(err))
			}
		}
		if len(pending) == 0 || time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			stats.ResultsRetrieved = len(results)
			return results
		case <-ticker.C:
		}
	}

	stats.ResultsRetrieved = len(results)
	if len(pending) > 0 {
		log.Warn(ctx, "results still pending", logger.Int("pending", len(pending)))
	}
	return results
}
