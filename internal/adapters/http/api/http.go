// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	repository "github.com/mszinte/locEMexp/internal/adapters/repository"
	"github.com/mszinte/locEMexp/internal/domain/dedupe"
	"github.com/mszinte/locEMexp/internal/domain/model"
	"github.com/mszinte/locEMexp/internal/domain/types"
)

// Request limits.
const (
	defaultMaxLimit     = 500
	defaultResultsLimit = 50
	defaultMaxBodyBytes = 16 << 20
	defaultMaxBatch     = 256
	maxWindowIDLength   = 128
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a window for async analysis. Returns false on
	// backpressure or when the service is not running.
	Enqueue(ctx context.Context, w model.Window) bool

	// Started reports whether queued windows are being analyzed.
	Started() bool

	// Detect and AnalyzeAll analyze synchronously without storing.
	Detect(ctx context.Context, w model.Window) (model.Result, error)
	AnalyzeAll(ctx context.Context, windows []model.Window) ([]model.Result, error)

	// Read operations expose stored results.
	Result(ctx context.Context, windowID string) (model.Result, error)
	Results(ctx context.Context, q repository.Query) ([]model.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	windowsHandler *WindowsHandler
	detectHandler  *DetectHandler
	resultsHandler *ResultsHandler
}

// Option configures a Server.
type Option func(*limits)

type limits struct {
	maxLimit     int
	maxBodyBytes int64
	maxBatch     int
}

// WithMaxLimit caps GET /results?limit.
func WithMaxLimit(n int) Option {
	return func(l *limits) {
		if n > 0 {
			l.maxLimit = n
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(l *limits) {
		if n > 0 {
			l.maxBodyBytes = n
		}
	}
}

// WithMaxBatch caps the number of windows in POST /detect/batch.
func WithMaxBatch(n int) Option {
	return func(l *limits) {
		if n > 0 {
			l.maxBatch = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	l := limits{maxLimit: defaultMaxLimit, maxBodyBytes: defaultMaxBodyBytes, maxBatch: defaultMaxBatch}
	for _, opt := range opts {
		opt(&l)
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		windowsHandler: NewWindowsHandler(deps, l.maxBodyBytes),
		detectHandler:  NewDetectHandler(deps, l.maxBodyBytes, l.maxBatch),
		resultsHandler: NewResultsHandler(deps, l.maxLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/windows", MetricsMiddleware(s.windowsHandler.HandlePostWindow, "windows"))
	mux.HandleFunc("/detect", MetricsMiddleware(s.detectHandler.HandleDetect, "detect"))
	mux.HandleFunc("/detect/batch", MetricsMiddleware(s.detectHandler.HandleDetectBatch, "detect_batch"))
	mux.HandleFunc("/results", MetricsMiddleware(s.resultsHandler.HandleListResults, "results"))
	mux.HandleFunc("/results/", MetricsMiddleware(s.resultsHandler.HandleGetResult, "result"))
}

// windowRequest mirrors the OpenAPI schema for a submitted window.
type windowRequest struct {
	types.WindowEntry
}

func (req windowRequest) validate() error { //nolint:gocritic // hugeParam: read only
	switch {
	case len(req.WindowID) > maxWindowIDLength:
		return fmt.Errorf("window_id longer than %d characters", maxWindowIDLength)
	case strings.ContainsAny(req.WindowID, "/?#"):
		return errors.New("window_id must not contain '/', '?' or '#'")
	case len(req.X) == 0 || len(req.Y) == 0:
		return errors.New("missing x or y samples")
	case len(req.X) != len(req.Y):
		return fmt.Errorf("x has %d samples, y has %d", len(req.X), len(req.Y))
	case len(req.T) > 0 && len(req.T) != len(req.X):
		return fmt.Errorf("t has %d timestamps for %d samples", len(req.T), len(req.X))
	case req.SamplingRate < 0:
		return errors.New("sampling_rate must not be negative")
	}
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates store misses to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrNotFound)
}
