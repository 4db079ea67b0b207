// Package service wires queue, workers, analysis and storage into the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	windowqueue "github.com/mszinte/locEMexp/internal/adapters/mq/queue"
	workerpool "github.com/mszinte/locEMexp/internal/adapters/mq/worker"
	repository "github.com/mszinte/locEMexp/internal/adapters/repository"
	"github.com/mszinte/locEMexp/internal/domain/analysis"
	"github.com/mszinte/locEMexp/internal/domain/dedupe"
	"github.com/mszinte/locEMexp/internal/domain/model"
	"github.com/mszinte/locEMexp/internal/domain/saccade"
	"github.com/mszinte/locEMexp/pkg/logger"
	"github.com/mszinte/locEMexp/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// ErrNotStarted is returned by operations that need the worker pipeline.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for window analysis.
type Service struct {
	mu sync.RWMutex

	store    repository.Store
	deduper  dedupe.Deduper
	queue    *windowqueue.InMemoryQueue
	analyzer *analysis.WindowAnalyzer
	pool     *workerpool.Pool

	workerCount           int
	queueSize             int
	dedupeSize            int
	params                saccade.Params
	microsaccadeAmplitude float64
	maxGapFactor          float64

	ownsStore bool
	started   bool
	logger    logger.Logger
}

// New constructs a Service. Synchronous detection works right away;
// queued analysis needs Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:           runtime.NumCPU() * 2,
		queueSize:             10_000,
		dedupeSize:            50_000,
		params:                saccade.DefaultParams(),
		microsaccadeAmplitude: 1.0,
		maxGapFactor:          1.0,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.analyzer = analysis.NewWindowAnalyzer(
		analysis.WithParams(s.params),
		analysis.WithMicrosaccadeAmplitude(s.microsaccadeAmplitude),
		analysis.WithMaxGapFactor(s.maxGapFactor),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start creates the queue, the store (unless one was given) and the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.ownsStore = true
		s.logger.Info(ctx, "using in-memory result store")
	}
	s.queue = windowqueue.NewInMemoryQueue(windowqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.analyzer, s.store)
	s.pool.Start(ctx)

	s.started = true
	metrics.UpdateWorkerCount(s.workerCount)
	s.logger.Info(ctx, "saccade service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Float64("velocityThreshold", s.params.VelocityThreshold),
	)
	return nil
}

// Stop drains queued windows. A store created by Start is closed and
// replaced on the next Start; a store given through WithStore stays open
// and belongs to the caller.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping saccade service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "closing result store", logger.Error(err))
		}
		s.store, s.ownsStore = nil, false
	}

	s.started = false
	s.logger.Info(ctx, "saccade service stopped")
}

// Started reports whether the service is running.
func (s *Service) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// SeenAndRecord reports whether the window id was already submitted and
// records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordWindowDuplicate()
	}
	return seen
}

// Unrecord forgets a window id so it can be submitted again.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the number of remembered window ids.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

// Enqueue submits a window for asynchronous analysis. It returns false when
// the service is stopped or the queue is full.
func (s *Service) Enqueue(ctx context.Context, w model.Window) bool { //nolint:gocritic // hugeParam: windows are passed by value through the queue
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return false
	}
	if w.Submitted.IsZero() {
		w.Submitted = time.Now()
	}
	ok := s.queue.Enqueue(ctx, w)
	if ok {
		s.logger.Debug(ctx, "window queued",
			logger.String("window_id", w.WindowID),
			logger.Int("samples", len(w.X)),
		)
		metrics.UpdateQueueSize(s.queue.Len(ctx))
	}
	return ok
}

// Detect analyzes one window synchronously. Results of Detect are not stored.
func (s *Service) Detect(ctx context.Context, w model.Window) (model.Result, error) { //nolint:gocritic // hugeParam: see Enqueue
	res, err := s.analyzer.Analyze(ctx, w)
	observe(res, err)
	return res, err
}

// AnalyzeAll analyzes windows in parallel, at most one per worker at a time.
// Results keep the input order; per-window failures are reported through
// each Result's Status and Error. Only cancellation aborts the batch.
func (s *Service) AnalyzeAll(ctx context.Context, windows []model.Window) ([]model.Result, error) {
	results := make([]model.Result, len(windows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount)
	for i := range windows {
		g.Go(func() error {
			res, err := s.analyzer.Analyze(gctx, windows[i])
			observe(res, err)
			if err != nil && res.Status == "" {
				return fmt.Errorf("window %q: %w", windows[i].WindowID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func observe(res model.Result, err error) { //nolint:gocritic // hugeParam: read only
	if res.Status == "" {
		return
	}
	metrics.RecordDetectionLatency(float64(res.Latency.Microseconds()) / 1000)
	if err != nil {
		metrics.RecordDetectionError(string(res.Status))
	}
	metrics.RecordWindowProcessed(string(res.Status))
	metrics.RecordSaccadesDetected(res.SaccadeCount(), res.MicrosaccadeCount())
}

// Result returns the stored result of one window.
func (s *Service) Result(ctx context.Context, windowID string) (model.Result, error) {
	store, err := s.resultStore()
	if err != nil {
		return model.Result{}, err
	}
	return store.Get(ctx, windowID)
}

// Results lists stored results, newest first.
func (s *Service) Results(ctx context.Context, q repository.Query) ([]model.Result, error) {
	store, err := s.resultStore()
	if err != nil {
		return nil, err
	}
	return store.List(ctx, q)
}

func (s *Service) resultStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"workerCount":       s.workerCount,
		"queueSize":         s.queueSize,
		"dedupeSize":        s.dedupeSize,
		"dedupeEntries":     s.deduper.Size(),
		"samplingRate":      s.params.SamplingRate,
		"velocityThreshold": s.params.VelocityThreshold,
		"minDuration":       s.params.MinDuration,
		"mergeInterval":     s.params.MergeInterval,
	}

	if s.started {
		ctx := context.Background()
		queueLen := s.queue.Len(ctx)
		stored := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["storedResults"] = stored
		stats["processed"] = s.pool.Processed()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateRepositoryRecordsTotal(stored)
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return stats
}
