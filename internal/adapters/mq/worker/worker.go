// Package worker runs window analysis off the queue and persists results.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mszinte/locEMexp/internal/domain/model"
	"github.com/mszinte/locEMexp/pkg/logger"
	"github.com/mszinte/locEMexp/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // analysis is CPU bound
	metricsUpdateInterval   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Analyzer computes the result of one window.
type Analyzer interface {
	Analyze(ctx context.Context, w model.Window) (model.Result, error)
}

// ResultWriter persists analysis results.
type ResultWriter interface {
	Save(ctx context.Context, r model.Result) error
}

// Queue defines how workers receive windows.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Window
}

// Worker processes windows until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the window in flight.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker analyzes one window at a time. Failures are logged and
// counted, never retried.
type InMemoryWorker struct {
	queue    Queue
	analyzer Analyzer
	results  ResultWriter
	name     string
	onDone   func(model.Result)

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, analyzer Analyzer, results ResultWriter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		analyzer: analyzer,
		results:  results,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	windows := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case win, ok := <-windows:
			if !ok {
				return
			}
			if err := w.process(ctx, win); err != nil {
				w.logger.Error(ctx, "window processing failed",
					logger.String("window_id", win.WindowID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process analyzes one window and stores its result. Degenerate and invalid
// windows are stored too, so callers can see why nothing was detected.
func (w *InMemoryWorker) process(ctx context.Context, win model.Window) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	res, err := w.analyzer.Analyze(ctx, win)
	metrics.RecordDetectionLatency(float64(res.Latency.Microseconds()) / 1000)
	if err != nil {
		if res.Status == "" {
			// Cancelled before analysis; nothing to store.
			w.fail("analysis_error")
			return fmt.Errorf("analyze: %w", err)
		}
		metrics.RecordDetectionError(string(res.Status))
		w.logger.Warn(ctx, "window not analyzable",
			logger.String("window_id", win.WindowID),
			logger.String("status", string(res.Status)),
			logger.Error(err),
		)
	}

	if err := w.results.Save(ctx, res); err != nil {
		w.fail("repository_error")
		return fmt.Errorf("save result: %w", err)
	}

	metrics.RecordWindowProcessed(string(res.Status))
	metrics.RecordSaccadesDetected(res.SaccadeCount(), res.MicrosaccadeCount())
	if w.onDone != nil {
		w.onDone(res)
	}
	w.logger.Debug(ctx, "window analyzed",
		logger.String("window_id", win.WindowID),
		logger.String("status", string(res.Status)),
		logger.Int("saccades", res.SaccadeCount()),
	)
	return nil
}

func (w *InMemoryWorker) fail(kind string) {
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", kind)
	metrics.RecordErrorByType(kind, "high")
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	cancel context.CancelFunc
	wg     sync.WaitGroup

	processed atomic.Int64
	lastTick  time.Time

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count sizes the pool
// from the number of CPUs.
func NewPool(workerCount int, queue Queue, analyzer Analyzer, results ResultWriter, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		lastTick: time.Now(),
		logger:   logger.Get().Named("worker-pool"),
	}
	count := func(model.Result) { p.processed.Add(1) }
	for i := range p.workers {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i)), WithResultHook(count)}, opts...)
		p.workers[i] = NewInMemoryWorker(queue, analyzer, results, workerOpts...)
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerIdleCount(0)
	metrics.UpdateWorkerMessagesPerSecond(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many windows were analyzed and stored.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	go p.reportThroughput(ctx)
}

func (p *Pool) reportThroughput(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	last := p.processed.Load()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cur := p.processed.Load()
			if elapsed := now.Sub(p.lastTick).Seconds(); elapsed > 0 {
				metrics.UpdateWorkerMessagesPerSecond(float64(cur-last) / elapsed)
			}
			last, p.lastTick = cur, now
		}
	}
}

// Shutdown closes the queue, lets workers drain it and waits for them. If
// ctx expires first the remaining workers are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timeout, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var err error
	select {
	case <-done:
	case <-timeout.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		err = fmt.Errorf("worker pool shutdown: %w", timeout.Err())
	}
	if p.cancel != nil {
		p.cancel()
	}
	metrics.UpdateWorkerActiveCount(0)
	return err
}
