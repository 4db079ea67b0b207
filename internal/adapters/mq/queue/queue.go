// Package queue buffers submitted gaze windows between the HTTP edge and
// the analysis workers.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/mszinte/locEMexp/internal/domain/model"
	"github.com/mszinte/locEMexp/pkg/metrics"
)

const defaultCapacity = 10000

// Window is the payload flowing through the queue.
type Window = model.Window

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a window. It returns false when the queue is full,
	// closed or ctx is done.
	Enqueue(ctx context.Context, w Window) bool

	// Dequeue returns a channel of windows that is closed once the queue
	// is closed and drained, or ctx is done.
	Dequeue(ctx context.Context) <-chan Window

	Len(ctx context.Context) int

	// Close stops accepting windows. Buffered windows can still be read.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	windows  chan Window
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.windows = make(chan Window, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	q.observe()
	return q
}

// Enqueue adds a window to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, w Window) bool { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.reject("closed")
		return false
	}
	if ctx.Err() != nil {
		q.reject("context_cancelled")
		return false
	}

	select {
	case q.windows <- w:
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	default:
		q.reject("queue_full")
		return false
	}
}

func (q *InMemoryQueue) reject(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}

// Dequeue returns a channel that receives windows as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Window {
	out := make(chan Window)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case w, ok := <-q.windows:
				if !ok {
					return
				}
				q.observe()
				select {
				case out <- w:
					metrics.RecordQueueDequeue()
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued windows.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observe()
}

// observe publishes the queue depth and returns it.
func (q *InMemoryQueue) observe() int {
	size := len(q.windows)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close gracefully shuts down the queue. Calling it twice is a no-op.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.windows)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
