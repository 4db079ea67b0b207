package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mszinte/locEMexp/internal/domain/model"
	"github.com/mszinte/locEMexp/pkg/metrics"
)

const (
	defaultMemoryCapacity        = 100000
	defaultMetricsUpdateInterval = 5 * time.Second
)

// MemoryStore keeps results in memory, in insertion order.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]model.Result
	order    []string // window ids, oldest first
	capacity int
	closed   bool

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	stopOnce              sync.Once
}

// NewMemoryStore constructs an in-memory store with configuration options.
// Background metrics stop when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[string]model.Result),
		capacity:              defaultMemoryCapacity,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Save implements Store.Save. Re-saving a window moves it to the back of
// the eviction order.
func (s *MemoryStore) Save(_ context.Context, r model.Result) error {
	if r.WindowID == "" {
		return ErrEmptyID
	}
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(sinceMs(start)) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if _, ok := s.byID[r.WindowID]; ok {
		s.removeLocked(r.WindowID)
	}
	if s.capacity > 0 && len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.byID, oldest)
	}
	s.byID[r.WindowID] = r
	s.order = append(s.order, r.WindowID)
	return nil
}

func (s *MemoryStore) removeLocked(id string) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	delete(s.byID, id)
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, windowID string) (model.Result, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(sinceMs(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[windowID]
	if !ok {
		return model.Result{}, fmt.Errorf("window %q: %w", windowID, ErrNotFound)
	}
	return r, nil
}

// List implements Store.List, newest AnalyzedAt first with window id as
// the tie-breaker.
func (s *MemoryStore) List(_ context.Context, q Query) ([]model.Result, error) {
	if err := validQuery(q); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(sinceMs(start)) }()

	s.mu.RLock()
	matched := make([]model.Result, 0, min(q.Limit, len(s.byID)))
	for _, r := range s.byID {
		if q.Subject == "" || r.Subject == q.Subject {
			matched = append(matched, r)
		}
	}
	s.mu.RUnlock()

	sortResults(matched)
	if len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func sortResults(rs []model.Result) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].AnalyzedAt.Equal(rs[j].AnalyzedAt) {
			return rs[i].AnalyzedAt.After(rs[j].AnalyzedAt)
		}
		return rs[i].WindowID < rs[j].WindowID
	})
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Close stops background metrics. Later writes fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateRepositoryRecordsTotal(s.Count(ctx))
			}
		}
	}()
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
