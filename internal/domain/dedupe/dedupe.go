// Package dedupe tracks window IDs so each window is analyzed at most once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 50000

// Deduper records seen window IDs.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it if
	// not. It returns true for a repeat.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a submission rejected downstream (for example
	// by queue backpressure) can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// windowSet is a bounded set with first-in first-out eviction. A maxSize of
// zero or less disables eviction.
type windowSet struct {
	mu      sync.Mutex
	order   *list.List               // oldest at the front
	index   map[string]*list.Element // id -> element in order
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &windowSet{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.order = list.New()
	d.index = make(map[string]*list.Element)
	return d
}

func (d *windowSet) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.index[id]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.index, oldest.Value.(string))
	}
	d.index[id] = d.order.PushBack(id)
	return false
}

func (d *windowSet) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.index[id]; ok {
		d.order.Remove(e)
		delete(d.index, id)
	}
}

func (d *windowSet) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}
