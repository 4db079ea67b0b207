package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithCapacity bounds how many results are kept. Once full, the result
// stored first is dropped. Zero or negative means unbounded.
func WithCapacity(capacity int) Option {
	return func(s *MemoryStore) {
		s.capacity = capacity
	}
}
