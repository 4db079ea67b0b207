package service

import (
	repository "github.com/mszinte/locEMexp/internal/adapters/repository"
	"github.com/mszinte/locEMexp/internal/domain/saccade"
	"github.com/mszinte/locEMexp/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued windows.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many window ids are remembered. Zero means unbounded.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithParams sets the default detection parameters. Invalid parameters are ignored.
func WithParams(p saccade.Params) Option {
	return func(s *Service) {
		if p.Validate() == nil {
			s.params = p
		}
	}
}

// WithMicrosaccadeAmplitude sets the microsaccade amplitude cutoff in degrees.
func WithMicrosaccadeAmplitude(amplitude float64) Option {
	return func(s *Service) {
		if amplitude >= 0 {
			s.microsaccadeAmplitude = amplitude
		}
	}
}

// WithMaxGapFactor sets the tolerated timestamp step in sampling periods.
func WithMaxGapFactor(factor float64) Option {
	return func(s *Service) {
		if factor >= 1 {
			s.maxGapFactor = factor
		}
	}
}

// WithStore sets the result store. The caller closes it after the last Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}
