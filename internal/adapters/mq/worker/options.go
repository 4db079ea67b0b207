package worker

import (
	"github.com/mszinte/locEMexp/internal/domain/model"
	"github.com/mszinte/locEMexp/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithResultHook registers a callback invoked after each stored result.
func WithResultHook(fn func(model.Result)) Option {
	return func(w *InMemoryWorker) {
		if fn == nil {
			return
		}
		prev := w.onDone
		w.onDone = func(r model.Result) {
			if prev != nil {
				prev(r)
			}
			fn(r)
		}
	}
}
