// Package repository stores analysis results.
package repository

import (
	"context"

	"github.com/mszinte/locEMexp/internal/domain/model"
)

// Query filters a result listing.
type Query struct {
	Subject string // empty matches every subject
	Limit   int    // must be positive
}

// Store provides read/write access to analysis results.
type Store interface {
	// Save inserts or replaces the result for r.WindowID.
	Save(ctx context.Context, r model.Result) error

	// Get returns ErrNotFound if the window is unknown.
	Get(ctx context.Context, windowID string) (model.Result, error)

	// List returns the most recently analyzed results first.
	List(ctx context.Context, q Query) ([]model.Result, error)

	// Count returns the number of stored results.
	Count(ctx context.Context) int

	Close() error
}

func validQuery(q Query) error {
	if q.Limit < 1 {
		return ErrInvalidLimit
	}
	return nil
}
