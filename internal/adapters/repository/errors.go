package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("result not found")
	ErrInvalidLimit = errors.New("invalid result limit")
	ErrEmptyID      = errors.New("empty window id")
	ErrClosed       = errors.New("store closed")
)
