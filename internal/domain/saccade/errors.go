package saccade

import "errors"

// Sentinel kinds for detection errors. Input contract violations and the
// degenerate-spread failure are distinct so callers can tell an unanalyzable
// window apart from a window with no saccade.
var (
	ErrSeriesTooShort   = errors.New("series too short")
	ErrLengthMismatch   = errors.New("series length mismatch")
	ErrInvalidParameter = errors.New("invalid detection parameter")
	ErrInvalidCandidate = errors.New("invalid candidate")
	ErrDegenerateSpread = errors.New("velocity spread degenerate")
)
