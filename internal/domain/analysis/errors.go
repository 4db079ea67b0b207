package analysis

import "errors"

// Sentinel kinds for analysis errors.
var (
	ErrInvalidWindow = errors.New("invalid window")
)
