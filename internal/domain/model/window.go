// Package model contains domain models passed between layers.
package model

import "time"

// Window is one analysis unit: the gaze samples of a single trial (or any
// contiguous slice of a recording) plus enough identity to file the result.
type Window struct {
	WindowID string // unique id for idempotency
	Subject  string
	Run      int
	Sequence int
	Trial    int

	SamplingRate float64   // Hz; zero means the analyzer default
	T            []float64 // sample timestamps in ms, optional
	X            []float64 // horizontal gaze position, degrees of visual angle
	Y            []float64 // vertical gaze position, degrees of visual angle

	// Trial bounds in ms, used to express event times as a proportion of
	// the trial. Ignored unless TrialEnd > TrialStart.
	TrialStart float64
	TrialEnd   float64

	Blinks []Blink // blink intervals in ms, optional

	Params *DetectionParams // per-window override, optional

	Submitted time.Time
}

// HasTimestamps reports whether T carries one timestamp per sample.
func (w Window) HasTimestamps() bool {
	return len(w.T) > 0 && len(w.T) == len(w.X)
}

// HasTrialBounds reports whether the trial bounds describe a real interval.
func (w Window) HasTrialBounds() bool {
	return w.TrialEnd > w.TrialStart
}

// DetectionParams overrides detector thresholds for a single window.
// Zero fields fall back to the analyzer configuration.
type DetectionParams struct {
	VelocityThreshold float64
	MinDuration       int
	MergeInterval     *int // nil keeps the default; zero disables merging
}

// Blink is an interval of lost tracking, in ms.
type Blink struct {
	Onset  float64
	Offset float64
}
