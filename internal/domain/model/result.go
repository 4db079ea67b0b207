package model

import "time"

// Status classifies the outcome of analyzing one window.
type Status string

const (
	StatusSaccade        Status = "saccade"
	StatusNoSaccade      Status = "no_saccade"
	StatusMissingSamples Status = "missing_samples"
	StatusDegenerate     Status = "degenerate"
	StatusInvalid        Status = "invalid"
)

// Analyzable is false for windows whose samples could not be evaluated.
func (s Status) Analyzable() bool {
	return s == StatusSaccade || s == StatusNoSaccade
}

// Result is the stored outcome of one window.
type Result struct {
	WindowID string
	Subject  string
	Run      int
	Sequence int
	Trial    int

	Status  Status
	Error   string // set for degenerate and invalid windows
	Samples int

	SpreadX float64
	SpreadY float64

	Saccades []Saccade

	AnalyzedAt time.Time
	Latency    time.Duration
}

// SaccadeCount returns the number of detected events.
func (r Result) SaccadeCount() int { return len(r.Saccades) }

// MicrosaccadeCount returns the number of events flagged as microsaccades.
func (r Result) MicrosaccadeCount() int {
	n := 0
	for _, s := range r.Saccades {
		if s.Microsaccade {
			n++
		}
	}
	return n
}

// Saccade describes one detected event in window coordinates.
type Saccade struct {
	Index int // position within the window, starting at 1

	OnsetSample  int
	OffsetSample int

	OnsetTime        float64 // ms
	OffsetTime       float64 // ms
	DurationMS       float64
	OnsetProportion  float64 // of the trial; zero without trial bounds
	OffsetProportion float64

	OnsetX  float64
	OnsetY  float64
	OffsetX float64
	OffsetY float64

	PeakVelocity float64 // deg/s

	DX               float64
	DY               float64
	Distance         float64
	DistanceAngle    float64 // radians
	DistanceAngleDeg float64

	AmplitudeX        float64
	AmplitudeY        float64
	Amplitude         float64
	AmplitudeAngle    float64 // radians
	AmplitudeAngleDeg float64

	Microsaccade  bool
	BlinkAdjacent bool // offset near a blink onset or onset near a blink offset
}
