package saccade

import (
	"fmt"
	"math"
)

// Default detection parameters.
const (
	DefaultSamplingRate      = 1000.0
	DefaultVelocityThreshold = 6.0
	DefaultMinDuration       = 6
	DefaultMergeInterval     = 10
)

// Params is the scalar configuration of one detection run.
type Params struct {
	SamplingRate      float64 // Hz
	VelocityThreshold float64 // multiplier on the adaptive spread
	MinDuration       int     // samples
	MergeInterval     int     // samples
}

// DefaultParams returns the default detection parameters.
func DefaultParams() Params {
	return Params{
		SamplingRate:      DefaultSamplingRate,
		VelocityThreshold: DefaultVelocityThreshold,
		MinDuration:       DefaultMinDuration,
		MergeInterval:     DefaultMergeInterval,
	}
}

// Validate checks the documented parameter ranges.
func (p Params) Validate() error {
	if !(p.SamplingRate > 0) || math.IsInf(p.SamplingRate, 0) {
		return fmt.Errorf("sampling rate %v: %w", p.SamplingRate, ErrInvalidParameter)
	}
	return checkThresholds(p.VelocityThreshold, p.MinDuration, p.MergeInterval)
}

// Detection is the complete output of one pipeline run.
type Detection struct {
	VX         []float64
	VY         []float64
	Spread     Spread
	Candidates []Candidate
	Metrics    []Metrics
}

// Detect runs velocity estimation, candidate detection and parameter
// extraction over one window. It returns either a complete Detection or an
// error, never a partial result.
func Detect(x, y []float64, p Params) (Detection, error) {
	if err := p.Validate(); err != nil {
		return Detection{}, err
	}
	vx, vy, err := EstimateVelocity(x, y, p.SamplingRate)
	if err != nil {
		return Detection{}, err
	}
	spread, err := EstimateSpread(vx, vy)
	if err != nil {
		return Detection{}, err
	}
	candidates := candidatesWithin(vx, vy, spread, p.VelocityThreshold, p.MinDuration, p.MergeInterval)
	metrics, err := ExtractParameters(x, y, vx, vy, candidates)
	if err != nil {
		return Detection{}, err
	}
	return Detection{
		VX:         vx,
		VY:         vy,
		Spread:     spread,
		Candidates: candidates,
		Metrics:    metrics,
	}, nil
}
