// Package saccade implements velocity-based saccade detection on gaze
// position series: a smoothed finite-difference velocity estimator, an
// adaptive elliptic threshold with run grouping and merging, per-event
// metric extraction and a small geometric helper.
//
// Every function is pure and synchronous. Nothing here logs, caches or
// shares state between calls.
package saccade

import (
	"fmt"
	"math"
)

// MinSamples is the shortest series the velocity kernel accepts.
const MinSamples = 5

// EstimateVelocity converts position samples into velocity samples
// (position units per second). Interior samples use the five-point smoothed
// difference; indices 1 and n-2 use a central difference. Indices 0, n-3
// and n-1 have no estimate and stay zero.
func EstimateVelocity(x, y []float64, samplingRate float64) (vx, vy []float64, err error) {
	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("x has %d samples, y has %d: %w", len(x), len(y), ErrLengthMismatch)
	}
	if len(x) < MinSamples {
		return nil, nil, fmt.Errorf("%d samples, need at least %d: %w", len(x), MinSamples, ErrSeriesTooShort)
	}
	if !(samplingRate > 0) || math.IsInf(samplingRate, 0) {
		return nil, nil, fmt.Errorf("sampling rate %v: %w", samplingRate, ErrInvalidParameter)
	}
	return differentiate(x, samplingRate), differentiate(y, samplingRate), nil
}

func differentiate(p []float64, rate float64) []float64 {
	n := len(p)
	v := make([]float64, n)
	for i := 2; i <= n-4; i++ {
		v[i] = rate / 6 * (p[i+2] + p[i+1] - p[i-1] - p[i-2])
	}
	v[1] = rate / 2 * (p[2] - p[0])
	v[n-2] = rate / 2 * (p[n-1] - p[n-3])
	return v
}
