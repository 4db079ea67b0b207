package saccade

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Metrics summarizes one candidate. Velocities are in position units per
// second, angles in radians (atan2 convention), durations in samples.
type Metrics struct {
	Onset    int
	Offset   int
	Duration int

	PeakVelocity float64

	// Net displacement between the offset and onset samples.
	DX            float64
	DY            float64
	Distance      float64
	DistanceAngle float64

	// Whole-excursion extent, signed by the temporal order of the extrema.
	AmplitudeX     float64
	AmplitudeY     float64
	Amplitude      float64
	AmplitudeAngle float64
}

// ExtractParameters computes Metrics for every candidate, in order.
// Candidates are read by index; no samples are copied.
func ExtractParameters(x, y, vx, vy []float64, candidates []Candidate) ([]Metrics, error) {
	n := len(x)
	if len(y) != n || len(vx) != n || len(vy) != n {
		return nil, fmt.Errorf("x=%d y=%d vx=%d vy=%d samples: %w", len(x), len(y), len(vx), len(vy), ErrLengthMismatch)
	}
	out := make([]Metrics, 0, len(candidates))
	for k, c := range candidates {
		if c.Onset < 0 || c.Offset >= n || c.Offset <= c.Onset {
			return nil, fmt.Errorf("candidate %d [%d,%d] in %d samples: %w", k, c.Onset, c.Offset, n, ErrInvalidCandidate)
		}
		out = append(out, metricsFor(x, y, vx, vy, c))
	}
	return out, nil
}

func metricsFor(x, y, vx, vy []float64, c Candidate) Metrics {
	a, b := c.Onset, c.Offset

	peak := 0.0
	for i := a; i <= b; i++ {
		peak = math.Max(peak, math.Sqrt(vx[i]*vx[i]+vy[i]*vy[i]))
	}

	dx, dy := x[b]-x[a], y[b]-y[a]
	ampX := excursion(x[a : b+1])
	ampY := excursion(y[a : b+1])

	return Metrics{
		Onset:          a,
		Offset:         b,
		Duration:       b - a,
		PeakVelocity:   peak,
		DX:             dx,
		DY:             dy,
		Distance:       math.Sqrt(dx*dx + dy*dy),
		DistanceAngle:  math.Atan2(dy, dx),
		AmplitudeX:     ampX,
		AmplitudeY:     ampY,
		Amplitude:      math.Sqrt(ampX*ampX + ampY*ampY),
		AmplitudeAngle: math.Atan2(ampY, ampX),
	}
}

// excursion returns (max - min) signed by whether the maximum occurs after
// the minimum. Ties resolve to the first occurring index.
func excursion(p []float64) float64 {
	iMin, iMax := floats.MinIdx(p), floats.MaxIdx(p)
	return sign(iMax-iMin) * (p[iMax] - p[iMin])
}

func sign(d int) float64 {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	}
	return 0
}
