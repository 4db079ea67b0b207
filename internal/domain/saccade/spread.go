package saccade

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Spread holds the robust per-axis standard deviation of a velocity series.
// It belongs to exactly one window and is recomputed on every call.
type Spread struct {
	X float64
	Y float64
}

// Radius scales the spread by the velocity threshold multiplier, giving the
// semi-axes of the detection ellipse.
func (s Spread) Radius(velocityThreshold float64) (rx, ry float64) {
	return velocityThreshold * s.X, velocityThreshold * s.Y
}

// spreadEstimator is one strategy for the per-axis spread.
type spreadEstimator struct {
	name     string
	estimate func(v []float64) float64
}

// spreadEstimators are tried in order until one yields a usable value.
var spreadEstimators = []spreadEstimator{
	{name: "median", estimate: medianSpread},
	{name: "mean", estimate: meanSpread},
}

// EstimateSpread computes the adaptive velocity scale for both axes.
// It fails with ErrDegenerateSpread when no estimator produces a finite,
// strictly positive value for an axis.
func EstimateSpread(vx, vy []float64) (Spread, error) {
	if len(vx) != len(vy) {
		return Spread{}, fmt.Errorf("vx has %d samples, vy has %d: %w", len(vx), len(vy), ErrLengthMismatch)
	}
	sx, err := axisSpread(vx)
	if err != nil {
		return Spread{}, fmt.Errorf("horizontal axis: %w", err)
	}
	sy, err := axisSpread(vy)
	if err != nil {
		return Spread{}, fmt.Errorf("vertical axis: %w", err)
	}
	return Spread{X: sx, Y: sy}, nil
}

func axisSpread(v []float64) (float64, error) {
	if len(v) == 0 {
		return 0, ErrDegenerateSpread
	}
	for _, e := range spreadEstimators {
		if s := e.estimate(v); usableSpread(s) {
			return s, nil
		}
	}
	return 0, ErrDegenerateSpread
}

func usableSpread(s float64) bool {
	return !math.IsNaN(s) && !math.IsInf(s, 0) && s > math.SmallestNonzeroFloat64
}

// medianSpread is sqrt(median(v^2) - median(v)^2).
func medianSpread(v []float64) float64 {
	m := median(v)
	return math.Sqrt(median(squares(v)) - m*m)
}

// meanSpread is sqrt(mean(v^2) - mean(v)^2).
func meanSpread(v []float64) float64 {
	m := stat.Mean(v, nil)
	return math.Sqrt(stat.Mean(squares(v), nil) - m*m)
}

func squares(v []float64) []float64 {
	sq := make([]float64, len(v))
	for i, x := range v {
		sq[i] = x * x
	}
	return sq
}

// median averages the two middle values for even lengths.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
