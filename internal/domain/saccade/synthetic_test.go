package saccade_test

import "math"

const (
	traceRate      = 1000.0
	noiseAmplitude = 0.01
)

// noisyFixation returns a fixation trace with small deterministic jitter on
// both axes, so the adaptive spread is well defined.
func noisyFixation(n int) (x, y []float64) {
	x = make([]float64, n)
	y = make([]float64, n)
	for i := range x {
		x[i] = noiseAmplitude * math.Sin(2.3*float64(i))
		y[i] = noiseAmplitude * math.Cos(1.9*float64(i))
	}
	return x, y
}

// addRamp adds a constant-velocity step of `length` samples starting at
// start, moving by step per sample and holding the final offset afterwards.
func addRamp(p []float64, start, length int, step float64) {
	for i := start; i < len(p); i++ {
		k := i - start
		if k > length {
			k = length
		}
		p[i] += step * float64(k)
	}
}
