package saccade

import (
	"fmt"
	"math"
)

// Candidate is a contiguous span of above-threshold samples, after merging.
// Onset and Offset index into the position and velocity series.
type Candidate struct {
	Onset  int
	Offset int
}

// Duration returns the span length in samples (Offset - Onset).
func (c Candidate) Duration() int { return c.Offset - c.Onset }

// DetectCandidates flags samples whose velocity leaves the adaptive ellipse,
// groups consecutive flagged samples into runs of at least minDuration
// samples and merges runs separated by at most mergeInterval samples.
//
// An empty result with a nil error means no saccade was found. A degenerate
// velocity spread is reported as ErrDegenerateSpread.
func DetectCandidates(x, y, vx, vy []float64, velocityThreshold float64, minDuration, mergeInterval int) ([]Candidate, error) {
	if err := checkSeries(x, y, vx, vy); err != nil {
		return nil, err
	}
	if err := checkThresholds(velocityThreshold, minDuration, mergeInterval); err != nil {
		return nil, err
	}
	spread, err := EstimateSpread(vx, vy)
	if err != nil {
		return nil, err
	}
	return candidatesWithin(vx, vy, spread, velocityThreshold, minDuration, mergeInterval), nil
}

func candidatesWithin(vx, vy []float64, spread Spread, velocityThreshold float64, minDuration, mergeInterval int) []Candidate {
	rx, ry := spread.Radius(velocityThreshold)
	above := aboveThreshold(vx, vy, rx, ry)
	return mergeCandidates(groupRuns(above, minDuration), mergeInterval)
}

// aboveThreshold returns, in ascending order, the indices lying outside the
// ellipse with semi-axes rx and ry.
func aboveThreshold(vx, vy []float64, rx, ry float64) []int {
	var indices []int
	for i := range vx {
		qx, qy := vx[i]/rx, vy[i]/ry
		if qx*qx+qy*qy > 1 {
			indices = append(indices, i)
		}
	}
	return indices
}

type scanState int

const (
	scanBelow scanState = iota
	scanInRun
)

// groupRuns scans sorted sample indices and emits runs of consecutive
// indices whose length reaches minDuration. A run still open when the scan
// ends is flushed like any other. Single-sample runs are never emitted since
// a candidate needs Offset > Onset.
func groupRuns(indices []int, minDuration int) []Candidate {
	runs := make([]Candidate, 0)
	state := scanBelow
	first, last := 0, 0

	flush := func() {
		if length := last - first + 1; length >= minDuration && last > first {
			runs = append(runs, Candidate{Onset: first, Offset: last})
		}
	}

	for _, i := range indices {
		switch state {
		case scanBelow:
			first, last = i, i
			state = scanInRun
		case scanInRun:
			if i == last+1 {
				last = i
				continue
			}
			flush()
			first, last = i, i
		}
	}
	if state == scanInRun {
		flush()
	}
	return runs
}

// mergeCandidates collapses chains of candidates whose gap (next onset minus
// current offset) is at most mergeInterval. The merged span keeps the first
// onset and the last offset.
func mergeCandidates(raw []Candidate, mergeInterval int) []Candidate {
	merged := make([]Candidate, 0, len(raw))
	for _, c := range raw {
		if k := len(merged) - 1; k >= 0 && c.Onset-merged[k].Offset <= mergeInterval {
			merged[k].Offset = c.Offset
			continue
		}
		merged = append(merged, c)
	}
	return merged
}

func checkSeries(x, y, vx, vy []float64) error {
	n := len(x)
	if len(y) != n || len(vx) != n || len(vy) != n {
		return fmt.Errorf("x=%d y=%d vx=%d vy=%d samples: %w", len(x), len(y), len(vx), len(vy), ErrLengthMismatch)
	}
	if n < MinSamples {
		return fmt.Errorf("%d samples, need at least %d: %w", n, MinSamples, ErrSeriesTooShort)
	}
	return nil
}

func checkThresholds(velocityThreshold float64, minDuration, mergeInterval int) error {
	switch {
	case !(velocityThreshold > 0) || math.IsInf(velocityThreshold, 0):
		return fmt.Errorf("velocity threshold %v: %w", velocityThreshold, ErrInvalidParameter)
	case minDuration < 1:
		return fmt.Errorf("min duration %d: %w", minDuration, ErrInvalidParameter)
	case mergeInterval < 0:
		return fmt.Errorf("merge interval %d: %w", mergeInterval, ErrInvalidParameter)
	}
	return nil
}
