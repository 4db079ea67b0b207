// Package analysis turns a gaze window into a stored result: it checks the
// samples, runs saccade detection and expresses every event in time and
// trial coordinates.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mszinte/locEMexp/internal/domain/model"
	"github.com/mszinte/locEMexp/internal/domain/saccade"
)

// Default analysis configuration constants.
const (
	defaultMicrosaccadeAmplitude = 1.0 // deg
	defaultMaxGapFactor          = 1.0
	defaultBlinkBuffer           = 20.0 // ms

	msPerSecond = 1000.0
)

// Analyzer computes the result of one window.
type Analyzer interface {
	// Analyze evaluates w, honoring ctx for cancellation. Degenerate and
	// invalid windows return a populated Result together with an error.
	Analyze(ctx context.Context, w model.Window) (model.Result, error)
}

// WindowAnalyzer implements Analyzer with the velocity-threshold detector.
// It holds configuration only and is safe for concurrent use.
type WindowAnalyzer struct {
	params                saccade.Params
	microsaccadeAmplitude float64
	maxGapFactor          float64
	blinkBuffer           float64
}

// NewWindowAnalyzer creates a new analyzer with configuration options.
func NewWindowAnalyzer(opts ...Option) *WindowAnalyzer {
	a := &WindowAnalyzer{
		params:                saccade.DefaultParams(),
		microsaccadeAmplitude: defaultMicrosaccadeAmplitude,
		maxGapFactor:          defaultMaxGapFactor,
		blinkBuffer:           defaultBlinkBuffer,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Params returns the default detection parameters.
func (a *WindowAnalyzer) Params() saccade.Params { return a.params }

// Analyze evaluates one window.
func (a *WindowAnalyzer) Analyze(ctx context.Context, w model.Window) (model.Result, error) {
	if err := ctx.Err(); err != nil {
		return model.Result{}, fmt.Errorf("analyze window %s: %w", w.WindowID, err)
	}
	start := time.Now()

	res := model.Result{
		WindowID: w.WindowID,
		Subject:  w.Subject,
		Run:      w.Run,
		Sequence: w.Sequence,
		Trial:    w.Trial,
		Samples:  len(w.X),
		Saccades: []model.Saccade{},
	}
	finish := func(status model.Status, err error) (model.Result, error) {
		res.Status = status
		if err != nil {
			res.Error = err.Error()
		}
		res.AnalyzedAt = time.Now()
		res.Latency = res.AnalyzedAt.Sub(start)
		return res, err
	}

	p := a.paramsFor(w)
	if err := checkWindow(w, p); err != nil {
		return finish(model.StatusInvalid, fmt.Errorf("window %s: %w", w.WindowID, err))
	}
	if a.missingSamples(w, p.SamplingRate) {
		return finish(model.StatusMissingSamples, nil)
	}

	d, err := saccade.Detect(w.X, w.Y, p)
	switch {
	case errors.Is(err, saccade.ErrDegenerateSpread):
		return finish(model.StatusDegenerate, fmt.Errorf("window %s: %w", w.WindowID, err))
	case err != nil:
		return finish(model.StatusInvalid, fmt.Errorf("window %s: %w", w.WindowID, err))
	}

	res.SpreadX, res.SpreadY = d.Spread.X, d.Spread.Y
	for k, m := range d.Metrics {
		res.Saccades = append(res.Saccades, a.describe(w, p.SamplingRate, k+1, m))
	}
	if len(res.Saccades) == 0 {
		return finish(model.StatusNoSaccade, nil)
	}
	return finish(model.StatusSaccade, nil)
}

// paramsFor merges the window override into the analyzer defaults.
func (a *WindowAnalyzer) paramsFor(w model.Window) saccade.Params {
	p := a.params
	if w.SamplingRate != 0 {
		p.SamplingRate = w.SamplingRate
	}
	if o := w.Params; o != nil {
		if o.VelocityThreshold != 0 {
			p.VelocityThreshold = o.VelocityThreshold
		}
		if o.MinDuration != 0 {
			p.MinDuration = o.MinDuration
		}
		if o.MergeInterval != nil {
			p.MergeInterval = *o.MergeInterval
		}
	}
	return p
}

func checkWindow(w model.Window, p saccade.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if len(w.T) > 0 && !w.HasTimestamps() {
		return fmt.Errorf("%d timestamps for %d samples: %w", len(w.T), len(w.X), ErrInvalidWindow)
	}
	for i := range w.X {
		if !finite(w.X[i]) || (i < len(w.Y) && !finite(w.Y[i])) {
			return fmt.Errorf("non-finite sample at %d: %w", i, ErrInvalidWindow)
		}
	}
	return nil
}

// missingSamples reports whether any two consecutive timestamps are further
// apart than the allowed multiple of the sampling period.
func (a *WindowAnalyzer) missingSamples(w model.Window, rate float64) bool {
	if !w.HasTimestamps() {
		return false
	}
	// Tolerance absorbs rounding in clocks computed as i*period.
	maxGap := a.maxGapFactor*msPerSecond/rate + 1e-6
	for i := 1; i < len(w.T); i++ {
		if w.T[i]-w.T[i-1] > maxGap {
			return true
		}
	}
	return false
}

func (a *WindowAnalyzer) describe(w model.Window, rate float64, index int, m saccade.Metrics) model.Saccade {
	onsetT, offsetT := sampleTime(w, rate, m.Onset), sampleTime(w, rate, m.Offset)
	s := model.Saccade{
		Index:             index,
		OnsetSample:       m.Onset,
		OffsetSample:      m.Offset,
		OnsetTime:         onsetT,
		OffsetTime:        offsetT,
		DurationMS:        float64(m.Duration) * msPerSecond / rate,
		OnsetX:            w.X[m.Onset],
		OnsetY:            w.Y[m.Onset],
		OffsetX:           w.X[m.Offset],
		OffsetY:           w.Y[m.Offset],
		PeakVelocity:      m.PeakVelocity,
		DX:                m.DX,
		DY:                m.DY,
		Distance:          m.Distance,
		DistanceAngle:     m.DistanceAngle,
		DistanceAngleDeg:  degrees(m.DistanceAngle),
		AmplitudeX:        m.AmplitudeX,
		AmplitudeY:        m.AmplitudeY,
		Amplitude:         m.Amplitude,
		AmplitudeAngle:    m.AmplitudeAngle,
		AmplitudeAngleDeg: degrees(m.AmplitudeAngle),
		Microsaccade:      m.Amplitude <= a.microsaccadeAmplitude,
		BlinkAdjacent:     a.nearBlink(w.Blinks, onsetT, offsetT),
	}
	if w.HasTrialBounds() {
		span := w.TrialEnd - w.TrialStart
		s.OnsetProportion = (onsetT - w.TrialStart) / span
		s.OffsetProportion = (offsetT - w.TrialStart) / span
	}
	return s
}

// nearBlink flags saccades ending around a blink onset or starting around
// a blink offset.
func (a *WindowAnalyzer) nearBlink(blinks []model.Blink, onset, offset float64) bool {
	half := a.blinkBuffer / 2
	for _, b := range blinks {
		if math.Abs(offset-b.Onset) <= half || math.Abs(onset-b.Offset) <= half {
			return true
		}
	}
	return false
}

// sampleTime returns the timestamp of sample i, or its position on a
// uniform clock starting at the trial start when no timestamps were sent.
func sampleTime(w model.Window, rate float64, i int) float64 {
	if w.HasTimestamps() {
		return w.T[i]
	}
	return w.TrialStart + float64(i)*msPerSecond/rate
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
