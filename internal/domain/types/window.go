package types

import "github.com/mszinte/locEMexp/internal/domain/model"

// WindowEntry is the JSON form of a submitted gaze window.
type WindowEntry struct {
	WindowID     string       `json:"window_id"`
	Subject      string       `json:"subject,omitempty"`
	Run          int          `json:"run,omitempty"`
	Sequence     int          `json:"sequence,omitempty"`
	Trial        int          `json:"trial,omitempty"`
	SamplingRate float64      `json:"sampling_rate,omitempty"`
	T            []float64    `json:"t,omitempty"`
	X            []float64    `json:"x"`
	Y            []float64    `json:"y"`
	TrialStart   float64      `json:"trial_start,omitempty"`
	TrialEnd     float64      `json:"trial_end,omitempty"`
	Blinks       []BlinkEntry `json:"blinks,omitempty"`
	Params       *ParamsEntry `json:"params,omitempty"`
}

// BlinkEntry is a blink interval in ms.
type BlinkEntry struct {
	Onset  float64 `json:"onset"`
	Offset float64 `json:"offset"`
}

// ParamsEntry overrides detection thresholds for one window.
type ParamsEntry struct {
	VelocityThreshold float64 `json:"velocity_threshold,omitempty"`
	MinDuration       int     `json:"min_duration,omitempty"`
	MergeInterval     *int    `json:"merge_interval,omitempty"`
}

// AckEntry acknowledges an asynchronous submission.
type AckEntry struct {
	Status    string `json:"status"`
	WindowID  string `json:"window_id"`
	Duplicate bool   `json:"duplicate"`
}

// ToWindow converts the JSON form into a domain window.
func (e WindowEntry) ToWindow() model.Window { //nolint:gocritic // hugeParam: value receiver keeps the entry immutable
	w := model.Window{
		WindowID:     e.WindowID,
		Subject:      e.Subject,
		Run:          e.Run,
		Sequence:     e.Sequence,
		Trial:        e.Trial,
		SamplingRate: e.SamplingRate,
		T:            e.T,
		X:            e.X,
		Y:            e.Y,
		TrialStart:   e.TrialStart,
		TrialEnd:     e.TrialEnd,
	}
	for _, b := range e.Blinks {
		w.Blinks = append(w.Blinks, model.Blink{Onset: b.Onset, Offset: b.Offset})
	}
	if e.Params != nil {
		w.Params = &model.DetectionParams{
			VelocityThreshold: e.Params.VelocityThreshold,
			MinDuration:       e.Params.MinDuration,
			MergeInterval:     e.Params.MergeInterval,
		}
	}
	return w
}

// FromWindow converts a domain window into its JSON form.
func FromWindow(w model.Window) WindowEntry { //nolint:gocritic // hugeParam: read only
	e := WindowEntry{
		WindowID:     w.WindowID,
		Subject:      w.Subject,
		Run:          w.Run,
		Sequence:     w.Sequence,
		Trial:        w.Trial,
		SamplingRate: w.SamplingRate,
		T:            w.T,
		X:            w.X,
		Y:            w.Y,
		TrialStart:   w.TrialStart,
		TrialEnd:     w.TrialEnd,
	}
	for _, b := range w.Blinks {
		e.Blinks = append(e.Blinks, BlinkEntry{Onset: b.Onset, Offset: b.Offset})
	}
	if w.Params != nil {
		e.Params = &ParamsEntry{
			VelocityThreshold: w.Params.VelocityThreshold,
			MinDuration:       w.Params.MinDuration,
			MergeInterval:     w.Params.MergeInterval,
		}
	}
	return e
}
