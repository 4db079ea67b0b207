// Package types contains the JSON shapes exchanged over the HTTP API.
package types

import (
	"time"

	"github.com/mszinte/locEMexp/internal/domain/model"
)

// SaccadeEntry is the JSON form of one detected saccade.
type SaccadeEntry struct {
	Index            int     `json:"index"`
	OnsetSample      int     `json:"onset_sample"`
	OffsetSample     int     `json:"offset_sample"`
	OnsetTime        float64 `json:"onset_ms"`
	OffsetTime       float64 `json:"offset_ms"`
	Duration         float64 `json:"duration_ms"`
	OnsetProportion  float64 `json:"onset_prop"`
	OffsetProportion float64 `json:"offset_prop"`
	OnsetX           float64 `json:"onset_x"`
	OnsetY           float64 `json:"onset_y"`
	OffsetX          float64 `json:"offset_x"`
	OffsetY          float64 `json:"offset_y"`
	PeakVelocity     float64 `json:"peak_velocity"`
	DX               float64 `json:"dx"`
	DY               float64 `json:"dy"`
	Distance         float64 `json:"distance"`
	DistanceAngle    float64 `json:"distance_angle_deg"`
	AmplitudeX       float64 `json:"amplitude_x"`
	AmplitudeY       float64 `json:"amplitude_y"`
	Amplitude        float64 `json:"amplitude"`
	AmplitudeAngle   float64 `json:"amplitude_angle_deg"`
	Microsaccade     bool    `json:"microsaccade"`
	BlinkAdjacent    bool    `json:"blink_adjacent"`
}

// ResultEntry is the JSON form of one analyzed window.
type ResultEntry struct {
	WindowID          string         `json:"window_id"`
	Subject           string         `json:"subject,omitempty"`
	Run               int            `json:"run"`
	Sequence          int            `json:"sequence"`
	Trial             int            `json:"trial"`
	Status            string         `json:"status"`
	Analyzable        bool           `json:"analyzable"`
	Error             string         `json:"error,omitempty"`
	Samples           int            `json:"samples"`
	SpreadX           float64        `json:"spread_x"`
	SpreadY           float64        `json:"spread_y"`
	SaccadeCount      int            `json:"saccade_count"`
	MicrosaccadeCount int            `json:"microsaccade_count"`
	Saccades          []SaccadeEntry `json:"saccades"`
	AnalyzedAt        string         `json:"analyzed_at,omitempty"`
	LatencyMS         float64        `json:"latency_ms"`
}

// FromResult converts a stored result into its JSON shape. Angles are
// reported in degrees.
func FromResult(r model.Result) ResultEntry {
	entry := ResultEntry{
		WindowID:          r.WindowID,
		Subject:           r.Subject,
		Run:               r.Run,
		Sequence:          r.Sequence,
		Trial:             r.Trial,
		Status:            string(r.Status),
		Analyzable:        r.Status.Analyzable(),
		Error:             r.Error,
		Samples:           r.Samples,
		SpreadX:           r.SpreadX,
		SpreadY:           r.SpreadY,
		SaccadeCount:      r.SaccadeCount(),
		MicrosaccadeCount: r.MicrosaccadeCount(),
		Saccades:          make([]SaccadeEntry, 0, len(r.Saccades)),
		LatencyMS:         float64(r.Latency.Microseconds()) / 1000,
	}
	if !r.AnalyzedAt.IsZero() {
		entry.AnalyzedAt = r.AnalyzedAt.UTC().Format(time.RFC3339Nano)
	}
	for _, s := range r.Saccades {
		entry.Saccades = append(entry.Saccades, SaccadeEntry{
			Index:            s.Index,
			OnsetSample:      s.OnsetSample,
			OffsetSample:     s.OffsetSample,
			OnsetTime:        s.OnsetTime,
			OffsetTime:       s.OffsetTime,
			Duration:         s.DurationMS,
			OnsetProportion:  s.OnsetProportion,
			OffsetProportion: s.OffsetProportion,
			OnsetX:           s.OnsetX,
			OnsetY:           s.OnsetY,
			OffsetX:          s.OffsetX,
			OffsetY:          s.OffsetY,
			PeakVelocity:     s.PeakVelocity,
			DX:               s.DX,
			DY:               s.DY,
			Distance:         s.Distance,
			DistanceAngle:    s.DistanceAngleDeg,
			AmplitudeX:       s.AmplitudeX,
			AmplitudeY:       s.AmplitudeY,
			Amplitude:        s.Amplitude,
			AmplitudeAngle:   s.AmplitudeAngleDeg,
			Microsaccade:     s.Microsaccade,
			BlinkAdjacent:    s.BlinkAdjacent,
		})
	}
	return entry
}
