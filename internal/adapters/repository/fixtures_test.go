package repository_test

import (
	"time"

	"github.com/mszinte/locEMexp/internal/domain/model"
)

var epoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func result(id, subject string, offset time.Duration, saccades int) model.Result {
	r := model.Result{
		WindowID:   id,
		Subject:    subject,
		Run:        1,
		Trial:      3,
		Status:     model.StatusNoSaccade,
		Samples:    300,
		SpreadX:    0.6,
		SpreadY:    0.8,
		Saccades:   []model.Saccade{},
		AnalyzedAt: epoch.Add(offset),
		Latency:    250 * time.Microsecond,
	}
	for i := 1; i <= saccades; i++ {
		r.Status = model.StatusSaccade
		r.Saccades = append(r.Saccades, model.Saccade{
			Index:        i,
			OnsetSample:  100 * i,
			OffsetSample: 100*i + 22,
			OnsetTime:    float64(100 * i),
			OffsetTime:   float64(100*i + 22),
			DurationMS:   22,
			PeakVelocity: 450,
			Amplitude:    0.5 * float64(i),
			Microsaccade: i == 1,
		})
	}
	return r
}
