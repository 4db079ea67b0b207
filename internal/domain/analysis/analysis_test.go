package analysis_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/mszinte/locEMexp/internal/domain/analysis"
	"github.com/mszinte/locEMexp/internal/domain/model"
	"github.com/mszinte/locEMexp/internal/domain/saccade"
	. "github.com/smartystreets/goconvey/convey"
)

// gazeWindow builds a 1 kHz fixation with jitter on both axes and an
// optional horizontal ramp of 20 samples starting at sample 150.
func gazeWindow(id string, step float64) model.Window {
	const n = 301
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = 0.01 * math.Sin(2.3*float64(i))
		y[i] = 0.01 * math.Cos(1.9*float64(i))
		k := i - 150
		switch {
		case k > 20:
			x[i] += step * 20
		case k > 0:
			x[i] += step * float64(k)
		}
	}
	return model.Window{WindowID: id, Subject: "sub-01", Run: 1, Trial: 7, SamplingRate: 1000, X: x, Y: y}
}

func withClock(w model.Window, origin float64) model.Window {
	w.T = make([]float64, len(w.X))
	for i := range w.T {
		w.T[i] = origin + float64(i)
	}
	return w
}

func TestWindowAnalyzer_Saccade(t *testing.T) {
	Convey("Given an analyzer with defaults", t, func() {
		a := analysis.NewWindowAnalyzer()
		ctx := context.Background()

		Convey("When a window holds one 10 degree saccade", func() {
			res, err := a.Analyze(ctx, gazeWindow("w-1", 0.5))

			Convey("Then exactly one saccade is reported", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, model.StatusSaccade)
				So(res.WindowID, ShouldEqual, "w-1")
				So(res.Subject, ShouldEqual, "sub-01")
				So(res.Trial, ShouldEqual, 7)
				So(res.Samples, ShouldEqual, 301)
				So(res.SaccadeCount(), ShouldEqual, 1)
				So(res.AnalyzedAt.IsZero(), ShouldBeFalse)
			})

			Convey("Then the event is described in window coordinates", func() {
				s := res.Saccades[0]
				So(s.Index, ShouldEqual, 1)
				So(s.OnsetSample, ShouldBeBetweenOrEqual, 148, 152)
				So(s.OnsetTime, ShouldEqual, float64(s.OnsetSample))
				So(s.DurationMS, ShouldEqual, float64(s.OffsetSample-s.OnsetSample))
				So(s.OnsetX, ShouldAlmostEqual, 0, 0.02)
				So(s.OffsetX, ShouldAlmostEqual, 10, 0.02)
				So(s.Amplitude, ShouldAlmostEqual, 10, 0.05)
				So(s.DistanceAngleDeg, ShouldAlmostEqual, 0, 0.5)
				So(s.Microsaccade, ShouldBeFalse)
				So(s.BlinkAdjacent, ShouldBeFalse)
				So(s.OnsetProportion, ShouldEqual, 0.0)
			})
		})

		Convey("When the window carries timestamps and trial bounds", func() {
			w := withClock(gazeWindow("w-2", 0.5), 1000)
			w.TrialStart, w.TrialEnd = 1000, 1300

			res, err := a.Analyze(ctx, w)
			So(err, ShouldBeNil)
			s := res.Saccades[0]

			Convey("Then times come from the clock and proportions from the trial", func() {
				So(s.OnsetTime, ShouldEqual, 1000+float64(s.OnsetSample))
				So(s.OnsetProportion, ShouldAlmostEqual, float64(s.OnsetSample)/300, 1e-9)
				So(s.OffsetProportion, ShouldBeGreaterThan, s.OnsetProportion)
				So(s.OffsetProportion, ShouldBeLessThan, 1)
			})
		})

		Convey("When the saccade is smaller than the microsaccade cutoff", func() {
			res, err := a.Analyze(ctx, gazeWindow("w-3", 0.04))

			Convey("Then it is flagged", func() {
				So(err, ShouldBeNil)
				So(res.SaccadeCount(), ShouldEqual, 1)
				So(res.Saccades[0].Microsaccade, ShouldBeTrue)
				So(res.MicrosaccadeCount(), ShouldEqual, 1)
			})
		})

		Convey("When a blink starts right after the saccade ends", func() {
			w := gazeWindow("w-4", 0.5)
			base, err := a.Analyze(ctx, w)
			So(err, ShouldBeNil)
			end := base.Saccades[0].OffsetTime
			w.Blinks = []model.Blink{{Onset: end + 5, Offset: end + 120}}

			res, err := a.Analyze(ctx, w)

			Convey("Then the saccade is blink adjacent", func() {
				So(err, ShouldBeNil)
				So(res.Saccades[0].BlinkAdjacent, ShouldBeTrue)
			})
		})
	})
}

func TestWindowAnalyzer_Statuses(t *testing.T) {
	Convey("Given an analyzer with defaults", t, func() {
		a := analysis.NewWindowAnalyzer()
		ctx := context.Background()

		Convey("When the window is a plain fixation", func() {
			res, err := a.Analyze(ctx, gazeWindow("fix", 0))

			Convey("Then it is analyzable without events", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, model.StatusNoSaccade)
				So(res.Status.Analyzable(), ShouldBeTrue)
				So(res.Saccades, ShouldNotBeNil)
				So(res.Saccades, ShouldBeEmpty)
			})
		})

		Convey("When the clock skips samples", func() {
			w := withClock(gazeWindow("gap", 0.5), 0)
			for i := 200; i < len(w.T); i++ {
				w.T[i] += 4
			}

			res, err := a.Analyze(ctx, w)

			Convey("Then detection is skipped", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, model.StatusMissingSamples)
				So(res.Saccades, ShouldBeEmpty)
			})

			Convey("And a larger gap factor tolerates the skip", func() {
				res, err := analysis.NewWindowAnalyzer(analysis.WithMaxGapFactor(6)).Analyze(ctx, w)
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, model.StatusSaccade)
			})
		})

		Convey("When the gaze never moves", func() {
			w := model.Window{WindowID: "flat", SamplingRate: 1000, X: make([]float64, 100), Y: make([]float64, 100)}
			res, err := a.Analyze(ctx, w)

			Convey("Then the window is degenerate", func() {
				So(errors.Is(err, saccade.ErrDegenerateSpread), ShouldBeTrue)
				So(res.Status, ShouldEqual, model.StatusDegenerate)
				So(res.Status.Analyzable(), ShouldBeFalse)
				So(res.Error, ShouldNotBeEmpty)
			})
		})

		Convey("When a sample is NaN", func() {
			w := gazeWindow("nan", 0.5)
			w.Y[40] = math.NaN()
			res, err := a.Analyze(ctx, w)

			Convey("Then the window is invalid", func() {
				So(errors.Is(err, analysis.ErrInvalidWindow), ShouldBeTrue)
				So(res.Status, ShouldEqual, model.StatusInvalid)
			})
		})

		Convey("When the window is too short", func() {
			w := model.Window{WindowID: "short", X: []float64{1, 2, 3}, Y: []float64{1, 2, 3}}
			res, err := a.Analyze(ctx, w)

			Convey("Then the core error is preserved", func() {
				So(errors.Is(err, saccade.ErrSeriesTooShort), ShouldBeTrue)
				So(res.Status, ShouldEqual, model.StatusInvalid)
			})
		})

		Convey("When timestamps do not match the samples", func() {
			w := gazeWindow("ragged", 0.5)
			w.T = []float64{0, 1, 2}
			_, err := a.Analyze(ctx, w)
			So(errors.Is(err, analysis.ErrInvalidWindow), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := a.Analyze(cctx, gazeWindow("late", 0.5))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestWindowAnalyzer_Overrides(t *testing.T) {
	Convey("Given a window with a per-window override", t, func() {
		a := analysis.NewWindowAnalyzer()
		w := gazeWindow("override", 0.5)

		Convey("When the minimum duration exceeds the saccade", func() {
			w.Params = &model.DetectionParams{MinDuration: 100}
			res, err := a.Analyze(context.Background(), w)

			Convey("Then nothing is detected", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, model.StatusNoSaccade)
			})
		})

		Convey("When the override threshold is negative", func() {
			w.Params = &model.DetectionParams{VelocityThreshold: -1}
			res, err := a.Analyze(context.Background(), w)

			Convey("Then the window is invalid", func() {
				So(errors.Is(err, saccade.ErrInvalidParameter), ShouldBeTrue)
				So(res.Status, ShouldEqual, model.StatusInvalid)
			})
		})
	})

	Convey("Given analyzer options", t, func() {
		Convey("When the parameters are invalid they are ignored", func() {
			a := analysis.NewWindowAnalyzer(analysis.WithParams(saccade.Params{}))
			So(a.Params(), ShouldResemble, saccade.DefaultParams())
		})

		Convey("When a custom microsaccade cutoff is set", func() {
			a := analysis.NewWindowAnalyzer(analysis.WithMicrosaccadeAmplitude(20))
			res, err := a.Analyze(context.Background(), gazeWindow("big", 0.5))
			So(err, ShouldBeNil)
			So(res.Saccades[0].Microsaccade, ShouldBeTrue)
		})
	})
}
