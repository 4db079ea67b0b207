package saccade_test

import (
	"errors"
	"math"
	"testing"

	"github.com/mszinte/locEMexp/internal/domain/saccade"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExtractParameters(t *testing.T) {
	Convey("Given a straight movement from (0,0) to (3,4)", t, func() {
		x := []float64{0, 1, 2, 3, 3, 3}
		y := []float64{0, 1, 3, 4, 4, 4}
		vx := []float64{0, 3, 1, 2, 0, 0}
		vy := []float64{0, 4, 1, 2, 0, 0}

		got, err := saccade.ExtractParameters(x, y, vx, vy, []saccade.Candidate{{Onset: 0, Offset: 3}})
		So(err, ShouldBeNil)
		So(got, ShouldHaveLength, 1)
		m := got[0]

		Convey("Then displacement and amplitude agree", func() {
			So(m.Duration, ShouldEqual, 3)
			So(m.DX, ShouldEqual, 3.0)
			So(m.DY, ShouldEqual, 4.0)
			So(m.Distance, ShouldAlmostEqual, 5.0, 1e-12)
			So(m.DistanceAngle, ShouldAlmostEqual, math.Atan2(4, 3), 1e-12)
			So(m.AmplitudeX, ShouldEqual, 3.0)
			So(m.AmplitudeY, ShouldEqual, 4.0)
			So(m.Amplitude, ShouldAlmostEqual, 5.0, 1e-12)
			So(m.AmplitudeAngle, ShouldAlmostEqual, m.DistanceAngle, 1e-12)
		})

		Convey("Then the peak velocity is the largest speed in the span", func() {
			So(m.PeakVelocity, ShouldAlmostEqual, 5.0, 1e-12)
		})
	})

	Convey("Given a peak velocity on the offset sample", t, func() {
		x := []float64{0, 1, 2, 3, 4}
		y := make([]float64, 5)
		vx := []float64{0, 1, 1, 9, 50}
		vy := make([]float64, 5)

		got, err := saccade.ExtractParameters(x, y, vx, vy, []saccade.Candidate{{Onset: 1, Offset: 3}})

		Convey("Then the offset sample is included and later samples are not", func() {
			So(err, ShouldBeNil)
			So(got[0].PeakVelocity, ShouldEqual, 9.0)
		})
	})

	Convey("Given excursions whose extrema are not at the span ends", t, func() {
		zeros := make([]float64, 5)
		extract := func(x []float64, c saccade.Candidate) saccade.Metrics {
			got, err := saccade.ExtractParameters(x, zeros[:len(x)], zeros[:len(x)], zeros[:len(x)], []saccade.Candidate{c})
			So(err, ShouldBeNil)
			return got[0]
		}

		Convey("When the trace overshoots", func() {
			m := extract([]float64{0, 2, 5, 3}, saccade.Candidate{Onset: 0, Offset: 3})
			So(m.DX, ShouldEqual, 3.0)
			So(m.AmplitudeX, ShouldEqual, 5.0)
		})

		Convey("When the maximum comes before the minimum", func() {
			m := extract([]float64{5, 1, 0, 2}, saccade.Candidate{Onset: 0, Offset: 3})
			So(m.AmplitudeX, ShouldEqual, -5.0)
		})

		Convey("When extrema repeat, the first occurrence decides the sign", func() {
			m := extract([]float64{3, 0, 3, 0}, saccade.Candidate{Onset: 0, Offset: 3})
			So(m.AmplitudeX, ShouldEqual, -3.0)
		})

		Convey("When samples outside the span hold larger extremes", func() {
			m := extract([]float64{-100, 0, 1, 2, 100}, saccade.Candidate{Onset: 1, Offset: 3})
			So(m.AmplitudeX, ShouldEqual, 2.0)
		})
	})

	Convey("Given no candidates", t, func() {
		got, err := saccade.ExtractParameters(make([]float64, 5), make([]float64, 5), make([]float64, 5), make([]float64, 5), nil)

		Convey("Then the result is empty", func() {
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})
	})

	Convey("Given invalid candidates", t, func() {
		s := make([]float64, 6)
		for _, c := range []saccade.Candidate{{Onset: -1, Offset: 2}, {Onset: 2, Offset: 6}, {Onset: 3, Offset: 3}, {Onset: 4, Offset: 1}} {
			_, err := saccade.ExtractParameters(s, s, s, s, []saccade.Candidate{c})
			So(errors.Is(err, saccade.ErrInvalidCandidate), ShouldBeTrue)
		}
	})

	Convey("Given ragged arrays", t, func() {
		_, err := saccade.ExtractParameters(make([]float64, 6), make([]float64, 5), make([]float64, 6), make([]float64, 6), nil)
		So(errors.Is(err, saccade.ErrLengthMismatch), ShouldBeTrue)
	})
}

func TestIsWithinCircle(t *testing.T) {
	Convey("Given the unit circle at the origin", t, func() {
		So(saccade.IsWithinCircle(0.5, 0, 0, 0, 1), ShouldBeTrue)
		So(saccade.IsWithinCircle(0, 0, 0, 0, 1), ShouldBeTrue)

		Convey("Then boundary points are outside", func() {
			So(saccade.IsWithinCircle(1, 0, 0, 0, 1), ShouldBeFalse)
			So(saccade.IsWithinCircle(0, -1, 0, 0, 1), ShouldBeFalse)
		})

		Convey("Then distant points are outside", func() {
			So(saccade.IsWithinCircle(3, 4, 0, 0, 4.9), ShouldBeFalse)
		})
	})

	Convey("Given a shifted centre", t, func() {
		So(saccade.IsWithinCircle(10.2, -4.9, 10, -5, 0.5), ShouldBeTrue)
		So(saccade.IsWithinCircle(13, -1, 10, -5, 5), ShouldBeFalse)
	})
}

func TestDetect(t *testing.T) {
	Convey("Given a window with one saccade", t, func() {
		x, y := noisyFixation(301)
		addRamp(x, 150, 20, 0.5)
		addRamp(y, 150, 20, 0.25)

		Convey("When running the full pipeline with defaults", func() {
			d, err := saccade.Detect(x, y, saccade.DefaultParams())

			Convey("Then velocities, candidates and metrics line up", func() {
				So(err, ShouldBeNil)
				So(d.VX, ShouldHaveLength, len(x))
				So(d.Spread.X, ShouldBeGreaterThan, 0)
				So(d.Candidates, ShouldHaveLength, 1)
				So(d.Metrics, ShouldHaveLength, 1)

				m := d.Metrics[0]
				So(m.Onset, ShouldEqual, d.Candidates[0].Onset)
				So(m.Amplitude, ShouldAlmostEqual, math.Hypot(10, 5), 0.05)
				So(m.AmplitudeAngle, ShouldAlmostEqual, math.Atan2(5, 10), 0.01)
				So(m.PeakVelocity, ShouldBeGreaterThan, 500)
			})
		})
	})

	Convey("Given invalid parameters", t, func() {
		x, y := noisyFixation(50)
		p := saccade.DefaultParams()
		p.SamplingRate = -1

		_, err := saccade.Detect(x, y, p)
		So(errors.Is(err, saccade.ErrInvalidParameter), ShouldBeTrue)
	})

	Convey("Given a flat window", t, func() {
		_, err := saccade.Detect(make([]float64, 50), make([]float64, 50), saccade.DefaultParams())
		So(errors.Is(err, saccade.ErrDegenerateSpread), ShouldBeTrue)
	})
}
