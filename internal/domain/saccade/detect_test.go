package saccade_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mszinte/locEMexp/internal/domain/saccade"
	. "github.com/smartystreets/goconvey/convey"
)

func detectCandidates(x, y []float64, rate, threshold float64, minDuration, mergeInterval int) ([]saccade.Candidate, error) {
	vx, vy, err := saccade.EstimateVelocity(x, y, rate)
	if err != nil {
		return nil, err
	}
	return saccade.DetectCandidates(x, y, vx, vy, threshold, minDuration, mergeInterval)
}

func TestDetectCandidates_SingleSaccade(t *testing.T) {
	Convey("Given a fixation with one ramp of 20 samples starting at 150", t, func() {
		x, y := noisyFixation(301)
		addRamp(x, 150, 20, 0.5)

		Convey("When detecting with the default thresholds", func() {
			got, err := detectCandidates(x, y, traceRate, 6, 6, 10)

			Convey("Then exactly one candidate brackets the ramp", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].Onset, ShouldBeBetweenOrEqual, 148, 152)
				So(got[0].Offset, ShouldBeBetweenOrEqual, 168, 172)
				So(got[0].Duration(), ShouldBeGreaterThanOrEqualTo, 6)
			})
		})
	})
}

func TestDetectCandidates_Merging(t *testing.T) {
	Convey("Given two ramps 140 samples apart", t, func() {
		x, y := noisyFixation(301)
		addRamp(x, 60, 20, 0.5)
		addRamp(x, 200, 20, -0.5)

		Convey("When the merge interval is shorter than the gap", func() {
			got, err := detectCandidates(x, y, traceRate, 6, 6, 10)

			Convey("Then both saccades are reported in order", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0].Offset, ShouldBeLessThan, got[1].Onset)
				So(got[0].Onset, ShouldBeBetweenOrEqual, 58, 62)
				So(got[1].Offset, ShouldBeBetweenOrEqual, 218, 222)
			})
		})

		Convey("When the merge interval spans the gap", func() {
			split, err := detectCandidates(x, y, traceRate, 6, 6, 10)
			So(err, ShouldBeNil)
			got, err := detectCandidates(x, y, traceRate, 6, 6, 200)

			Convey("Then they collapse into one span from the first onset to the last offset", func() {
				So(err, ShouldBeNil)
				want := []saccade.Candidate{{Onset: split[0].Onset, Offset: split[1].Offset}}
				So(cmp.Diff(want, got), ShouldBeEmpty)
			})
		})

		Convey("When the merge interval sits on the raw gap", func() {
			split, err := detectCandidates(x, y, traceRate, 6, 6, 10)
			So(err, ShouldBeNil)
			So(split, ShouldHaveLength, 2)
			gap := split[1].Onset - split[0].Offset

			Convey("Then a gap equal to the interval merges", func() {
				got, err := detectCandidates(x, y, traceRate, 6, 6, gap)
				So(err, ShouldBeNil)
				want := []saccade.Candidate{{Onset: split[0].Onset, Offset: split[1].Offset}}
				So(cmp.Diff(want, got), ShouldBeEmpty)
			})

			Convey("Then a gap one sample past the interval stays split", func() {
				got, err := detectCandidates(x, y, traceRate, 6, 6, gap-1)
				So(err, ShouldBeNil)
				So(cmp.Diff(split, got), ShouldBeEmpty)
			})
		})
	})
}

func TestDetectCandidates_Properties(t *testing.T) {
	Convey("Given a constant-velocity linear trace", t, func() {
		// Exactly representable slopes keep every interior velocity identical.
		const n = 51
		x := make([]float64, n)
		y := make([]float64, n)
		for i := range x {
			x[i] = 0.5 * float64(i)
			y[i] = 0.25 * float64(i)
		}

		Convey("Then no candidate is reported", func() {
			got, err := detectCandidates(x, y, 1200, 8, 2, 0)
			So(err, ShouldBeNil)
			So(got, ShouldNotBeNil)
			So(got, ShouldBeEmpty)
		})
	})

	Convey("Given a noisy trace with several ramps", t, func() {
		x, y := noisyFixation(401)
		addRamp(x, 50, 15, 0.4)
		addRamp(y, 130, 25, -0.3)
		addRamp(x, 250, 12, -0.6)
		addRamp(y, 330, 18, 0.5)

		Convey("Then candidates are ascending, disjoint and satisfy the duration floor", func() {
			for _, minDuration := range []int{1, 3, 6, 10} {
				for _, merge := range []int{0, 5, 40} {
					got, err := detectCandidates(x, y, traceRate, 6, minDuration, merge)
					So(err, ShouldBeNil)
					for k, c := range got {
						So(c.Offset, ShouldBeGreaterThan, c.Onset)
						So(c.Offset-c.Onset+1, ShouldBeGreaterThanOrEqualTo, minDuration)
						if k > 0 {
							So(c.Onset, ShouldBeGreaterThan, got[k-1].Offset+merge)
						}
					}
				}
			}
		})

		Convey("Then every span found at a higher threshold lies inside one found at a lower threshold", func() {
			low, err := detectCandidates(x, y, traceRate, 4, 1, 0)
			So(err, ShouldBeNil)
			high, err := detectCandidates(x, y, traceRate, 12, 1, 0)
			So(err, ShouldBeNil)
			So(len(high), ShouldBeGreaterThan, 0)
			for _, h := range high {
				inside := false
				for _, l := range low {
					if l.Onset <= h.Onset && h.Offset <= l.Offset {
						inside = true
					}
				}
				So(inside, ShouldBeTrue)
			}
		})
	})
}

func TestDetectCandidates_Errors(t *testing.T) {
	Convey("Given a constant position trace", t, func() {
		x := make([]float64, 50)
		y := make([]float64, 50)
		for i := range x {
			x[i], y[i] = 3, -2
		}

		Convey("Then the spread is degenerate", func() {
			_, err := detectCandidates(x, y, traceRate, 6, 6, 10)
			So(errors.Is(err, saccade.ErrDegenerateSpread), ShouldBeTrue)
		})
	})

	Convey("Given a valid trace", t, func() {
		x, y := noisyFixation(60)
		vx, vy, err := saccade.EstimateVelocity(x, y, traceRate)
		So(err, ShouldBeNil)

		Convey("When the threshold is not positive", func() {
			_, err := saccade.DetectCandidates(x, y, vx, vy, 0, 6, 10)
			So(errors.Is(err, saccade.ErrInvalidParameter), ShouldBeTrue)
		})

		Convey("When the minimum duration is below one sample", func() {
			_, err := saccade.DetectCandidates(x, y, vx, vy, 6, 0, 10)
			So(errors.Is(err, saccade.ErrInvalidParameter), ShouldBeTrue)
		})

		Convey("When the merge interval is negative", func() {
			_, err := saccade.DetectCandidates(x, y, vx, vy, 6, 6, -1)
			So(errors.Is(err, saccade.ErrInvalidParameter), ShouldBeTrue)
		})

		Convey("When the velocity series is shorter than the positions", func() {
			_, err := saccade.DetectCandidates(x, y, vx[:10], vy, 6, 6, 10)
			So(errors.Is(err, saccade.ErrLengthMismatch), ShouldBeTrue)
		})
	})
}
