package testwindows

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/mszinte/locEMexp/internal/domain/analysis"
	"github.com/mszinte/locEMexp/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSynthesize(t *testing.T) {
	Convey("Given the window synthesizer", t, func() {
		rng := rand.New(rand.NewPCG(7, 11))

		Convey("When asked for more saccades than the samples can hold", func() {
			g := Synthesize("w", 5, 100, 1000, rng)

			Convey("Then the trace is lengthened", func() {
				So(len(g.Window.X), ShouldEqual, 6*minSpacing)
				So(len(g.Window.Y), ShouldEqual, len(g.Window.X))
				So(g.Window.HasTimestamps(), ShouldBeTrue)
				So(g.Window.HasTrialBounds(), ShouldBeTrue)
				So(g.Expected, ShouldEqual, 5)
			})
		})

		Convey("When the rate is 500 Hz", func() {
			g := Synthesize("w", 1, 400, 500, rng)

			Convey("Then timestamps advance by 2 ms", func() {
				So(g.Window.T[1]-g.Window.T[0], ShouldEqual, 2.0)
				So(g.Window.TrialEnd, ShouldEqual, 2*float64(len(g.Window.T)-1))
			})
		})
	})
}

func TestSynthesizedWindowsAreDetected(t *testing.T) {
	Convey("Given an analyzer with default parameters", t, func() {
		a := analysis.NewWindowAnalyzer()
		rng := rand.New(rand.NewPCG(2024, 1))

		for _, rate := range []float64{500, 1000} {
			for k := 0; k <= 5; k++ {
				Convey(fmt.Sprintf("When a %v Hz window holds %d saccades", rate, k), func() {
					g := Synthesize(fmt.Sprintf("w-%d", k), k, 1000, rate, rng)
					res, err := a.Analyze(context.Background(), g.Window)

					Convey("Then exactly that many are detected", func() {
						So(err, ShouldBeNil)
						So(res.SaccadeCount(), ShouldEqual, k)
						So(res.MicrosaccadeCount(), ShouldEqual, 0)
						if k == 0 {
							So(res.Status, ShouldEqual, model.StatusNoSaccade)
						} else {
							So(res.Status, ShouldEqual, model.StatusSaccade)
						}
						for _, s := range res.Saccades {
							So(s.Amplitude, ShouldBeBetween, minAmplitude-0.1, minAmplitude+amplitudeRange+0.1)
						}
					})
				})
			}
		}
	})
}

func TestPercentile(t *testing.T) {
	Convey("Given latency samples", t, func() {
		So(percentile(nil, 0.5), ShouldEqual, 0)
		So(percentile([]float64{4, 1, 3, 2, 5}, 0.5), ShouldEqual, 3)
		So(percentile([]float64{4, 1, 3, 2, 5}, 0.95), ShouldEqual, 5)
	})
}
