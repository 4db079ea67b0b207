package testwindows

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/mszinte/locEMexp/internal/domain/model"
	"github.com/mszinte/locEMexp/pkg/logger"
)

// Shape of the synthetic gaze trace.
const (
	jitterAmplitude = 0.01 // deg
	rampSamples     = 20
	minAmplitude    = 3.0 // deg
	amplitudeRange  = 7.0 // deg
	minSpacing      = 80  // samples between ramp onsets
)

// Generated is a synthetic window and the number of saccades put into it.
type Generated struct {
	Window   model.Window
	Expected int
}

// Synthesize builds a fixation trace with a small deterministic jitter and
// saccades linear ramps of 20 samples each, evenly spaced and pointing in
// random directions. The trace is at least samples long and always has room
// for every ramp.
func Synthesize(id string, saccades, samples int, rate float64, rng *rand.Rand) Generated {
	saccades = max(saccades, 0)
	n := max(samples, (saccades+1)*minSpacing)
	spacing := n / (saccades + 1)

	x := make([]float64, n)
	y := make([]float64, n)
	t := make([]float64, n)
	period := 1000 / rate

	var baseX, baseY float64
	next := spacing
	var stepX, stepY float64
	left := 0
	for i := range n {
		if i == next && left == 0 && next < n-rampSamples {
			amp := minAmplitude + rng.Float64()*amplitudeRange
			dir := rng.Float64() * 2 * math.Pi
			stepX = amp * math.Cos(dir) / rampSamples
			stepY = amp * math.Sin(dir) / rampSamples
			left = rampSamples
			next += spacing
		}
		if left > 0 {
			baseX += stepX
			baseY += stepY
			left--
		}
		x[i] = baseX + jitterAmplitude*math.Sin(2.3*float64(i))
		y[i] = baseY + jitterAmplitude*math.Cos(1.9*float64(i))
		t[i] = float64(i) * period
	}

	return Generated{
		Window: model.Window{
			WindowID:     id,
			Subject:      "synthetic",
			Trial:        1,
			SamplingRate: rate,
			T:            t,
			X:            x,
			Y:            y,
			TrialStart:   0,
			TrialEnd:     t[n-1],
		},
		Expected: saccades,
	}
}

// generateWindows creates NumWindows windows with 0..MaxSaccades saccades each.
func generateWindows(ctx context.Context, config *Config, stats *Stats) ([]Generated, error) {
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	logger.Get().Info(ctx, "generating windows",
		logger.Int("numWindows", config.NumWindows),
		logger.Any("seed", seed),
	)

	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	out := make([]Generated, 0, config.NumWindows)
	for i := 0; i < config.NumWindows; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		id := "tw-" + uuid.NewString()
		g := Synthesize(id, rng.IntN(config.MaxSaccades+1), config.Samples, config.SamplingRate, rng)
		g.Window.Trial = i + 1
		out = append(out, g)
		stats.SaccadesExpected += g.Expected
	}

	stats.WindowsGenerated = len(out)
	logger.Get().Info(ctx, "generated windows", logger.Int("count", len(out)))
	return out, nil
}
