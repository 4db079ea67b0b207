package analysis

import "github.com/mszinte/locEMexp/internal/domain/saccade"

// Option applies a configuration option to the WindowAnalyzer.
type Option func(*WindowAnalyzer)

// WithParams sets the default detection parameters. Invalid values are
// ignored.
func WithParams(p saccade.Params) Option {
	return func(a *WindowAnalyzer) {
		if p.Validate() == nil {
			a.params = p
		}
	}
}

// WithMicrosaccadeAmplitude sets the amplitude at or below which an event
// is flagged as a microsaccade.
func WithMicrosaccadeAmplitude(amplitude float64) Option {
	return func(a *WindowAnalyzer) {
		if amplitude >= 0 {
			a.microsaccadeAmplitude = amplitude
		}
	}
}

// WithMaxGapFactor sets how many sampling periods two consecutive
// timestamps may be apart before the window counts as missing samples.
func WithMaxGapFactor(factor float64) Option {
	return func(a *WindowAnalyzer) {
		if factor >= 1 {
			a.maxGapFactor = factor
		}
	}
}

// WithBlinkBuffer sets the width, in ms, of the interval centred on blink
// edges within which saccades are flagged as blink adjacent.
func WithBlinkBuffer(ms float64) Option {
	return func(a *WindowAnalyzer) {
		if ms >= 0 {
			a.blinkBuffer = ms
		}
	}
}
