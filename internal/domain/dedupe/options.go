package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*windowSet)

// WithMaxSize sets how many window IDs are remembered. Once full, the
// oldest ID is forgotten first. Zero or negative means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *windowSet) {
		d.maxSize = maxSize
	}
}
