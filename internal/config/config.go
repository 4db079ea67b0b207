// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/mszinte/locEMexp/internal/domain/saccade"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory window queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the number of remembered window ids.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxResultsLimit caps GET /results?limit.
	MaxResultsLimit int `koanf:"max_results_limit"`

	// Store selects the result store: memory or sqlite.
	Store string `koanf:"store"`

	// SQLitePath is the database file used when Store is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// Detection defaults, overridable per window.
	SamplingRate      float64 `koanf:"sampling_rate"`
	VelocityThreshold float64 `koanf:"velocity_threshold"`
	MinDuration       int     `koanf:"min_duration"`
	MergeInterval     int     `koanf:"merge_interval"`

	// MicrosaccadeAmplitude is the amplitude (deg) at or below which a
	// saccade is flagged as a microsaccade.
	MicrosaccadeAmplitude float64 `koanf:"microsaccade_amplitude"`

	// MaxGapFactor is the largest tolerated timestamp step, in sampling periods.
	MaxGapFactor float64 `koanf:"max_gap_factor"`

	// MetricsEnabled turns the /metrics series on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace and MetricsSubsystem prefix every series name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsBuckets are latency histogram bounds in milliseconds, ascending.
	// Empty keeps the built-in layout.
	MetricsBuckets []float64 `koanf:"metrics_buckets"`

	// MetricsRefreshInterval paces the runtime and queue gauges.
	MetricsRefreshInterval time.Duration `koanf:"metrics_refresh_interval"`

	// MetricsLabels are constant labels on every series.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		QueueSize:             10_000,
		WorkerCount:           runtime.NumCPU() * 2,
		DedupeSize:            50_000,
		MaxResultsLimit:       500,
		Store:                 StoreMemory,
		SQLitePath:            "locem.db",
		SamplingRate:          saccade.DefaultSamplingRate,
		VelocityThreshold:     saccade.DefaultVelocityThreshold,
		MinDuration:           saccade.DefaultMinDuration,
		MergeInterval:         saccade.DefaultMergeInterval,
		MicrosaccadeAmplitude: 1.0,
		MaxGapFactor:          1.0,

		MetricsEnabled:         true,
		MetricsNamespace:       "locem",
		MetricsSubsystem:       "saccades",
		MetricsRefreshInterval: 10 * time.Second,
	}
}

// Params returns the default detection parameters described by c.
func (c *Config) Params() saccade.Params {
	return saccade.Params{
		SamplingRate:      c.SamplingRate,
		VelocityThreshold: c.VelocityThreshold,
		MinDuration:       c.MinDuration,
		MergeInterval:     c.MergeInterval,
	}
}

// Validate reports the first setting the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("addr must not be empty: %w", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("queue_size %d: %w", c.QueueSize, ErrInvalidConfig)
	case c.DedupeSize < 0:
		return fmt.Errorf("dedupe_size %d: %w", c.DedupeSize, ErrInvalidConfig)
	case c.MaxResultsLimit < 1:
		return fmt.Errorf("max_results_limit %d: %w", c.MaxResultsLimit, ErrInvalidConfig)
	case c.MicrosaccadeAmplitude < 0:
		return fmt.Errorf("microsaccade_amplitude %v: %w", c.MicrosaccadeAmplitude, ErrInvalidConfig)
	case c.MaxGapFactor < 1:
		return fmt.Errorf("max_gap_factor %v: %w", c.MaxGapFactor, ErrInvalidConfig)
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path must not be empty: %w", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("store %q: %w", c.Store, ErrInvalidConfig)
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validateMetrics() error {
	for key, name := range map[string]string{"metrics_namespace": c.MetricsNamespace, "metrics_subsystem": c.MetricsSubsystem} {
		if name != "" && !metricName.MatchString(name) {
			return fmt.Errorf("%s %q: %w", key, name, ErrInvalidConfig)
		}
	}
	if c.MetricsRefreshInterval <= 0 {
		return fmt.Errorf("metrics_refresh_interval %v: %w", c.MetricsRefreshInterval, ErrInvalidConfig)
	}
	if !slices.IsSorted(c.MetricsBuckets) || len(slices.Compact(slices.Clone(c.MetricsBuckets))) != len(c.MetricsBuckets) {
		return fmt.Errorf("metrics_buckets %v must be strictly ascending: %w", c.MetricsBuckets, ErrInvalidConfig)
	}
	for name := range c.MetricsLabels {
		if !metricName.MatchString(name) {
			return fmt.Errorf("metrics_labels %q: %w", name, ErrInvalidConfig)
		}
	}
	return nil
}
