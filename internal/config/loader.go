package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read by Load.
const (
	EnvConfigPath = "LOCEM_CONFIG"
	envPrefix     = "LOCEM_"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if LOCEM_CONFIG is set
//  3. env (prefix LOCEM_)
func Load(_ context.Context) (*Config, error) {
	cfg := New()
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// LOCEM_MERGE_INTERVAL -> merge_interval; keys stay flat.
	envProvider := env.ProviderWithValue(envPrefix, ".", envValue)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envValue maps an environment variable to its key. List values are
// comma separated: LOCEM_METRICS_BUCKETS=1,5,25 and
// LOCEM_METRICS_LABELS=site=paris,rig=eyelink.
func envValue(name, value string) (string, interface{}) {
	key := strings.TrimPrefix(strings.ToLower(name), strings.ToLower(envPrefix))
	switch key {
	case "metrics_buckets":
		var out []interface{}
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return key, out
	case "metrics_labels":
		out := make(map[string]interface{})
		for _, pair := range strings.Split(value, ",") {
			k, v, ok := strings.Cut(pair, "=")
			if k = strings.TrimSpace(k); ok && k != "" {
				out[k] = strings.TrimSpace(v)
			}
		}
		return key, out
	}
	return key, value
}
