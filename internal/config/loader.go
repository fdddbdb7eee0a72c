package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	envPrefix = "PELOTON_"
	envConfig = "PELOTON_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PELOTON_CONFIG is set
//  3. env (prefix PELOTON_; nested keys use "__", e.g. PELOTON_SCORING__OUTLIER_Z)
func Load(_ context.Context) (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads a .env file into the process environment when one exists.
// A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: dotenv: %w", ErrLoadConfig, err)
	}
	return nil
}

// Validate checks field ranges and threshold ordering.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DataFile) == "":
		return fmt.Errorf("%w: data_file must not be empty", ErrInvalidConfig)
	case c.CacheTTLDays <= 0:
		return fmt.Errorf("%w: cache_ttl_days must be positive", ErrInvalidConfig)
	case c.ResultsLimit <= 0:
		return fmt.Errorf("%w: results_limit must be positive", ErrInvalidConfig)
	case c.MaxRidersLimit <= 0:
		return fmt.Errorf("%w: max_riders_limit must be positive", ErrInvalidConfig)
	case c.ReloadQueueSize <= 0:
		return fmt.Errorf("%w: reload_queue_size must be positive", ErrInvalidConfig)
	case !(c.Scoring.EliteZ > c.Scoring.StrongZ && c.Scoring.StrongZ > c.Scoring.AverageZ):
		return fmt.Errorf("%w: scoring thresholds must satisfy elite_z > strong_z > average_z", ErrInvalidConfig)
	case c.Scoring.OutlierZ <= 0:
		return fmt.Errorf("%w: scoring.outlier_z must be positive", ErrInvalidConfig)
	}
	return nil
}
