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

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if CARELENS_CONFIG is set
//  3. env (prefix CARELENS_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("CARELENS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: CARELENS_ADDR, CARELENS_DATA_DIR, ...
	// Keys map like CARELENS_DATA_DIR -> data_dir (flat keys, underscores
	// preserved to match the koanf tags on the struct).
	envProvider := env.Provider("CARELENS_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "carelens_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case c.ScoredFile == "" || c.QCFile == "":
		return fmt.Errorf("%w: source file names must not be empty", ErrInvalidConfig)
	case c.FixedLowThreshold >= c.FixedHighThreshold:
		return fmt.Errorf("%w: fixed_low_threshold must be below fixed_high_threshold", ErrInvalidConfig)
	case c.LowActivityMinutes <= 0:
		return fmt.Errorf("%w: low_activity_minutes must be positive", ErrInvalidConfig)
	case c.MaxReportRows <= 0:
		return fmt.Errorf("%w: max_report_rows must be positive", ErrInvalidConfig)
	}
	return nil
}
