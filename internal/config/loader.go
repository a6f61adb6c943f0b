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
//  1. defaults (New())
//  2. file (YAML) if KEEPSAKE_CONFIG is set
//  3. env (prefix KEEPSAKE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("KEEPSAKE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: KEEPSAKE_ADDR, KEEPSAKE_MAX_MATCHES, ...
	// Map env keys like KEEPSAKE_MAX_MATCHES -> max_matches (flat keys).
	// Underscores are preserved to match koanf tags on the struct.
	envProvider := env.Provider("KEEPSAKE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "keepsake_")
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
	case c.MaxMatches < 1:
		return fmt.Errorf("%w: max_matches must be positive", ErrInvalidConfig)
	case c.MaxWarmupMatches < 0:
		return fmt.Errorf("%w: max_warmup_matches must not be negative", ErrInvalidConfig)
	case c.StreakThreshold < 1:
		return fmt.Errorf("%w: streak_threshold must be positive", ErrInvalidConfig)
	case c.EloK <= 0:
		return fmt.Errorf("%w: elo_k must be positive", ErrInvalidConfig)
	case c.SizeBoost < 0:
		return fmt.Errorf("%w: size_boost must not be negative", ErrInvalidConfig)
	case c.RatioTemperature <= 0:
		return fmt.Errorf("%w: ratio_temperature must be positive", ErrInvalidConfig)
	case c.TopPoolSize < 2:
		return fmt.Errorf("%w: top_pool_size must be at least 2", ErrInvalidConfig)
	}
	return nil
}
