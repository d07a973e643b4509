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
//  2. file (YAML) if WEEKLYRANK_CONFIG is set
//  3. env (prefix WEEKLYRANK_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("WEEKLYRANK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: WEEKLYRANK_ADDR, WEEKLYRANK_GRACE_MINUTES, ...
	// Keys map to the koanf struct tags with underscores preserved.
	envProvider := env.Provider("WEEKLYRANK_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "weeklyrank_")
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

// validate rejects configurations the scoring policy cannot run on.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBDriver != "sqlite" && c.DBDriver != "postgres":
		return fmt.Errorf("%w: unknown db_driver %q", ErrInvalidConfig, c.DBDriver)
	case len(c.SlotWeights) == 0:
		return fmt.Errorf("%w: slot_weights must not be empty", ErrInvalidConfig)
	case c.GraceMinutes < 0:
		return fmt.Errorf("%w: grace_minutes must not be negative", ErrInvalidConfig)
	case c.DecayMinutes <= 0:
		return fmt.Errorf("%w: decay_minutes must be positive", ErrInvalidConfig)
	case c.DecayFloor < 0 || c.DecayFloor > 1:
		return fmt.Errorf("%w: decay_floor must be within [0,1]", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.ComputeTimeoutSec <= 0:
		return fmt.Errorf("%w: compute_timeout_sec must be positive", ErrInvalidConfig)
	}
	for slot, w := range c.SlotWeights {
		if w < 0 {
			return fmt.Errorf("%w: negative weight for slot %q", ErrInvalidConfig, slot)
		}
	}
	return nil
}
