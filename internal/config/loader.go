package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. ECONCAL_DELAY_MIN.
const EnvPrefix = "ECONCAL_"

// Load builds a Config by layering defaults, an optional YAML file and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) from path, or ECONCAL_CONFIG when path is empty
//  3. env (prefix ECONCAL_)
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", ErrLoadConfig, path, err)
		}
	}

	// ECONCAL_DAYS_PER_CHUNK -> days_per_chunk; keys stay flat.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: reading environment: %w", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
