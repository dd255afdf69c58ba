package main

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/trackevo/internal/config"
)

// loadConfig resolves --config, --preset and --patch, then applies the flag
// overrides that were set explicitly.
func loadConfig(logger *slog.Logger) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}

	if patchFile != "" {
		p, err := config.LoadPatch(patchFile)
		if err != nil {
			return nil, fmt.Errorf("load patch: %w", err)
		}
		cfg.Evolution = cfg.Evolution.Apply(p)
		logger.Debug("patch applied", "file", patchFile)
	}

	if seed != 0 {
		cfg.Seed = seed
	}
	if cars >= 0 {
		cfg.Cars = cars
	}
	if duration > 0 {
		cfg.Duration = duration
	}
	if profileName != "" {
		cfg.Profile = profileName
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
