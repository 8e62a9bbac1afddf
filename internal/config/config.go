// Package config loads the YAML configuration for the analysis service.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Transcription configures the external word-level transcription service.
type Transcription struct {
	URL string `yaml:"url"`
}

// Cache configures the two cache tiers.
type Cache struct {
	DBPath   string `yaml:"db_path"`
	TTLHours int    `yaml:"ttl_hours"`
}

// Limits bound inputs.
type Limits struct {
	MaxUploadMB int `yaml:"max_upload_mb"`
}

// Root is the full service configuration.
type Root struct {
	Transcription Transcription `yaml:"transcription"`
	Cache         Cache         `yaml:"cache"`
	Limits        Limits        `yaml:"limits"`
}

// Default returns the built-in configuration.
func Default() *Root {
	return &Root{
		Cache:  Cache{DBPath: "videogen_cache.sqlite3", TTLHours: 24},
		Limits: Limits{MaxUploadMB: 10},
	}
}

// Load reads a YAML file over the defaults. An empty path falls back to the
// VIDEOGEN_CONFIG environment variable, then to pure defaults.
func Load(path string) (*Root, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VIDEOGEN_CONFIG")
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Cache.TTLHours <= 0 {
		cfg.Cache.TTLHours = 24
	}
	if cfg.Limits.MaxUploadMB <= 0 {
		cfg.Limits.MaxUploadMB = 10
	}
	return cfg, nil
}
