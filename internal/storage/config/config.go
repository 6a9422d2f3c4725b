// Package config loads and saves application settings from a YAML file,
// with XDG-compliant default locations.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// DefaultMaxParallel is the download queue size used when the config does
// not set one.
const DefaultMaxParallel = 4

// Config holds global application settings.
type Config struct {
	GameDir     string `yaml:"game_dir"`
	StorageDir  string `yaml:"storage_dir"`
	DataDir     string `yaml:"data_dir"`
	CatalogURL  string `yaml:"catalog_url"`
	MaxParallel int    `yaml:"max_parallel_downloads"`
	LinkMethod  string `yaml:"link_method"` // "symlink", "copy", or "" for auto
}

// DefaultConfigDir returns the XDG config directory for the application.
func DefaultConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "hangar")
}

// Load reads configuration from configDir, applying defaults for anything
// unset. A missing file yields pure defaults.
func Load(configDir string) (*Config, error) {
	cfg := &Config{
		StorageDir:  filepath.Join(xdg.DataHome, "hangar", "mods"),
		DataDir:     filepath.Join(xdg.DataHome, "hangar"),
		MaxParallel: DefaultMaxParallel,
	}

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultMaxParallel
	}
	return cfg, nil
}

// Save writes the configuration to configDir.
func (c *Config) Save(configDir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
