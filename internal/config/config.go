// Package config holds scanmark's run configuration: grading range,
// rotation policy, worker count, raster settings, and output locations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all scanmark configuration.
type Config struct {
	// MaxGrade is the top of the inclusive 0..MaxGrade candidate range the
	// disqualifier codes eliminate from.
	MaxGrade int `yaml:"max_grade"`

	// Autorotate false disables barcode-driven rotation: every page is
	// treated as already upright.
	Autorotate bool `yaml:"autorotate"`

	// Workers bounds concurrent page resolution.
	Workers int `yaml:"workers"`

	// DPI used when rasterizing PDF scan pages.
	DPI float64 `yaml:"dpi"`

	// Scale applied when merging attempt pages into a single sheet.
	Scale float64 `yaml:"scale"`

	// OutputDir receives renamed page images and export artifacts.
	OutputDir string `yaml:"output_dir"`

	// StorePath is the sqlite run store location.
	StorePath string `yaml:"store_path"`

	// UI settings.
	UI UIConfig `yaml:"ui"`
}

// UIConfig configures the interactive surface.
type UIConfig struct {
	// Progress enables the terminal progress bar during batch runs.
	Progress bool `yaml:"progress"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxGrade:   10,
		Autorotate: true,
		Workers:    4,
		DPI:        300,
		Scale:      1.0,
		OutputDir:  "out",
		StorePath:  filepath.Join("out", "scanmark.db"),
		UI:         UIConfig{Progress: true},
	}
}

// Load reads a config file, applies defaults for absent fields, then env
// overrides. A missing file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as yaml.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides lets the environment win over the file for the settings
// that vary per machine.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SCANMARK_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("SCANMARK_STORE"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("SCANMARK_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workers = n
		}
	}
}

// Validate checks the config for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.MaxGrade < 0 {
		return fmt.Errorf("max_grade must be >= 0, got %d", c.MaxGrade)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be > 0, got %g", c.DPI)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("scale must be > 0, got %g", c.Scale)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must be set")
	}
	return nil
}
