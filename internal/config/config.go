// Package config loads seqscan configuration from YAML files and merges it
// with CLI flag overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents seqscan configuration options
type Config struct {
	// Workers is the scan worker pool size (0 = hardware concurrency)
	Workers int `yaml:"workers"`

	// MinLen is the minimum frame count for a sequence to be reported
	MinLen int `yaml:"min_len"`

	// Mask is the default filename filter (exact name or glob pattern)
	Mask string `yaml:"mask"`

	// Recursive enables scanning subdirectories by default
	Recursive bool `yaml:"recursive"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// IndexPath is the scan index database path (empty = indexing disabled)
	IndexPath string `yaml:"index_path"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Workers:   0, // Hardware concurrency
		MinLen:    2,
		Mask:      "",
		Recursive: false,
		LogLevel:  "info",
		IndexPath: "",
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if fileCfg.Workers != 0 {
		cfg.Workers = fileCfg.Workers
	}
	if fileCfg.MinLen != 0 {
		cfg.MinLen = fileCfg.MinLen
	}
	if fileCfg.Mask != "" {
		cfg.Mask = fileCfg.Mask
	}
	if fileCfg.Recursive {
		cfg.Recursive = fileCfg.Recursive
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.IndexPath != "" {
		cfg.IndexPath = fileCfg.IndexPath
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .seqscan/config.yaml in the
// specified directory. A missing directory or file yields defaults.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".seqscan", "config.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values, so CLI flags take
// precedence over config file settings.
func (c *Config) MergeWithFlags(workers *int, minLen *int, mask *string, recursive *bool, indexPath *string) {
	if workers != nil {
		c.Workers = *workers
	}
	if minLen != nil {
		c.MinLen = *minLen
	}
	if mask != nil {
		c.Mask = *mask
	}
	if recursive != nil {
		c.Recursive = *recursive
	}
	if indexPath != nil {
		c.IndexPath = *indexPath
	}
}

// Validate validates the configuration values.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}

	if c.MinLen < 2 {
		return fmt.Errorf("min_len must be >= 2, got %d", c.MinLen)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	return nil
}
