// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"carecost/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Rules contains rule store configuration
	Rules RulesConfig `json:"rules"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// RulesConfig contains rule store settings
type RulesConfig struct {
	// Directory holds the per-unit rule files (*.hcl)
	Directory string `json:"directory"`

	// DefaultUnit is the unit code used when a request names none
	DefaultUnit string `json:"default_unit"`

	// SeedMissing writes the seeded default rule file for unknown units
	SeedMissing bool `json:"seed_missing"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr"`

	// ReadTimeoutSeconds bounds request reads
	ReadTimeoutSeconds int `json:"read_timeout_seconds"`

	// WriteTimeoutSeconds bounds response writes
	WriteTimeoutSeconds int `json:"write_timeout_seconds"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format (table, json)
	DefaultFormat string `json:"default_format"`

	// ShowBreakdown renders the full line-item breakdown
	ShowBreakdown bool `json:"show_breakdown"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Version: "1",
		Rules: RulesConfig{
			Directory:   "rules",
			DefaultUnit: "hq",
			SeedMissing: false,
		},
		Server: ServerConfig{
			Addr:                ":8080",
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 30,
		},
		Output: OutputConfig{
			DefaultFormat: "table",
			ShowBreakdown: true,
		},
		Logging: logging.DefaultConfig(),
	}
}

var current = Default()

// Get returns the current configuration
func Get() *Config {
	return current
}

// Set replaces the current configuration
func Set(cfg *Config) {
	current = cfg
}

// Load reads configuration from a JSON file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault looks for a config file in the conventional locations
// and falls back to defaults when none exists.
func LoadDefault() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		return Default()
	}
	path := filepath.Join(home, ".carecost.json")
	if _, err := os.Stat(path); err != nil {
		return Default()
	}
	cfg, err := Load(path)
	if err != nil {
		logging.Sugar.Warnw("failed to load config file, using defaults", "path", path, "error", err)
		return Default()
	}
	return cfg
}
