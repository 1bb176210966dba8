// Package config loads runtime configuration for the workflow CLI.
//
// Sources & precedence:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags:
//
//	-d string   storage root directory
//	-t int      secure cache TTL in seconds
package config

import "time"

// Config holds runtime settings for the workflow CLI.
//
// Fields:
//   - StorageDir: directory holding the encrypted database, meta file, and
//     auxiliary storage.
//   - CacheTTL: how long secure cache entries stay valid.
type Config struct {
	StorageDir string
	CacheTTL   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StorageDir = "workflow-data"
	c.CacheTTL = 15 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
