package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the NebulaRun CLI.
//
// Fields:
//   - BaseURL: root of the backend REST API.
//   - APIKey: anonymous key sent in the apikey header of every request.
//   - DataDir: directory holding the offline database (JSON tables and the
//     settings store).
//   - RequestTimeout: per-request HTTP timeout.
//   - OnlineCheckInterval: how often the client probes backend reachability.
type Config struct {
	BaseURL             string
	APIKey              string
	DataDir             string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults. The data directory lands
// in the user config dir, falling back to the working directory when the OS
// does not report one.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://127.0.0.1:54321"
	c.APIKey = ""
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 5 * time.Second

	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	c.DataDir = filepath.Join(base, "nebularun")
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
