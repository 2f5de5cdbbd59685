// Package config loads runtime configuration for the capsync agent.
//
// Sources & precedence:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the capsync agent.
//
// Fields:
//   - BackendAddr: base URL of the session-URI API (e.g. http://127.0.0.1:8080).
//   - VideoStorageRoot: directory containing one subdirectory per recording folder.
//   - StateFilePath: path of the persisted JSON state document. A sibling
//     ".lock" file guards cross-process access.
//   - TokenFilePath: path of the bearer token file written by `login`.
//   - SessionURIValidity: how long a fetched session-URI set is reused.
//   - LockRetryBudget: how long Load/Save keep retrying the state lock.
type Config struct {
	BackendAddr        string
	VideoStorageRoot   string
	StateFilePath      string
	TokenFilePath      string
	SessionURIValidity time.Duration
	LockRetryBudget    time.Duration
}

// LoadDefaults populates c with sensible defaults. Paths land under the
// user's config dir, falling back to the working directory.
func (c *Config) LoadDefaults() {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	appDir := filepath.Join(base, "capsync")

	c.BackendAddr = "http://127.0.0.1:8080"
	c.VideoStorageRoot = filepath.Join(appDir, "recordings")
	c.StateFilePath = filepath.Join(appDir, "state.json")
	c.TokenFilePath = filepath.Join(appDir, "token")
	c.SessionURIValidity = 7 * 24 * time.Hour
	c.LockRetryBudget = 5 * time.Second
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
