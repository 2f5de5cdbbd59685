package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/capsync/internal/flagx"
	"github.com/dmitrijs2005/capsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so intervals can be written either as strings like "168h"
// or as integer nanoseconds. Parsed values are copied into the runtime
// Config (which uses time.Duration).
type JsonConfig struct {
	BackendAddr        string         `json:"backend_addr"`
	VideoStorageRoot   string         `json:"video_storage_root"`
	StateFilePath      string         `json:"state_file_path"`
	TokenFilePath      string         `json:"token_file_path"`
	SessionURIValidity timex.Duration `json:"session_uri_validity"`
	LockRetryBudget    timex.Duration `json:"lock_retry_budget"`
}

// parseJson overlays cfg with values from the JSON file named by -c/-config.
// When no file is specified the function is a no-op. Read or unmarshal
// errors panic; the composition root decides whether to recover.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPathFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BackendAddr != "" {
		cfg.BackendAddr = jc.BackendAddr
	}
	if jc.VideoStorageRoot != "" {
		cfg.VideoStorageRoot = jc.VideoStorageRoot
	}
	if jc.StateFilePath != "" {
		cfg.StateFilePath = jc.StateFilePath
	}
	if jc.TokenFilePath != "" {
		cfg.TokenFilePath = jc.TokenFilePath
	}
	if jc.SessionURIValidity.Duration != 0 {
		cfg.SessionURIValidity = time.Duration(jc.SessionURIValidity.Duration)
	}
	if jc.LockRetryBudget.Duration != 0 {
		cfg.LockRetryBudget = time.Duration(jc.LockRetryBudget.Duration)
	}
}
