package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

var (
	ErrNoConfig    = errors.New("config file not found")
	ErrNoAPIKey    = errors.New("api_key not set in config")
	ErrInvalidJSON = errors.New("invalid config JSON")
	ErrBadInterval = errors.New("coalesce_interval_ms must be >= 0")
)

// Config holds the global coder configuration.
type Config struct {
	APIKey             string `json:"api_key"`
	BaseURL            string `json:"base_url"`
	DefaultModel       string `json:"default_model"`
	UpdateThreshold    *int   `json:"update_threshold"`     // Min buffered chars between streamed parameter update events
	CoalesceIntervalMS *int   `json:"coalesce_interval_ms"` // Min interval between document rebuilds for partial updates
	Preview            *bool  `json:"preview"`              // Render pending edits with merge markers until saved (default: true)
}

// Load reads the config from ~/.config/coder/config.json.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(homeDir, ".config", "coder", "config.json")
	return LoadFrom(configPath)
}

// LoadFrom reads the config from a specific path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoConfig
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, ErrInvalidJSON
	}

	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	// Set defaults
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "anthropic/claude-sonnet-4"
	}
	if cfg.UpdateThreshold == nil {
		n := 64
		cfg.UpdateThreshold = &n
	}
	if cfg.CoalesceIntervalMS == nil {
		n := 50
		cfg.CoalesceIntervalMS = &n
	}
	if cfg.Preview == nil {
		t := true
		cfg.Preview = &t
	}
	if *cfg.CoalesceIntervalMS < 0 {
		return nil, ErrBadInterval
	}

	return &cfg, nil
}
