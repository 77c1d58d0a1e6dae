package config

// Package config loads and persists the client configuration. Settings live in
// a JSON file under the user config directory and individual values can be
// overridden through PZL_* environment variables, which is how CI and the
// deployed environments inject the API endpoint and Cognito identifiers.

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	DefaultEndpoint   = "http://localhost:8000"
	DefaultWebBaseURL = "http://localhost:5173"
	DefaultUserID     = "anonymous"
)

type Config struct {
	Endpoint    string `json:"endpoint"`      // Base URL of the puzzle API
	WebBaseURL  string `json:"web_base_url"`  // Base URL of the web frontend, used for QR links
	HTTPTimeout string `json:"http_timeout"`  // Timeout for API calls, duration string

	// Identity provider (Cognito). Leaving pool/client empty runs the client
	// in anonymous mode with UserID as the fixed owner id.
	Region     string `json:"region"`
	UserPoolID string `json:"user_pool_id"`
	ClientID   string `json:"client_id"`
	UserID     string `json:"user_id"`

	// Watch mode (drop-folder auto upload).
	WatchPath        string  `json:"watch_path"`
	DebounceDuration string  `json:"debounce_duration"`
	MaxDropSizeGB    float64 `json:"max_drop_size_gb"`

	// Local state.
	DeviceID string `json:"device_id"`
	DBPath   string `json:"db_path"`
	LogPath  string `json:"log_path"`
}

// DefaultDir returns the directory holding config, database and log files.
func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = home
	}
	return filepath.Join(base, "pzl")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.json")
}

func defaults() *Config {
	dir := DefaultDir()
	return &Config{
		Endpoint:         DefaultEndpoint,
		WebBaseURL:       DefaultWebBaseURL,
		HTTPTimeout:      "30s",
		UserID:           DefaultUserID,
		WatchPath:        filepath.Join(dir, "drop"),
		DebounceDuration: "500ms",
		MaxDropSizeGB:    1.0,
		DBPath:           filepath.Join(dir, "pzl.db"),
		LogPath:          filepath.Join(dir, "pzl.log"),
	}
}

// Load reads the config file at path, falling back to defaults when the file
// does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)
	return cfg, nil
}

// Save writes the config as indented JSON, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}

// AuthConfigured reports whether the identity provider can be used.
// Absence is not an error: the client falls back to anonymous mode.
func (c *Config) AuthConfigured() bool {
	return c.UserPoolID != "" && c.ClientID != ""
}

func applyEnv(cfg *Config) {
	setIfPresent := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setIfPresent("PZL_API_BASE_URL", &cfg.Endpoint)
	setIfPresent("PZL_WEB_BASE_URL", &cfg.WebBaseURL)
	setIfPresent("PZL_COGNITO_REGION", &cfg.Region)
	setIfPresent("PZL_COGNITO_USER_POOL_ID", &cfg.UserPoolID)
	setIfPresent("PZL_COGNITO_CLIENT_ID", &cfg.ClientID)
	setIfPresent("PZL_USER_ID", &cfg.UserID)
	setIfPresent("PZL_WATCH_PATH", &cfg.WatchPath)
}
