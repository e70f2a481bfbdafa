package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	OutputDir       string  `toml:"output_dir"`
	Concurrency     int     `toml:"concurrency"`
	MaxRetries      int     `toml:"max_retries"`
	RetryCooldown   float64 `toml:"retry_cooldown_seconds"`
	RetryExponent   float64 `toml:"retry_exponent"`
	LoopGuardRounds int     `toml:"loop_guard_rounds"`

	// Skip-on-exists: tolerated relative size difference when a size hint
	// is available for an already-downloaded file.
	AllowedFileSizeDifference float64 `toml:"allowed_file_size_difference"`

	// VerifyImages probes downloaded photo bytes for a decodable image
	// header before moving them into place.
	VerifyImages bool `toml:"verify_images"`

	// HTTP settings
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	UserAgent             string `toml:"user_agent"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		OutputDir:       ".",
		Concurrency:     4,
		MaxRetries:      3,
		RetryCooldown:   0.5,
		RetryExponent:   2.0,
		LoopGuardRounds: 2,

		AllowedFileSizeDifference: 0.05,
		VerifyImages:              false,

		RequestTimeoutSeconds: 60,
		// The share host serves a different page shape to non-browser
		// agents, so the fetcher identifies as desktop Chrome.
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	}
}

// DefaultConfigPath returns the default config file location,
// $HOME/.gphoto-get/config.toml.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".gphoto-get", "config.toml")
}

// Load reads settings from a TOML file. A missing file yields defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a TOML file, creating parent directories.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks settings for values the pipeline cannot work with.
func (s *Settings) Validate() error {
	if s.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", s.Concurrency)
	}
	// MaxRetries bounds total attempts, so zero would mean no download is
	// ever attempted while still reporting success.
	if s.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", s.MaxRetries)
	}
	if s.LoopGuardRounds < 1 {
		return fmt.Errorf("loop_guard_rounds must be at least 1, got %d", s.LoopGuardRounds)
	}
	if s.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("request_timeout_seconds must be at least 1, got %d", s.RequestTimeoutSeconds)
	}
	return nil
}

// RequestTimeout returns the HTTP request timeout as a duration.
func (s *Settings) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}
