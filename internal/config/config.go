// Package config loads agent configuration from YAML with environment
// variable overrides for credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Pied Piper configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Search backends
	Search SearchConfig `yaml:"search"`

	// General-conversation fallback model
	LLM LLMConfig `yaml:"llm"`

	// Per-session knowledge cache
	Cache CacheConfig `yaml:"cache"`

	// Session defaults
	Session SessionConfig `yaml:"session"`

	// Play command delivery
	Playback PlaybackConfig `yaml:"playback"`

	// Turn audit trail
	Trace TraceConfig `yaml:"trace"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// SearchConfig configures the web and video search backends.
type SearchConfig struct {
	WebAPIKey     string `yaml:"web_api_key"`
	WebEndpoint   string `yaml:"web_endpoint"`
	VideoAPIKey   string `yaml:"video_api_key"`
	VideoEndpoint string `yaml:"video_endpoint"`
	Timeout       string `yaml:"timeout"`
	MaxResults    int    `yaml:"max_results"`
}

// LLMConfig configures the fallback conversation model.
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// CacheConfig bounds the in-memory knowledge cache.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// SessionConfig sets per-session defaults.
type SessionConfig struct {
	DefaultLanguage string `yaml:"default_language"`
}

// PlaybackConfig selects how play commands reach the listener.
type PlaybackConfig struct {
	Mode     string `yaml:"mode"` // log, browser
	Headless bool   `yaml:"headless"`
}

// TraceConfig configures the turn audit store.
type TraceConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "piedpiper",
		Version: "1.0.0",

		Search: SearchConfig{
			Timeout:    "5s",
			MaxResults: 10,
		},

		LLM: LLMConfig{
			Model: "gemini-2.0-flash",
		},

		Cache: CacheConfig{
			MaxEntries: 256,
		},

		Session: SessionConfig{
			DefaultLanguage: "en",
		},

		Playback: PlaybackConfig{
			Mode:     "log",
			Headless: false,
		},

		Trace: TraceConfig{
			Enabled:      true,
			DatabasePath: "data/piedpiper_trace.db",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults;
// environment variables override credentials either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("SERPAPI_KEY"); key != "" {
		c.Search.WebAPIKey = key
	}
	if key := os.Getenv("YOUTUBE_API_KEY"); key != "" {
		c.Search.VideoAPIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if lang := os.Getenv("PIPER_LANGUAGE"); lang != "" {
		c.Session.DefaultLanguage = lang
	}
	if mode := os.Getenv("PIPER_PLAYBACK"); mode != "" {
		c.Playback.Mode = mode
	}
}

// SearchTimeout parses the configured search timeout, falling back to five
// seconds on bad input.
func (c *Config) SearchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Search.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
