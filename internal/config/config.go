// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/darty-tutor/darty/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete darty configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	UI      UIConfig      `toml:"ui"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig describes how to reach the tutor service.
type ServerConfig struct {
	// BaseURL of the tutor service (default: http://localhost:5000)
	BaseURL string `toml:"base_url"`
	// TimeoutSecs bounds non-ask requests; ask requests are bounded only by cancellation
	TimeoutSecs int `toml:"timeout_secs"`
	// RateLimit is the maximum requests per second sent to the server (0 = unlimited)
	RateLimit float64 `toml:"rate_limit"`
}

// StorageConfig selects the durable key/value backend.
type StorageConfig struct {
	// Backend is one of "file", "sqlite", "memory"
	Backend string `toml:"backend"`
	// Dir holds the backend's files (default: ~/.darty/data)
	Dir string `toml:"dir"`
}

// UIConfig contains interface defaults. Persisted preferences win over these.
type UIConfig struct {
	// Language is the default interface language when none is persisted ("ar" or "en")
	Language string `toml:"language"`
	// Theme is the default theme when none is persisted ("light", "dark", or "auto")
	Theme string `toml:"theme"`
	// Mouse enables mouse support (panel dragging)
	Mouse bool `toml:"mouse"`
	// Panel bounds, in terminal columns
	PanelWidth         int `toml:"panel_width"`
	PanelMinWidth      int `toml:"panel_min_width"`
	PanelMaxWidth      int `toml:"panel_max_width"`
	PanelCollapseBelow int `toml:"panel_collapse_below"`
}

// LogConfig controls the file logger.
type LogConfig struct {
	Level string `toml:"level"`
	// Path of the log file (default: ~/.darty/darty.log)
	Path string `toml:"path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultServerURL is where the tutor service listens out of the box.
const DefaultServerURL = "http://localhost:5000"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:     DefaultServerURL,
			TimeoutSecs: 30,
			RateLimit:   4,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
		},
		UI: UIConfig{
			Language:           "",
			Theme:              "auto",
			Mouse:              true,
			PanelWidth:         30,
			PanelMinWidth:      18,
			PanelMaxWidth:      48,
			PanelCollapseBelow: 14,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// SetDefaults fills zero values with defaults and resolves paths under the
// config directory.
func (c *Config) SetDefaults() {
	def := Default()
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = def.Server.BaseURL
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = def.Server.TimeoutSecs
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = def.Storage.Backend
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.UI.PanelWidth == 0 {
		c.UI.PanelWidth = def.UI.PanelWidth
	}
	if c.UI.PanelMinWidth == 0 {
		c.UI.PanelMinWidth = def.UI.PanelMinWidth
	}
	if c.UI.PanelMaxWidth == 0 {
		c.UI.PanelMaxWidth = def.UI.PanelMaxWidth
	}
	if c.UI.PanelCollapseBelow == 0 {
		c.UI.PanelCollapseBelow = def.UI.PanelCollapseBelow
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}

	dir, err := ConfigDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), "darty")
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = filepath.Join(dir, "data")
	}
	if c.Log.Path == "" {
		c.Log.Path = filepath.Join(dir, "darty.log")
	}
}

// ServerTimeout returns the request timeout as a duration.
func (c *Config) ServerTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the darty configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".darty"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the default config file if it exists, then applies environment
// overrides, defaults and validation.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return finish(Default())
	}
	return LoadOrDefault(path)
}

// LoadOrDefault loads path, or the built-in configuration when path does
// not exist yet.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# darty configuration file\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies DARTY_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DARTY_SERVER_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("DARTY_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("DARTY_DATA_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("DARTY_LANG"); v != "" {
		c.UI.Language = v
	}
	if v := os.Getenv("DARTY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "server.base_url",
			Message: fmt.Sprintf("invalid URL %q", c.Server.BaseURL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "server.base_url",
			Message: fmt.Sprintf("unsupported scheme %q, must be http or https", u.Scheme),
		})
	}
	if c.Server.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "server.timeout_secs", Message: "must not be negative"})
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "server.rate_limit", Message: "must not be negative"})
	}

	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.Backend),
		})
	}

	switch strings.ToLower(c.UI.Language) {
	case "", "ar", "en":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.language",
			Message: fmt.Sprintf("invalid language '%s', must be one of: ar, en", c.UI.Language),
		})
	}
	switch strings.ToLower(c.UI.Theme) {
	case "auto", "light", "dark":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, light, dark", c.UI.Theme),
		})
	}

	if c.UI.PanelMinWidth > c.UI.PanelMaxWidth {
		errs = append(errs, ValidationError{Field: "ui.panel_min_width", Message: "must not exceed panel_max_width"})
	}
	if c.UI.PanelCollapseBelow > c.UI.PanelMinWidth {
		errs = append(errs, ValidationError{Field: "ui.panel_collapse_below", Message: "must not exceed panel_min_width"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// GLOBAL CONFIG
// =============================================================================

var (
	globalMu     sync.RWMutex
	globalConfig *Config
)

// Global returns the process-wide configuration, loading it on first use.
// A config that fails to load falls back to defaults.
func Global() *Config {
	globalMu.RLock()
	cfg := globalConfig
	globalMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalConfig == nil {
		loaded, err := Load()
		if err != nil {
			loaded = Default()
			loaded.SetDefaults()
		}
		globalConfig = loaded
	}
	return globalConfig
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the cached global config.
func ResetGlobalForTesting() {
	SetGlobal(nil)
}
