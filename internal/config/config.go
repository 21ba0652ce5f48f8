// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration management for the cloudinv TUI.
//
// Configuration is loaded from ~/.cloudinv/config.toml with environment
// variable overrides (CLOUDINV_*) applied on top. Missing files fall back
// to defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/cloudinv-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config is the root configuration for the application.
type Config struct {
	Server  ServerConfig  `toml:"server" json:"server"`
	Auth    AuthConfig    `toml:"auth" json:"auth"`
	Chat    ChatConfig    `toml:"chat" json:"chat"`
	History HistoryConfig `toml:"history" json:"history"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// ServerConfig holds backend connection settings.
type ServerConfig struct {
	// BaseURL is the backend REST base, e.g. "http://localhost:8000".
	BaseURL string `toml:"base_url" json:"base_url"`

	// TimeoutSeconds is the per-request HTTP timeout.
	TimeoutSeconds int `toml:"timeout_seconds" json:"timeout_seconds"`
}

// AuthConfig holds session lifecycle settings.
type AuthConfig struct {
	// RefreshBufferMinutes: refresh proactively when the token expires
	// within this many minutes.
	RefreshBufferMinutes int `toml:"refresh_buffer_minutes" json:"refresh_buffer_minutes"`

	// EncryptSession encrypts the bearer token at rest.
	EncryptSession bool `toml:"encrypt_session" json:"encrypt_session"`
}

// ChatConfig holds chat behavior settings.
type ChatConfig struct {
	// SendsPerMinute caps outgoing chat requests client-side.
	SendsPerMinute int `toml:"sends_per_minute" json:"sends_per_minute"`

	// MaxInputChars limits the input line length.
	MaxInputChars int `toml:"max_input_chars" json:"max_input_chars"`
}

// HistoryConfig controls local conversation history.
type HistoryConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`

	// MaxConversations limits stored transcripts (0 = unlimited).
	MaxConversations int `toml:"max_conversations" json:"max_conversations"`
}

// UIConfig holds display settings.
type UIConfig struct {
	// Theme is "dark", "light", or "auto".
	Theme string `toml:"theme" json:"theme"`

	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`

	// RenderMarkdown renders assistant text through glamour.
	RenderMarkdown bool `toml:"render_markdown" json:"render_markdown"`
}

// LoggingConfig holds debug log settings.
type LoggingConfig struct {
	Debug bool `toml:"debug" json:"debug"`

	// File is the debug log path; empty means <config dir>/debug.log.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		Auth: AuthConfig{
			RefreshBufferMinutes: 5,
			EncryptSession:       true,
		},
		Chat: ChatConfig{
			SendsPerMinute: 30,
			MaxInputChars:  4000,
		},
		History: HistoryConfig{
			Enabled:          true,
			MaxConversations: 100,
		},
		UI: UIConfig{
			Theme:          "auto",
			ShowTimestamps: true,
			RenderMarkdown: true,
		},
		Logging: LoggingConfig{
			Debug: false,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the application config directory (~/.cloudinv).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".cloudinv"), nil
}

// ConfigPath returns the TOML config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the config directory if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file, falling back to defaults when absent, then
// applies environment overrides and validates.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SetDefaults fills zero-valued fields with defaults. Needed after a partial
// TOML file sets only some sections.
func (c *Config) SetDefaults() {
	def := Default()

	if c.Server.BaseURL == "" {
		c.Server.BaseURL = def.Server.BaseURL
	}
	if c.Server.TimeoutSeconds == 0 {
		c.Server.TimeoutSeconds = def.Server.TimeoutSeconds
	}
	if c.Auth.RefreshBufferMinutes == 0 {
		c.Auth.RefreshBufferMinutes = def.Auth.RefreshBufferMinutes
	}
	if c.Chat.SendsPerMinute == 0 {
		c.Chat.SendsPerMinute = def.Chat.SendsPerMinute
	}
	if c.Chat.MaxInputChars == 0 {
		c.Chat.MaxInputChars = def.Chat.MaxInputChars
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
}

// ApplyEnvOverrides applies CLOUDINV_* environment variables on top of the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CLOUDINV_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("CLOUDINV_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("CLOUDINV_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("CLOUDINV_DEBUG"); v != "" {
		c.Logging.Debug = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("CLOUDINV_HISTORY"); v != "" {
		c.History.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidateErrors aggregates multiple validation failures.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Server.BaseURL == "" {
		errs = append(errs, ValidationError{"server.base_url", "must not be empty"})
	} else if !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		errs = append(errs, ValidationError{"server.base_url", "must start with http:// or https://"})
	}

	if c.Server.TimeoutSeconds < 1 || c.Server.TimeoutSeconds > 600 {
		errs = append(errs, ValidationError{"server.timeout_seconds", "must be between 1 and 600"})
	}

	if c.Auth.RefreshBufferMinutes < 0 || c.Auth.RefreshBufferMinutes > 60 {
		errs = append(errs, ValidationError{"auth.refresh_buffer_minutes", "must be between 0 and 60"})
	}

	if c.Chat.SendsPerMinute < 1 {
		errs = append(errs, ValidationError{"chat.sends_per_minute", "must be at least 1"})
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		errs = append(errs, ValidationError{"ui.theme", "must be one of: dark, light, auto"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default TOML path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# cloudinv configuration\n")
	sb.WriteString("# Edit by hand or set CLOUDINV_* environment variables.\n\n")

	enc := toml.NewEncoder(&sb)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return util.AtomicWriteFile(path, []byte(sb.String()), 0600)
}

// =============================================================================
// GLOBAL SINGLETON
// =============================================================================

var (
	globalMu   sync.RWMutex
	globalCfg  *Config
	globalOnce sync.Once
)

// Global returns the process-wide configuration, loading it on first use.
// A load failure yields defaults rather than a nil config.
func Global() *Config {
	globalOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		globalMu.Lock()
		globalCfg = cfg
		globalMu.Unlock()
	})

	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}

// SetGlobal replaces the global configuration.
func SetGlobal(cfg *Config) {
	globalOnce.Do(func() {})
	globalMu.Lock()
	globalCfg = cfg
	globalMu.Unlock()
}

// ResetGlobalForTesting clears the global config so tests start fresh.
func ResetGlobalForTesting() {
	globalMu.Lock()
	globalCfg = Default()
	globalMu.Unlock()
	globalOnce.Do(func() {})
}
