// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatpanel configuration.
type Config struct {
	Local   LocalConfig   `toml:"local" json:"local"`
	Server  ServerConfig  `toml:"server" json:"server"`
	Panel   PanelConfig   `toml:"panel" json:"panel"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Events  EventsConfig  `toml:"events" json:"events"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// LocalConfig contains the local chat service settings.
type LocalConfig struct {
	OllamaURL string `toml:"ollama_url" json:"ollama_url"`
	Model     string `toml:"model" json:"model"`

	// RequestTimeoutSecs bounds one chat call; the call yields the
	// unreachable reply when it elapses.
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
}

// RequestTimeout returns RequestTimeoutSecs as a duration.
func (l LocalConfig) RequestTimeout() time.Duration {
	return time.Duration(l.RequestTimeoutSecs) * time.Second
}

// ServerConfig contains the HTTP host settings.
type ServerConfig struct {
	Host string `toml:"host" json:"host"`
	Port int    `toml:"port" json:"port"`

	// RateLimitPerMinute is the per-client request budget. Zero disables
	// rate limiting.
	RateLimitPerMinute int `toml:"rate_limit_per_minute" json:"rate_limit_per_minute"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IsLoopback reports whether the server only listens on a loopback address.
// Panels carry no authentication, so anything else exposes them.
func (s ServerConfig) IsLoopback() bool {
	host := strings.ToLower(strings.Trim(s.Host, "[]"))
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

// BaseURL returns the http URL clients use to reach the server.
func (s ServerConfig) BaseURL() string {
	return "http://" + s.Addr()
}

// PanelConfig contains per-panel settings.
type PanelConfig struct {
	QueueSize int `toml:"queue_size" json:"queue_size"`

	// IdleTimeoutSecs closes panels that have no view attached after this
	// long without activity. Zero keeps them open until deleted.
	IdleTimeoutSecs int `toml:"idle_timeout_secs" json:"idle_timeout_secs"`
}

// IdleTimeout returns the idle timeout as a duration.
func (p PanelConfig) IdleTimeout() time.Duration {
	return time.Duration(p.IdleTimeoutSecs) * time.Second
}

// UIConfig contains display preferences.
type UIConfig struct {
	Theme string `toml:"theme" json:"theme"` // "dark" or "light"
}

// EventsConfig configures the optional NATS event stream. An empty NATSURL
// disables it.
type EventsConfig struct {
	NATSURL       string `toml:"nats_url" json:"nats_url"`
	NATSToken     string `toml:"nats_token" json:"nats_token"`
	SubjectPrefix string `toml:"subject_prefix" json:"subject_prefix"`
}

// Enabled reports whether events should be published.
func (e EventsConfig) Enabled() bool {
	return e.NATSURL != ""
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `toml:"level" json:"level"` // debug, info, warn, error
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Local: LocalConfig{
			OllamaURL:          "http://127.0.0.1:11434",
			Model:              "llama3",
			RequestTimeoutSecs: 300,
		},
		Server: ServerConfig{
			Host:               "127.0.0.1",
			Port:               8787,
			RateLimitPerMinute: 120,
		},
		Panel: PanelConfig{
			QueueSize:       32,
			IdleTimeoutSecs: 900,
		},
		UI: UIConfig{
			Theme: "dark",
		},
		Events: EventsConfig{
			SubjectPrefix: "chatpanel",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatpanel configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatpanel"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config directory. It tries TOML first,
// then JSON, and falls back to defaults. Environment overrides are applied
// last.
func Load() (*Config, error) {
	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file. Files ending in
// .json are JSON, anything else TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// SetDefaults fills fields a config file left empty.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Local.OllamaURL == "" {
		c.Local.OllamaURL = d.Local.OllamaURL
	}
	if c.Local.Model == "" {
		c.Local.Model = d.Local.Model
	}
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Panel.QueueSize == 0 {
		c.Panel.QueueSize = d.Panel.QueueSize
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = d.Events.SubjectPrefix
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
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
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if err := validateHTTPURL(c.Local.OllamaURL); err != nil {
		errs = append(errs, ValidationError{Field: "local.ollama_url", Message: err.Error()})
	}
	if strings.TrimSpace(c.Local.Model) == "" {
		errs = append(errs, ValidationError{Field: "local.model", Message: "must not be empty"})
	}
	if c.Local.RequestTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "local.request_timeout_secs",
			Message: fmt.Sprintf("must not be negative, got %d", c.Local.RequestTimeoutSecs),
		})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", c.Server.Port),
		})
	}
	if c.Server.RateLimitPerMinute < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.rate_limit_per_minute",
			Message: fmt.Sprintf("must not be negative, got %d", c.Server.RateLimitPerMinute),
		})
	}

	if c.Panel.QueueSize < 1 || c.Panel.QueueSize > 4096 {
		errs = append(errs, ValidationError{
			Field:   "panel.queue_size",
			Message: fmt.Sprintf("must be between 1 and 4096, got %d", c.Panel.QueueSize),
		})
	}
	if c.Panel.IdleTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "panel.idle_timeout_secs",
			Message: fmt.Sprintf("must not be negative, got %d", c.Panel.IdleTimeoutSecs),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light", c.UI.Theme),
		})
	}

	if c.Events.NATSURL != "" {
		u, err := url.Parse(c.Events.NATSURL)
		if err != nil || u.Host == "" {
			errs = append(errs, ValidationError{Field: "events.nats_url", Message: "must be a URL like nats://host:4222"})
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return errors.New("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - CHATPANEL_OLLAMA_URL: overrides local.ollama_url
//   - CHATPANEL_MODEL: overrides local.model
//   - CHATPANEL_PORT: overrides server.port
//   - CHATPANEL_THEME: overrides ui.theme
//   - CHATPANEL_NATS_URL: overrides events.nats_url
//   - CHATPANEL_NATS_TOKEN: overrides events.nats_token
//   - CHATPANEL_LOG_LEVEL: overrides logging.level
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CHATPANEL_OLLAMA_URL"); v != "" {
		c.Local.OllamaURL = v
	}
	if v := os.Getenv("CHATPANEL_MODEL"); v != "" {
		c.Local.Model = v
	}
	if v := os.Getenv("CHATPANEL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("CHATPANEL_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("CHATPANEL_NATS_URL"); v != "" {
		c.Events.NATSURL = v
	}
	if v := os.Getenv("CHATPANEL_NATS_TOKEN"); v != "" {
		c.Events.NATSToken = v
	}
	if v := os.Getenv("CHATPANEL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// String returns the config as indented JSON with secrets redacted.
func (c *Config) String() string {
	safe := *c
	if safe.Events.NATSToken != "" {
		safe.Events.NATSToken = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
