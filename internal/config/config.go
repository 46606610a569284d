// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for rigchat.
//
// Configuration file locations (in order of precedence):
//   - environment (RIGCHAT_*) and .env
//   - ~/.rigchat/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigchat configuration.
type Config struct {
	Client  ClientConfig  `toml:"client"`
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
	UI      UIConfig      `toml:"ui"`
}

// ClientConfig controls how the chat client reaches the backend.
type ClientConfig struct {
	BackendURL   string   `toml:"backend_url" env:"RIGCHAT_BACKEND_URL"`
	TimeoutSecs  int      `toml:"timeout_secs" env:"RIGCHAT_TIMEOUT_SECS"`
	MaxRetries   int      `toml:"max_retries" env:"RIGCHAT_MAX_RETRIES"`
	RetryDelayMs int      `toml:"retry_delay_ms" env:"RIGCHAT_RETRY_DELAY_MS"`
	DefaultModel string   `toml:"default_model" env:"RIGCHAT_MODEL"`
	Models       []string `toml:"models" env:"RIGCHAT_MODELS" envSeparator:","`
}

// ServerConfig controls the backend service.
type ServerConfig struct {
	ListenAddr          string   `toml:"listen_addr" env:"RIGCHAT_LISTEN_ADDR"`
	RecordsDir          string   `toml:"records_dir" env:"RIGCHAT_RECORDS_DIR"`
	OllamaURL           string   `toml:"ollama_url" env:"RIGCHAT_OLLAMA_URL"`
	UpstreamTimeoutSecs int      `toml:"upstream_timeout_secs" env:"RIGCHAT_UPSTREAM_TIMEOUT_SECS"`
	DefaultModel        string   `toml:"default_model" env:"RIGCHAT_SERVER_MODEL"`
	Models              []string `toml:"models" env:"RIGCHAT_SERVER_MODELS" envSeparator:","`
	WrapCodeReplies     bool     `toml:"wrap_code_replies" env:"RIGCHAT_WRAP_CODE_REPLIES"`
	RateLimitRPS        float64  `toml:"rate_limit_rps" env:"RIGCHAT_RATE_LIMIT_RPS"`
	RateLimitBurst      int      `toml:"rate_limit_burst" env:"RIGCHAT_RATE_LIMIT_BURST"`
	MaxBodyBytes        int64    `toml:"max_body_bytes" env:"RIGCHAT_MAX_BODY_BYTES"`
}

// LoggingConfig controls the zap logger and its rotating file.
type LoggingConfig struct {
	Level      string `toml:"level" env:"RIGCHAT_LOG_LEVEL"`
	File       string `toml:"file" env:"RIGCHAT_LOG_FILE"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxAgeDays int    `toml:"max_age_days"`
	MaxBackups int    `toml:"max_backups"`
	Compress   bool   `toml:"compress"`
}

// UIConfig contains terminal presentation settings.
type UIConfig struct {
	Theme     string `toml:"theme" env:"RIGCHAT_THEME"`
	CodeStyle string `toml:"code_style" env:"RIGCHAT_CODE_STYLE"`
	Markdown  bool   `toml:"markdown" env:"RIGCHAT_MARKDOWN"`
}

// Timeout returns the per-request timeout.
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RetryDelay returns the pause between GET retries.
func (c ClientConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// UpstreamTimeout returns the inference call timeout.
func (s ServerConfig) UpstreamTimeout() time.Duration {
	return time.Duration(s.UpstreamTimeoutSecs) * time.Second
}

// =============================================================================
// DEFAULT VALUES
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			BackendURL:   "http://127.0.0.1:5000",
			TimeoutSecs:  120,
			MaxRetries:   2,
			RetryDelayMs: 500,
			DefaultModel: model.DefaultModel,
			Models:       append([]string(nil), model.DefaultModels...),
		},
		Server: ServerConfig{
			ListenAddr:          "0.0.0.0:5000",
			RecordsDir:          "chat_records",
			OllamaURL:           "http://127.0.0.1:11434",
			UpstreamTimeoutSecs: 300,
			DefaultModel:        model.DefaultModel,
			Models:              append([]string(nil), model.DefaultModels...),
			WrapCodeReplies:     true,
			RateLimitRPS:        5,
			RateLimitBurst:      20,
			MaxBodyBytes:        1 << 20,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxAgeDays: 7,
			MaxBackups: 3,
			Compress:   true,
		},
		UI: UIConfig{
			Theme:     "dark",
			CodeStyle: "monokai",
			Markdown:  true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the rigchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultLogPath returns the log file used when logging.file is unset.
func DefaultLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "rigchat.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.rigchat/config.toml when it exists and
// falls back to defaults otherwise. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	return finish(Default())
}

// LoadFromPath loads configuration from a specific TOML file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides loads a .env file from the working directory (if any)
// and then overlays RIGCHAT_* variables onto the config. Variables already
// set in the process environment win over the .env file.
//
// Supported variables:
//   - RIGCHAT_BACKEND_URL, RIGCHAT_TIMEOUT_SECS, RIGCHAT_MAX_RETRIES
//   - RIGCHAT_MODEL, RIGCHAT_MODELS (comma separated)
//   - RIGCHAT_LISTEN_ADDR, RIGCHAT_RECORDS_DIR, RIGCHAT_OLLAMA_URL
//   - RIGCHAT_SERVER_MODEL, RIGCHAT_SERVER_MODELS
//   - RIGCHAT_LOG_LEVEL, RIGCHAT_LOG_FILE, RIGCHAT_THEME
func (c *Config) ApplyEnvOverrides() error {
	// Missing .env is the common case.
	_ = godotenv.Load()
	return env.Parse(c)
}

// SetDefaults fills zero values that would otherwise fail validation.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Client.BackendURL == "" {
		c.Client.BackendURL = d.Client.BackendURL
	}
	c.Client.BackendURL = strings.TrimRight(c.Client.BackendURL, "/")
	if c.Client.TimeoutSecs == 0 {
		c.Client.TimeoutSecs = d.Client.TimeoutSecs
	}
	if len(c.Client.Models) == 0 {
		c.Client.Models = d.Client.Models
	}
	if c.Client.DefaultModel == "" {
		c.Client.DefaultModel = c.Client.Models[0]
	}

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = d.Server.ListenAddr
	}
	if c.Server.RecordsDir == "" {
		c.Server.RecordsDir = d.Server.RecordsDir
	}
	if c.Server.OllamaURL == "" {
		c.Server.OllamaURL = d.Server.OllamaURL
	}
	if c.Server.UpstreamTimeoutSecs == 0 {
		c.Server.UpstreamTimeoutSecs = d.Server.UpstreamTimeoutSecs
	}
	if len(c.Server.Models) == 0 {
		c.Server.Models = d.Server.Models
	}
	if c.Server.DefaultModel == "" {
		c.Server.DefaultModel = c.Server.Models[0]
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = d.Server.MaxBodyBytes
	}

	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = d.Logging.MaxSizeMB
	}

	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.CodeStyle == "" {
		c.UI.CodeStyle = d.UI.CodeStyle
	}
}

// =============================================================================
// SAVE
// =============================================================================

// SaveTOML writes the configuration to path, creating parent directories.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# rigchat configuration file\n")
	b.WriteString("# Environment variables (RIGCHAT_*) override these values.\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
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

// Validate validates the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Client
	if err := validateHTTPURL(c.Client.BackendURL); err != nil {
		add("client.backend_url", "%v", err)
	}
	if c.Client.TimeoutSecs <= 0 {
		add("client.timeout_secs", "must be positive, got %d", c.Client.TimeoutSecs)
	}
	if c.Client.MaxRetries < 0 || c.Client.MaxRetries > 10 {
		add("client.max_retries", "must be between 0 and 10, got %d", c.Client.MaxRetries)
	}
	if c.Client.RetryDelayMs < 0 {
		add("client.retry_delay_ms", "must not be negative")
	}
	if msg := validateModelSet(c.Client.Models, c.Client.DefaultModel); msg != "" {
		add("client.models", "%s", msg)
	}

	// Server
	if _, _, err := net.SplitHostPort(c.Server.ListenAddr); err != nil {
		add("server.listen_addr", "invalid address '%s': %v", c.Server.ListenAddr, err)
	}
	if strings.TrimSpace(c.Server.RecordsDir) == "" {
		add("server.records_dir", "must not be empty")
	}
	if err := validateHTTPURL(c.Server.OllamaURL); err != nil {
		add("server.ollama_url", "%v", err)
	}
	if c.Server.UpstreamTimeoutSecs <= 0 {
		add("server.upstream_timeout_secs", "must be positive, got %d", c.Server.UpstreamTimeoutSecs)
	}
	if msg := validateModelSet(c.Server.Models, c.Server.DefaultModel); msg != "" {
		add("server.models", "%s", msg)
	}
	if c.Server.RateLimitRPS < 0 {
		add("server.rate_limit_rps", "must not be negative")
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		add("server.rate_limit_burst", "must be at least 1 when rate limiting is enabled")
	}
	if c.Server.MaxBodyBytes < 1024 {
		add("server.max_body_bytes", "must be at least 1024, got %d", c.Server.MaxBodyBytes)
	}

	// Logging
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("logging.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}

	// UI
	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light", "auto":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL '%s': %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL '%s' must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL '%s' has no host", raw)
	}
	return nil
}

func validateModelSet(models []string, def string) string {
	if len(models) == 0 {
		return "at least one model is required"
	}
	seen := make(map[string]bool, len(models))
	for _, m := range models {
		if strings.TrimSpace(m) == "" {
			return "model names must not be blank"
		}
		if seen[m] {
			return fmt.Sprintf("duplicate model '%s'", m)
		}
		seen[m] = true
	}
	if !seen[def] {
		return fmt.Sprintf("default model '%s' is not in the model set", def)
	}
	return ""
}
