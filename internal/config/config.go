// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for turncapp.
//
// Configuration sources (in order of precedence):
//   - Environment variables (ADVISORY_*, TURNCAPP_*)
//   - A .env file in the working directory
//   - ~/.turncapp/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete turncapp configuration.
type Config struct {
	// Advisory settings for the local text-generation service
	Advisory AdvisoryConfig `toml:"advisory"`

	// Planner settings
	Planner PlannerConfig `toml:"planner"`

	// Watch settings for drop-directory mode
	Watch WatchConfig `toml:"watch"`

	// Export settings
	Export ExportConfig `toml:"export"`

	// Logging settings
	Logging LoggingConfig `toml:"logging"`
}

// AdvisoryConfig configures how the advisory model is reached.
type AdvisoryConfig struct {
	// Endpoint is the service base URL
	Endpoint string `toml:"endpoint"`
	// Model is the default model name
	Model string `toml:"model"`
	// ChatTimeoutSecs bounds interactive chat calls
	ChatTimeoutSecs int `toml:"chat_timeout_secs"`
	// PlanTimeoutSecs bounds one-shot plan-recommendation calls
	PlanTimeoutSecs int `toml:"plan_timeout_secs"`
	// MaxRetries is the retry budget for transient failures; zero means a
	// single attempt with no retries
	MaxRetries int `toml:"max_retries"`
	// Stream requests line-delimited responses and aggregates them
	Stream bool `toml:"stream"`
	// RequestsPerMinute caps the request rate against the service
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// PlannerConfig selects the machining profiles applied to every plan.
type PlannerConfig struct {
	// Material is the workpiece material profile display name
	Material string `toml:"material"`
	// Machine is the lathe machine profile display name
	Machine string `toml:"machine"`
}

// WatchConfig configures drop-directory watch mode.
type WatchConfig struct {
	// Dir is the directory scanned for new feature-summary files
	Dir string `toml:"dir"`
	// Pattern is the glob new files must match (e.g. "*.json")
	Pattern string `toml:"pattern"`
	// SettleMillis is how long a file must be quiet before it is read,
	// so half-written drops are not picked up
	SettleMillis int `toml:"settle_millis"`
}

// ExportConfig configures analysis exports.
type ExportConfig struct {
	// Dir is where JSON exports and text reports are written
	Dir string `toml:"dir"`
	// Pretty indents JSON exports
	Pretty bool `toml:"pretty"`
}

// LoggingConfig configures the application log file.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level"`
	// File is the log path (empty = ~/.turncapp/turncapp.log)
	File string `toml:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Advisory: AdvisoryConfig{
			Endpoint:          "http://127.0.0.1:11434",
			Model:             "phi",
			ChatTimeoutSecs:   180,
			PlanTimeoutSecs:   120,
			MaxRetries:        3,
			Stream:            false,
			RequestsPerMinute: 30,
		},
		Planner: PlannerConfig{
			Material: "Mild Steel (AISI 1018/1020)",
			Machine:  "Generic CNC lathe",
		},
		Watch: WatchConfig{
			Pattern:      "*.json",
			SettleMillis: 500,
		},
		Export: ExportConfig{
			Pretty: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Advisory.Endpoint == "" {
		cfg.Advisory.Endpoint = defaults.Advisory.Endpoint
	}
	if cfg.Advisory.Model == "" {
		cfg.Advisory.Model = defaults.Advisory.Model
	}
	if cfg.Advisory.ChatTimeoutSecs == 0 {
		cfg.Advisory.ChatTimeoutSecs = defaults.Advisory.ChatTimeoutSecs
	}
	if cfg.Advisory.PlanTimeoutSecs == 0 {
		cfg.Advisory.PlanTimeoutSecs = defaults.Advisory.PlanTimeoutSecs
	}
	// MaxRetries is not re-filled: loading starts from Default(), so zero
	// here is an explicit user choice (single attempt, no retries).
	if cfg.Advisory.RequestsPerMinute == 0 {
		cfg.Advisory.RequestsPerMinute = defaults.Advisory.RequestsPerMinute
	}

	if cfg.Planner.Material == "" {
		cfg.Planner.Material = defaults.Planner.Material
	}
	if cfg.Planner.Machine == "" {
		cfg.Planner.Machine = defaults.Planner.Machine
	}

	if cfg.Watch.Pattern == "" {
		cfg.Watch.Pattern = defaults.Watch.Pattern
	}
	if cfg.Watch.SettleMillis == 0 {
		cfg.Watch.SettleMillis = defaults.Watch.SettleMillis
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
}

// =============================================================================
// DURATION HELPERS
// =============================================================================

// ChatTimeout returns the interactive chat timeout.
func (c *AdvisoryConfig) ChatTimeout() time.Duration {
	return time.Duration(c.ChatTimeoutSecs) * time.Second
}

// PlanTimeout returns the one-shot recommendation timeout.
func (c *AdvisoryConfig) PlanTimeout() time.Duration {
	return time.Duration(c.PlanTimeoutSecs) * time.Second
}

// SettleDelay returns how long a dropped file must stay quiet before it is
// read.
func (c *WatchConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleMillis) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the turncapp configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".turncapp"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, a .env file, and the
// environment, applying validation last.
func Load() (*Config, error) {
	// .env values become process env vars before overrides are read;
	// real environment variables still win (godotenv never overwrites).
	_ = godotenv.Load()

	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := loadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if err := loadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# turncapp configuration file")
	fmt.Fprintln(file, "# Generated by turncapp - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - ADVISORY_ENDPOINT: overrides advisory.endpoint
//   - ADVISORY_MODEL: overrides advisory.model
//   - ADVISORY_TIMEOUT: overrides advisory.chat_timeout_secs
//   - ADVISORY_PLAN_TIMEOUT: overrides advisory.plan_timeout_secs
//   - ADVISORY_MAX_RETRIES: overrides advisory.max_retries
//   - ADVISORY_STREAM: set to "1" or "true" to enable streaming
//   - TURNCAPP_MATERIAL: overrides planner.material
//   - TURNCAPP_MACHINE: overrides planner.machine
//   - TURNCAPP_WATCH_DIR: overrides watch.dir
//   - TURNCAPP_EXPORT_DIR: overrides export.dir
//   - TURNCAPP_LOG_LEVEL: overrides logging.level
func (c *Config) ApplyEnvOverrides() {
	if endpoint := os.Getenv("ADVISORY_ENDPOINT"); endpoint != "" {
		c.Advisory.Endpoint = endpoint
	}
	if model := os.Getenv("ADVISORY_MODEL"); model != "" {
		c.Advisory.Model = model
	}
	if secs := envInt("ADVISORY_TIMEOUT"); secs > 0 {
		c.Advisory.ChatTimeoutSecs = secs
	}
	if secs := envInt("ADVISORY_PLAN_TIMEOUT"); secs > 0 {
		c.Advisory.PlanTimeoutSecs = secs
	}
	if retries, ok := envIntOK("ADVISORY_MAX_RETRIES"); ok && retries >= 0 {
		c.Advisory.MaxRetries = retries
	}
	if stream := os.Getenv("ADVISORY_STREAM"); stream != "" {
		c.Advisory.Stream = stream == "1" || strings.EqualFold(stream, "true")
	}

	if material := os.Getenv("TURNCAPP_MATERIAL"); material != "" {
		c.Planner.Material = material
	}
	if machine := os.Getenv("TURNCAPP_MACHINE"); machine != "" {
		c.Planner.Machine = machine
	}
	if dir := os.Getenv("TURNCAPP_WATCH_DIR"); dir != "" {
		c.Watch.Dir = dir
	}
	if dir := os.Getenv("TURNCAPP_EXPORT_DIR"); dir != "" {
		c.Export.Dir = dir
	}
	if level := os.Getenv("TURNCAPP_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

func envInt(key string) int {
	v, _ := envIntOK(key)
	return v
}

func envIntOK(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
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

	parsed, err := url.Parse(c.Advisory.Endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "advisory.endpoint",
			Message: fmt.Sprintf("invalid URL '%s'", c.Advisory.Endpoint),
		})
	}
	if c.Advisory.ChatTimeoutSecs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "advisory.chat_timeout_secs",
			Message: "must be positive",
		})
	}
	if c.Advisory.PlanTimeoutSecs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "advisory.plan_timeout_secs",
			Message: "must be positive",
		})
	}
	if c.Advisory.MaxRetries < 0 {
		errs = append(errs, ValidationError{
			Field:   "advisory.max_retries",
			Message: "cannot be negative",
		})
	}
	if c.Advisory.RequestsPerMinute <= 0 {
		errs = append(errs, ValidationError{
			Field:   "advisory.requests_per_minute",
			Message: "must be positive",
		})
	}

	if c.Watch.SettleMillis < 0 {
		errs = append(errs, ValidationError{
			Field:   "watch.settle_millis",
			Message: "cannot be negative",
		})
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
