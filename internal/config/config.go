// Package config provides configuration management for zipsign with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (ZIPSIGN_* prefix)
//  3. Project config (.zipsign/config.yaml)
//  4. Global config (~/.zipsign/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import other internal packages.
package config

import "time"

// Config is the root configuration structure for zipsign.
type Config struct {
	// Signing contains key selection and key store settings.
	Signing SigningConfig `yaml:"signing" json:"signing" mapstructure:"signing"`

	// Progress contains progress throttling and display settings.
	Progress ProgressConfig `yaml:"progress" json:"progress" mapstructure:"progress"`

	// UI contains presentation settings.
	UI UIConfig `yaml:"ui" json:"ui" mapstructure:"ui"`

	// Metrics contains Prometheus textfile export settings.
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" mapstructure:"metrics"`
}

// SigningConfig contains settings for key selection.
type SigningConfig struct {
	// DefaultKeyMode is used when the caller gives no key mode.
	// A key name or one of auto, auto-testkey, auto-none.
	// Default: "testkey"
	DefaultKeyMode string `yaml:"default_key_mode" json:"default_key_mode" mapstructure:"default_key_mode"`

	// KeyDir is where named keys are stored.
	// Default: empty, meaning ~/.zipsign/keys
	KeyDir string `yaml:"key_dir" json:"key_dir" mapstructure:"key_dir"`

	// AutoCreateKeys generates a missing key on first use instead of failing.
	// Default: true
	AutoCreateKeys bool `yaml:"auto_create_keys" json:"auto_create_keys" mapstructure:"auto_create_keys"`
}

// ProgressConfig contains progress notification settings.
type ProgressConfig struct {
	// ThrottleInterval is the minimum spacing of ordinary progress updates.
	// Default: 500ms
	ThrottleInterval time.Duration `yaml:"throttle_interval" json:"throttle_interval" mapstructure:"throttle_interval"`

	// CompletePercent is the value that always passes the throttle.
	// Default: 100, Valid range: 1-100
	CompletePercent int `yaml:"complete_percent" json:"complete_percent" mapstructure:"complete_percent"`

	// ShowItems forwards per-entry labels.
	// Default: true
	ShowItems bool `yaml:"show_items" json:"show_items" mapstructure:"show_items"`

	// QueueSize is the buffer of the worker message channel.
	// Default: 64, Valid range: 1-4096
	QueueSize int `yaml:"queue_size" json:"queue_size" mapstructure:"queue_size"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Mode is auto, tui or plain.
	// Default: "auto"
	Mode string `yaml:"mode" json:"mode" mapstructure:"mode"`
}

// MetricsConfig contains Prometheus export settings.
type MetricsConfig struct {
	// Textfile is the path the metrics are written to after each run.
	// Default: empty (disabled)
	Textfile string `yaml:"textfile" json:"textfile" mapstructure:"textfile"`
}
