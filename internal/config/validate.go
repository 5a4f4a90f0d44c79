package config

import (
	"strings"
	"time"

	"github.com/mrz1836/zipsign/internal/constants"
	"github.com/mrz1836/zipsign/internal/errors"
)

// Limits checked by Validate.
const (
	maxThrottleInterval = time.Minute
	maxQueueSize        = 4096
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - signing.default_key_mode must not be empty or contain path separators
//   - progress.throttle_interval must be between 0 and 1 minute
//   - progress.complete_percent must be between 1 and 100
//   - progress.queue_size must be between 1 and 4096
//   - ui.mode must be auto, tui or plain
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateSigningConfig(&cfg.Signing); err != nil {
		return err
	}
	if err := validateProgressConfig(&cfg.Progress); err != nil {
		return err
	}
	return validateUIConfig(&cfg.UI)
}

func validateSigningConfig(cfg *SigningConfig) error {
	mode := strings.TrimSpace(cfg.DefaultKeyMode)
	if mode == "" {
		return errors.Wrap(errors.ErrConfigInvalidSigning,
			"signing.default_key_mode must not be empty")
	}
	if strings.ContainsAny(mode, `/\`) {
		return errors.Wrapf(errors.ErrConfigInvalidSigning,
			"signing.default_key_mode must be a key name, got %q", cfg.DefaultKeyMode)
	}
	return nil
}

func validateProgressConfig(cfg *ProgressConfig) error {
	if cfg.ThrottleInterval < 0 || cfg.ThrottleInterval > maxThrottleInterval {
		return errors.Wrapf(errors.ErrConfigInvalidProgress,
			"progress.throttle_interval must be between 0s and %s, got %s",
			maxThrottleInterval, cfg.ThrottleInterval)
	}
	if cfg.CompletePercent < 1 || cfg.CompletePercent > constants.CompletePercent {
		return errors.Wrapf(errors.ErrConfigInvalidProgress,
			"progress.complete_percent must be between 1 and %d, got %d",
			constants.CompletePercent, cfg.CompletePercent)
	}
	if cfg.QueueSize < 1 || cfg.QueueSize > maxQueueSize {
		return errors.Wrapf(errors.ErrConfigInvalidProgress,
			"progress.queue_size must be between 1 and %d, got %d", maxQueueSize, cfg.QueueSize)
	}
	return nil
}

func validateUIConfig(cfg *UIConfig) error {
	switch cfg.Mode {
	case constants.UIModeAuto, constants.UIModeTUI, constants.UIModePlain:
		return nil
	default:
		return errors.Wrapf(errors.ErrConfigInvalidUI,
			"ui.mode must be one of auto, tui, plain; got %q", cfg.Mode)
	}
}
