package config

import (
	"github.com/mrz1836/zipsign/internal/constants"
)

// DefaultConfig returns a new Config with default values.
// These defaults are the base layer that config files, environment
// variables, and CLI flags override.
func DefaultConfig() *Config {
	return &Config{
		Signing: SigningConfig{
			DefaultKeyMode: constants.DefaultKeyMode,
			KeyDir:         "",
			AutoCreateKeys: true,
		},
		Progress: ProgressConfig{
			ThrottleInterval: constants.DefaultThrottleInterval,
			CompletePercent:  constants.CompletePercent,
			ShowItems:        constants.DefaultShowProgressItems,
			QueueSize:        constants.DefaultQueueSize,
		},
		UI: UIConfig{
			Mode: constants.UIModeAuto,
		},
	}
}
