package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/zipsign/internal/constants"
	"github.com/mrz1836/zipsign/internal/errors"
)

// GlobalConfigDir returns the global zipsign directory.
// ZIPSIGN_HOME takes precedence; otherwise it is ~/.zipsign.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigDir() (string, error) {
	if dir := os.Getenv(constants.HomeEnvVar); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.Home), nil
}

// ProjectConfigDir returns the relative path to the project configuration directory.
func ProjectConfigDir() string {
	return constants.Home
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.ConfigFileName), nil
}

// ProjectConfigPath returns the relative path to the project configuration file.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), constants.ConfigFileName)
}

// KeyDir returns the configured key directory, or the default under the
// global directory when none is set.
func KeyDir(cfg *Config) (string, error) {
	if cfg != nil && cfg.Signing.KeyDir != "" {
		return cfg.Signing.KeyDir, nil
	}
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.KeysDir), nil
}

// LogDir returns the directory of the rotating CLI log.
func LogDir() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.LogsDir), nil
}
