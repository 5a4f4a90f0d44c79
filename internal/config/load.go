package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/zipsign/internal/constants"
	"github.com/mrz1836/zipsign/internal/errors"
)

// newViper returns a Viper reading ZIPSIGN_* variables over the defaults.
// SIGNING_KEY_DIR style names map onto dotted keys.
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// mergeFiles layers each existing file over v in order; later files win.
// Empty or missing paths are skipped.
func mergeFiles(v *viper.Viper, paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if stderrors.As(err, &notFound) {
				continue
			}
			return errors.Wrapf(err, "failed to read config file %s", path)
		}
	}
	return nil
}

// decode unmarshals v and validates the result.
func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load builds the configuration from defaults, the global file, the
// project file and ZIPSIGN_* variables, lowest precedence first.
// Missing files are not an error.
func Load(ctx context.Context) (*Config, error) {
	global, _ := GlobalConfigPath() //nolint:errcheck // no home directory means no global file

	cfg, err := LoadFromPaths(ctx, ProjectConfigPath(), global)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("component", "config").
		Str("signing.default_key_mode", cfg.Signing.DefaultKeyMode).
		Dur("progress.throttle_interval", cfg.Progress.ThrottleInterval).
		Str("ui.mode", cfg.UI.Mode).
		Msg("configuration loaded")
	return cfg, nil
}

// LoadWithOverrides loads the configuration and then applies the non-zero
// fields of overrides, which carry CLI flag values. Booleans cannot be
// turned off this way; callers set them directly when the flag changed.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}
	if overrides == nil {
		return cfg, nil
	}

	applyOverrides(cfg, overrides)
	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}
	return cfg, nil
}

// LoadFromPaths loads the configuration from explicit files. Either path
// may be empty.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViper()
	if err := mergeFiles(v, globalConfigPath, projectConfigPath); err != nil {
		return nil, err
	}
	return decode(v)
}

// setDefaults registers every default on v.
// Keys must match the YAML tag names exactly.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("signing.default_key_mode", d.Signing.DefaultKeyMode)
	v.SetDefault("signing.key_dir", d.Signing.KeyDir)
	v.SetDefault("signing.auto_create_keys", d.Signing.AutoCreateKeys)

	v.SetDefault("progress.throttle_interval", d.Progress.ThrottleInterval.String())
	v.SetDefault("progress.complete_percent", d.Progress.CompletePercent)
	v.SetDefault("progress.show_items", d.Progress.ShowItems)
	v.SetDefault("progress.queue_size", d.Progress.QueueSize)

	v.SetDefault("ui.mode", d.UI.Mode)

	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}

// applyOverrides merges non-zero override values into cfg.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Signing.DefaultKeyMode != "" {
		cfg.Signing.DefaultKeyMode = overrides.Signing.DefaultKeyMode
	}
	if overrides.Signing.KeyDir != "" {
		cfg.Signing.KeyDir = overrides.Signing.KeyDir
	}
	if overrides.Progress.ThrottleInterval != 0 {
		cfg.Progress.ThrottleInterval = overrides.Progress.ThrottleInterval
	}
	if overrides.Progress.CompletePercent != 0 {
		cfg.Progress.CompletePercent = overrides.Progress.CompletePercent
	}
	if overrides.Progress.QueueSize != 0 {
		cfg.Progress.QueueSize = overrides.Progress.QueueSize
	}
	if overrides.UI.Mode != "" {
		cfg.UI.Mode = overrides.UI.Mode
	}
	if overrides.Metrics.Textfile != "" {
		cfg.Metrics.Textfile = overrides.Metrics.Textfile
	}
}
