package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, "testkey", cfg.Signing.DefaultKeyMode)
	assert.True(t, cfg.Signing.AutoCreateKeys)
	assert.Empty(t, cfg.Signing.KeyDir)
	assert.Equal(t, 500*time.Millisecond, cfg.Progress.ThrottleInterval)
	assert.Equal(t, 100, cfg.Progress.CompletePercent)
	assert.True(t, cfg.Progress.ShowItems)
	assert.Equal(t, 64, cfg.Progress.QueueSize)
	assert.Equal(t, "auto", cfg.UI.Mode)
	assert.Empty(t, cfg.Metrics.Textfile)
}

func TestConfig_YAMLKeys(t *testing.T) {
	t.Parallel()

	out, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)

	for _, key := range []string{
		"signing:", "default_key_mode: testkey", "auto_create_keys: true",
		"progress:", "throttle_interval:", "complete_percent: 100", "show_items: true", "queue_size: 64",
		"ui:", "mode: auto", "metrics:", "textfile:",
	} {
		assert.Contains(t, string(out), key)
	}
}
