package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/zipsign/internal/constants"
)

func TestSelectLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, zerolog.DebugLevel, selectLevel(true, false))
	assert.Equal(t, zerolog.WarnLevel, selectLevel(false, true))
	assert.Equal(t, zerolog.InfoLevel, selectLevel(false, false))
	assert.Equal(t, zerolog.DebugLevel, selectLevel(true, true), "verbose wins")
}

func TestSelectOutput_NonTTY(t *testing.T) {
	// Test binaries run without a terminal on stderr.
	assert.Equal(t, os.Stderr, selectOutput())
}

func TestInitLoggerWithWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := InitLoggerWithWriter(false, true, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("key_name", "release").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry[zerolog.MessageFieldName])
	assert.Equal(t, "release", entry["key_name"])
	assert.Contains(t, entry, zerolog.TimestampFieldName)
}

func TestLogFilePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv(constants.HomeEnvVar, home)

	path, err := LogFilePath()

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, constants.LogsDir, constants.CLILogFileName), path)
}

func TestInitLogger_RedactsKeyMaterialInFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv(constants.HomeEnvVar, home)
	logFileWriter = nil

	logger := InitLogger(false, false)
	secret := strings.Repeat("ab", 32)
	logger.Info().Msg("loaded private_key=" + secret)
	CloseLogFile()

	data, err := os.ReadFile(filepath.Join(home, constants.LogsDir, constants.CLILogFileName)) //#nosec G304 -- test temp dir
	require.NoError(t, err)

	content := string(data)
	assert.NotContains(t, content, secret)
	assert.Contains(t, content, "[REDACTED]")
	assert.Contains(t, content, "loaded")
}

func TestCreateLogFileWriter_FailsOnInvalidPath(t *testing.T) {
	home := t.TempDir()
	blocker := filepath.Join(home, constants.LogsDir)
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o600))
	t.Setenv(constants.HomeEnvVar, home)

	_, err := createLogFileWriter()

	require.Error(t, err)
}

func TestCloseLogFile_NoOpWhenNil(_ *testing.T) {
	logFileWriter = nil
	CloseLogFile()
}
