// Package constants provides centralized constant values used throughout zipsign.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory names and paths used by zipsign for organizing data.
const (
	// Home is the hidden directory name where zipsign stores all its data.
	// This directory is created in the user's home directory.
	Home = ".zipsign"

	// KeysDir is the directory name where named signing keys are stored.
	KeysDir = "keys"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// HomeEnvVar overrides the zipsign home directory when set.
	HomeEnvVar = "ZIPSIGN_HOME"

	// EnvPrefix is the prefix for configuration environment variables (ZIPSIGN_*).
	EnvPrefix = "ZIPSIGN"
)

// Start parameter keys accepted by the sign interaction.
// These match the string-keyed extras the launching caller supplies.
const (
	// ParamInputFile names the source archive. Required.
	ParamInputFile = "inputFile"

	// ParamOutputFile names the destination archive. Required.
	ParamOutputFile = "outputFile"

	// ParamKeyMode selects the signing key strategy. Optional.
	ParamKeyMode = "keyMode"

	// ParamShowProgressItems controls whether per-entry labels are forwarded. Optional.
	ParamShowProgressItems = "showProgressItems"
)

// Defaults for the sign interaction.
const (
	// DefaultKeyMode is substituted when the caller does not supply a key mode.
	// Older callers never sent one and expect the test key.
	DefaultKeyMode = "testkey"

	// DefaultShowProgressItems is the default for ParamShowProgressItems.
	DefaultShowProgressItems = true

	// DefaultThrottleInterval is the minimum time between two forwarded
	// normal-priority progress notifications (at most two per second).
	DefaultThrottleInterval = 500 * time.Millisecond

	// CompletePercent is the progress value that is never throttled.
	CompletePercent = 100

	// DefaultQueueSize is the buffer size of the worker message channel.
	DefaultQueueSize = 64
)

// Key modes understood by the zip signer in addition to plain key names.
const (
	// KeyModeAuto detects the key that signed the input; fails when unknown.
	KeyModeAuto = "auto"

	// KeyModeAutoTestkey detects the key and falls back to the test key.
	KeyModeAutoTestkey = "auto-testkey"

	// KeyModeAutoNone detects the key and falls back to copying unsigned.
	KeyModeAutoNone = "auto-none"
)

// UI modes for the sign command.
const (
	// UIModeAuto selects the terminal UI on a TTY and plain output otherwise.
	UIModeAuto = "auto"

	// UIModeTUI forces the Bubble Tea terminal UI.
	UIModeTUI = "tui"

	// UIModePlain forces line-based output.
	UIModePlain = "plain"
)

// Lock settings for key generation.
const (
	// LockRetryInterval is the polling interval while waiting for a file lock.
	LockRetryInterval = 50 * time.Millisecond

	// LockTimeout bounds how long key generation waits for another process.
	LockTimeout = 5 * time.Second
)

// Log rotation settings for the CLI log file.
const (
	// LogMaxSizeMB is the size at which the log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated files kept.
	LogMaxBackups = 3

	// LogMaxAgeDays is how long rotated files are kept.
	LogMaxAgeDays = 28

	// LogCompress gzips rotated files.
	LogCompress = true
)
