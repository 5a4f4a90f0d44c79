// Package errors provides centralized error handling for zipsign.
//
// It holds the sentinels every other package wraps, the typed errors the
// worker reports by kind, and the user-facing hints shown by the CLI.
// It imports nothing from this module.
package errors

import "errors"

// Sentinels, matched with errors.Is.
var (
	// ErrMissingParameter indicates a required start parameter was not supplied.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrWorkerReused indicates Start or Run was called on a worker that already ran.
	ErrWorkerReused = errors.New("worker already started")

	// ErrNoOutcome indicates the message stream ended without a terminal message.
	ErrNoOutcome = errors.New("message stream closed without outcome")

	// ErrOperationCanceled indicates the signing operation stopped at a cancel checkpoint.
	ErrOperationCanceled = errors.New("operation canceled")

	// ErrInvalidArchive indicates the input is not a readable zip archive.
	ErrInvalidArchive = errors.New("invalid zip archive")

	// ErrSignatureMissing indicates an archive carries no zipsign signature.
	ErrSignatureMissing = errors.New("archive is not signed")

	// ErrSignatureInvalid indicates signature or digest verification failed.
	ErrSignatureInvalid = errors.New("signature verification failed")

	// ErrKeyNotFound indicates a named key does not exist in the key store.
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeyExists indicates an attempt to generate a key that already exists.
	ErrKeyExists = errors.New("key already exists")

	// ErrInvalidKeyName indicates a key name contains characters outside [a-z0-9_-].
	ErrInvalidKeyName = errors.New("invalid key name")

	// ErrInvalidKeySize indicates a key file decoded to the wrong length.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrKeyUnresolved indicates automatic key detection found no matching key.
	ErrKeyUnresolved = errors.New("unable to determine signing key")

	// ErrLockTimeout indicates a file lock could not be acquired within the timeout period.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidSigning indicates an invalid signing configuration value.
	ErrConfigInvalidSigning = errors.New("invalid signing configuration")

	// ErrConfigInvalidProgress indicates an invalid progress configuration value.
	ErrConfigInvalidProgress = errors.New("invalid progress configuration")

	// ErrConfigInvalidUI indicates an invalid UI configuration value.
	ErrConfigInvalidUI = errors.New("invalid UI configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrOutputExists indicates the output file exists and overwriting was declined.
	ErrOutputExists = errors.New("output file already exists")

	// ErrNonInteractiveMode indicates that an operation requiring confirmation
	// was attempted in non-interactive mode without the force flag.
	ErrNonInteractiveMode = errors.New("use --force in non-interactive mode")

	// ErrMenuCanceled indicates that the user canceled a prompt.
	ErrMenuCanceled = errors.New("menu canceled by user")

	// ErrOutcomeReported marks a failure whose result was already written to
	// the output. The command still exits non-zero but prints nothing more.
	ErrOutcomeReported = errors.New("outcome already reported")

	// ErrSigningFailed indicates the interaction resolved with a failure outcome.
	ErrSigningFailed = errors.New("signing failed")

	// ErrSigningCanceled indicates the interaction resolved with a cancellation outcome.
	ErrSigningCanceled = errors.New("signing canceled")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
