package zipsigner

import (
	"archive/zip"
	"errors"
	"fmt"

	zserrors "github.com/mrz1836/zipsign/internal/errors"
)

// FormatError reports input that is not a readable zip archive.
type FormatError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying archive error.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is matches ErrInvalidArchive.
func (e *FormatError) Is(target error) bool {
	return target == zserrors.ErrInvalidArchive
}

// KeyResolutionError reports that an automatic key mode found no usable key.
type KeyResolutionError struct {
	Mode string
}

// Error implements the error interface.
func (e *KeyResolutionError) Error() string {
	return fmt.Sprintf("%v (key mode %s)", zserrors.ErrKeyUnresolved, e.Mode)
}

// Unwrap lets errors.Is match ErrKeyUnresolved.
func (e *KeyResolutionError) Unwrap() error {
	return zserrors.ErrKeyUnresolved
}

// asFormatError wraps archive decoding failures in FormatError and leaves
// other errors, such as a missing file, untouched.
func asFormatError(path string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrAlgorithm) || errors.Is(err, zip.ErrChecksum) {
		return &FormatError{Path: path, Err: err}
	}
	return err
}
