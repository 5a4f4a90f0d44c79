// Package logging provides zerolog helpers that keep signing key material
// out of log output.
package logging

import (
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// RedactedValue is the replacement string for sensitive data.
const RedactedValue = "[REDACTED]"

// sensitivePatterns match key material and credentials.
var sensitivePatterns = []*regexp.Regexp{ //nolint:gochecknoglobals // Package-level patterns for reuse
	// PEM private key blocks, whole block when complete.
	regexp.MustCompile(`(?s)-----BEGIN[A-Z ]*PRIVATE KEY-----.*?-----END[A-Z ]*PRIVATE KEY-----`),

	// A dangling PEM header.
	regexp.MustCompile(`-----BEGIN[A-Z ]*PRIVATE KEY-----`),

	// Hex-encoded keys: Ed25519 seeds are 64 hex chars, full private keys 128.
	regexp.MustCompile(`\b[0-9a-fA-F]{64,}\b`),

	// Password and passphrase assignments.
	regexp.MustCompile(`(?i)(password|passphrase|passwd|pwd|secret)\s*[:=]\s*["']?[^\s"']{4,}["']?`),

	// Signing keys passed as key=value.
	regexp.MustCompile(`(?i)(private[_-]?key|signing[_-]?key|seed)\s*[:=]\s*["']?[^\s"']{8,}["']?`),
}

// sensitiveFieldNames are log field names whose values are always redacted.
var sensitiveFieldNames = []string{ //nolint:gochecknoglobals // Package-level patterns for reuse
	"password",
	"passphrase",
	"passwd",
	"secret",
	"private_key",
	"privatekey",
	"private-key",
	"seed",
	"key_material",
	"signature_block",
}

// SensitiveDataHook flags log events whose message contains key material.
// zerolog hooks cannot rewrite a message, so call sites use
// FilterSensitiveValue and the file writer is wrapped in FilteringWriter.
type SensitiveDataHook struct{}

// NewSensitiveDataHook creates a SensitiveDataHook.
func NewSensitiveDataHook() *SensitiveDataHook {
	return &SensitiveDataHook{}
}

// Run implements zerolog.Hook.
func (h *SensitiveDataHook) Run(e *zerolog.Event, _ zerolog.Level, msg string) {
	if ContainsSensitiveData(msg) {
		e.Bool("contains_filtered_data", true)
	}
}

// ContainsSensitiveData reports whether s matches any sensitive pattern.
func ContainsSensitiveData(s string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// FilterSensitiveValue replaces every sensitive match in value with [REDACTED].
func FilterSensitiveValue(value string) string {
	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// IsSensitiveFieldName reports whether a field name denotes secret data.
func IsSensitiveFieldName(fieldName string) bool {
	lowerName := strings.ToLower(fieldName)
	for _, sensitive := range sensitiveFieldNames {
		if strings.Contains(lowerName, sensitive) {
			return true
		}
	}
	return false
}

// SafeValue returns value filtered for logging under fieldName.
//
// Usage:
//
//	log.Debug().Str("key_file", logging.SafeValue("key_file", path)).Msg("loaded key")
func SafeValue(fieldName, value string) string {
	if IsSensitiveFieldName(fieldName) {
		return RedactedValue
	}
	return FilterSensitiveValue(value)
}

// FilteringWriter redacts sensitive data before it reaches the wrapped writer.
type FilteringWriter struct {
	w io.Writer
}

// NewFilteringWriter wraps w.
func NewFilteringWriter(w io.Writer) *FilteringWriter {
	return &FilteringWriter{w: w}
}

// Write implements io.Writer. It reports len(p) on success so callers do not
// see the redaction as a short write.
func (fw *FilteringWriter) Write(p []byte) (int, error) {
	if _, err := fw.w.Write([]byte(FilterSensitiveValue(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}
