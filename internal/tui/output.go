package tui

import (
	"io"

	"github.com/mrz1836/zipsign/internal/controller"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Output writes command results either styled for a terminal or as JSON.
type Output interface {
	// Success prints a success message.
	Success(msg string)
	// Error prints an error, with a suggested action when one is known.
	Error(err error)
	// Warning prints a warning message.
	Warning(msg string)
	// Info prints an informational message.
	Info(msg string)
	// JSON writes v as JSON.
	JSON(v any) error
	// SignResult reports the outcome of a sign interaction.
	SignResult(r controller.Result) error
}

// SignResult is the JSON document written for a finished sign interaction.
type SignResult struct {
	Result       string `json:"result"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// NewSignResult converts a controller Result into its JSON document.
func NewSignResult(r controller.Result) SignResult {
	return SignResult{Result: r.Code.String(), ErrorMessage: r.ErrorMessage}
}

// NewOutput returns a JSONOutput for FormatJSON and a TTYOutput otherwise.
func NewOutput(w io.Writer, format string) Output {
	if format == FormatJSON {
		return NewJSONOutput(w)
	}
	return NewTTYOutput(w)
}
