package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mrz1836/zipsign/internal/controller"
	zserrors "github.com/mrz1836/zipsign/internal/errors"
)

// JSONOutput writes one JSON object per line for non-TTY callers.
type JSONOutput struct {
	encoder *json.Encoder
}

// NewJSONOutput creates a JSONOutput.
func NewJSONOutput(w io.Writer) *JSONOutput {
	return &JSONOutput{encoder: json.NewEncoder(w)}
}

type jsonMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type jsonError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Kind       string `json:"kind"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Success writes {"type":"success","message":...}.
func (o *JSONOutput) Success(msg string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(jsonMessage{Type: "success", Message: msg})
}

// Error writes {"type":"error",...} with the error kind, the wrapped
// cause and a suggestion when one is known.
func (o *JSONOutput) Error(err error) {
	out := jsonError{
		Type:    "error",
		Message: err.Error(),
		Kind:    zserrors.Kind(err),
	}
	if inner := errors.Unwrap(err); inner != nil {
		out.Details = inner.Error()
	}
	_, out.Suggestion = zserrors.Actionable(err)

	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(out)
}

// Warning writes {"type":"warning","message":...}.
func (o *JSONOutput) Warning(msg string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(jsonMessage{Type: "warning", Message: msg})
}

// Info writes {"type":"info","message":...}.
func (o *JSONOutput) Info(msg string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(jsonMessage{Type: "info", Message: msg})
}

// JSON writes v on a single line.
func (o *JSONOutput) JSON(v any) error {
	if err := o.encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// SignResult writes {"result":...,"errorMessage":...}.
func (o *JSONOutput) SignResult(r controller.Result) error {
	return o.JSON(NewSignResult(r))
}
