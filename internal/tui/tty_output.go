package tui

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mrz1836/zipsign/internal/controller"
	zserrors "github.com/mrz1836/zipsign/internal/errors"
)

// TTYOutput writes styled lines for a terminal.
type TTYOutput struct {
	w      io.Writer
	styles *OutputStyles
}

// NewTTYOutput creates a TTYOutput. It honors NO_COLOR.
func NewTTYOutput(w io.Writer) *TTYOutput {
	CheckNoColor()
	return &TTYOutput{w: w, styles: NewOutputStyles()}
}

// Success prints "✓ msg" in green.
func (o *TTYOutput) Success(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Success.Render("✓ "+msg))
}

// Error prints "✗ err" in red, followed by a dim suggestion line when the
// error maps to a known action.
func (o *TTYOutput) Error(err error) {
	_, _ = fmt.Fprintln(o.w, o.styles.Error.Render("✗ "+err.Error()))
	if _, action := zserrors.Actionable(err); action != "" {
		_, _ = fmt.Fprintln(o.w, o.styles.Dim.Render("  ▸ Try: "+action))
	}
}

// Warning prints "⚠ msg" in yellow.
func (o *TTYOutput) Warning(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Warning.Render("⚠ "+msg))
}

// Info prints msg in the primary color.
func (o *TTYOutput) Info(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Info.Render(msg))
}

// JSON writes v as indented JSON.
func (o *TTYOutput) JSON(v any) error {
	encoder := json.NewEncoder(o.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// SignResult prints one line describing the outcome.
func (o *TTYOutput) SignResult(r controller.Result) error {
	switch r.Code {
	case controller.ResultOK:
		o.Success("archive signed")
	case controller.ResultCanceled:
		o.Warning("signing canceled")
	default:
		_, _ = fmt.Fprintln(o.w, o.styles.Error.Render("✗ signing failed: "+r.ErrorMessage))
	}
	return nil
}
