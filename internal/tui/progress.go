package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/mattn/go-runewidth"
)

// Ellipsis marks a truncated label.
const Ellipsis = "…"

// ProgressBar wraps the bubbles progress bar. It renders statically with
// ViewAs; the sign view redraws on every forwarded event.
type ProgressBar struct {
	bar   progress.Model
	width int
}

// NewProgressBar creates a bar of the given width. It uses the primary color
// gradient, or a solid gray fill when colors are off.
func NewProgressBar(width int) *ProgressBar {
	var bar progress.Model
	if HasColorSupport() {
		bar = progress.New(
			progress.WithWidth(width),
			progress.WithScaledGradient("#0087AF", "#00D7FF"),
			progress.WithoutPercentage(),
		)
	} else {
		bar = progress.New(
			progress.WithWidth(width),
			progress.WithSolidFill("#808080"),
			progress.WithoutPercentage(),
		)
	}
	return &ProgressBar{bar: bar, width: width}
}

// Render returns the bar for a percentage in 0..100. Out of range values
// are clamped.
func (pb *ProgressBar) Render(percent int) string {
	switch {
	case percent < 0:
		percent = 0
	case percent > 100:
		percent = 100
	}
	return pb.bar.ViewAs(float64(percent) / 100)
}

// Width returns the bar width.
func (pb *ProgressBar) Width() int {
	return pb.width
}

// SetWidth resizes the bar.
func (pb *ProgressBar) SetWidth(w int) {
	pb.width = w
	pb.bar.Width = w
}

// FormatPercent renders p right-aligned, as in " 45%".
func FormatPercent(p int) string {
	return fmt.Sprintf("%3d%%", p)
}

// TruncateLabel shortens label to at most width terminal cells, ending it
// with an ellipsis when cut. Wide runes count as two cells.
func TruncateLabel(label string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(label) <= width {
		return label
	}
	return runewidth.Truncate(label, width, Ellipsis)
}
