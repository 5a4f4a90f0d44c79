package tui

import (
	"fmt"
	"io"

	"github.com/mrz1836/zipsign/internal/controller"
)

// PlainObserver prints one line per progress change for terminals that
// cannot host the interactive view, and for logs captured from CI.
type PlainObserver struct {
	w         io.Writer
	lastPct   int
	lastLabel string
	printed   bool
}

// NewPlainObserver returns an observer writing to w.
func NewPlainObserver(w io.Writer) *PlainObserver {
	return &PlainObserver{w: w}
}

// ProgressChanged prints "<pct> <label>" unless it repeats the last line.
func (o *PlainObserver) ProgressChanged(percent int, label string) {
	if o.printed && percent == o.lastPct && label == o.lastLabel {
		return
	}
	o.printed = true
	o.lastPct, o.lastLabel = percent, label

	line := FormatPercent(percent)
	if label != "" {
		line += " " + label
	}
	_, _ = fmt.Fprintln(o.w, line)
}

// Notice prints the notice indented.
func (o *PlainObserver) Notice(text string) {
	_, _ = fmt.Fprintln(o.w, "     "+text)
}

// Finished prints nothing; the command reports the result itself.
func (o *PlainObserver) Finished(controller.Result) {}

var _ controller.Observer = (*PlainObserver)(nil)
