package signing

import "context"

// Priority ranks a progress event. High priority events bypass throttling.
type Priority int

// Progress priorities.
const (
	// PriorityNormal is used for routine per-item updates.
	PriorityNormal Priority = iota
	// PriorityHigh is used for phase changes that must always be shown.
	PriorityHigh
)

// String returns the lowercase priority name.
func (p Priority) String() string {
	if p >= PriorityHigh {
		return "high"
	}
	return "normal"
}

// ProgressEvent is one raw progress report from an Operation.
// PercentDone is not guaranteed to be monotonic or bounded; consumers clamp it.
type ProgressEvent struct {
	PercentDone int
	Priority    Priority
	Label       string
}

// Listener receives callbacks from a running Operation.
// Callbacks may arrive on any goroutine but must not arrive after Run returns.
type Listener interface {
	// OnProgress reports progress.
	OnProgress(event ProgressEvent)
	// OnKeyResolved reports the signing key chosen while running.
	OnKeyResolved(keyName string)
}

// Operation is a cancelable, long-running unit of signing work.
type Operation interface {
	// Run signs input into output and blocks until done.
	// A run that stopped because of Cancel returns nil (or an error wrapping
	// errors.ErrOperationCanceled) and reports IsCanceled() == true.
	Run(ctx context.Context, input, output string) error

	// Cancel asks Run to stop at its next checkpoint. It never blocks.
	Cancel()

	// IsCanceled reports whether Run ended early because of Cancel.
	IsCanceled() bool
}

// OperationFactory builds the Operation for one run.
// The Worker passes the resolved key mode and itself as the Listener.
type OperationFactory func(keyMode string, listener Listener) (Operation, error)
