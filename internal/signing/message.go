package signing

import (
	zserrors "github.com/mrz1836/zipsign/internal/errors"
)

// Message is one item of the worker to controller protocol.
// The set of variants is closed: ProgressMsg, KeyResolvedMsg, CompletedMsg,
// CanceledMsg and FailedMsg.
type Message interface {
	message()
}

// ProgressMsg is a forwarded progress event.
type ProgressMsg struct {
	Percent  int
	Priority Priority
	// Label is empty when per-item labels are disabled.
	Label string
}

// KeyResolvedMsg announces the key picked during the run. It is informational.
type KeyResolvedMsg struct {
	KeyName string
}

// CompletedMsg is the terminal message of a successful run.
type CompletedMsg struct{}

// CanceledMsg is the terminal message of a run that honored a cancel request.
type CanceledMsg struct{}

// FailedMsg is the terminal message of a run that raised an error.
type FailedMsg struct {
	// ErrorKind is the unqualified name of the error category.
	ErrorKind string
	// Detail is the error message text.
	Detail string
}

func (ProgressMsg) message()    {}
func (KeyResolvedMsg) message() {}
func (CompletedMsg) message()   {}
func (CanceledMsg) message()    {}
func (FailedMsg) message()      {}

// String formats the failure as "<ErrorKind>: <Detail>".
func (m FailedMsg) String() string {
	return m.ErrorKind + ": " + m.Detail
}

// Failure converts err into a FailedMsg.
func Failure(err error) FailedMsg {
	return FailedMsg{ErrorKind: zserrors.Kind(err), Detail: err.Error()}
}

// IsTerminal reports whether m ends the interaction.
func IsTerminal(m Message) bool {
	switch m.(type) {
	case CompletedMsg, CanceledMsg, FailedMsg:
		return true
	default:
		return false
	}
}

// Outcome names of terminal messages, used for logs and metric labels.
const (
	OutcomeCompleted = "completed"
	OutcomeCanceled  = "canceled"
	OutcomeFailed    = "failed"
)

// OutcomeName returns the outcome name of a terminal message, or "" for
// non-terminal messages.
func OutcomeName(m Message) string {
	switch m.(type) {
	case CompletedMsg:
		return OutcomeCompleted
	case CanceledMsg:
		return OutcomeCanceled
	case FailedMsg:
		return OutcomeFailed
	default:
		return ""
	}
}
