// Package signing runs one long signing operation on a background goroutine
// and reports its progress and outcome to a single consumer.
//
// The protocol between the Worker and its consumer is a single ordered
// channel of Message values:
//
//	ProgressMsg*  KeyResolvedMsg*  (interleaved, in emission order)
//	CompletedMsg | CanceledMsg | FailedMsg   (exactly one, always last)
//
// The channel is closed immediately after the terminal message, so a
// consumer ranging over Messages() observes nothing after the outcome.
// Progress messages pass through a Throttle that caps ordinary updates
// while never dropping the final 100% event or high priority events.
//
// Cancellation is cooperative: Worker.Cancel asks the Operation to stop at
// its next checkpoint. The outcome of a canceled run may still be
// CompletedMsg when the Operation finished before it looked.
package signing
