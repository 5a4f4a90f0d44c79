package signing

// Metrics observes worker-side protocol decisions.
type Metrics interface {
	// ProgressForwarded is called for every progress event that passed the throttle.
	ProgressForwarded()
	// ProgressSuppressed is called for every progress event the throttle dropped.
	ProgressSuppressed()
	// KeyResolved is called for every forwarded key announcement.
	KeyResolved()
}

// NoopMetrics discards all observations.
type NoopMetrics struct{}

var _ Metrics = NoopMetrics{}

// ProgressForwarded implements Metrics.
func (NoopMetrics) ProgressForwarded() {}

// ProgressSuppressed implements Metrics.
func (NoopMetrics) ProgressSuppressed() {}

// KeyResolved implements Metrics.
func (NoopMetrics) KeyResolved() {}
