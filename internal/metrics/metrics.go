// Package metrics records signing interactions in a Prometheus registry.
//
// zipsign is a short-lived CLI, so nothing is served over HTTP. When a
// textfile path is configured the registry is written in the text exposition
// format at exit, ready for a node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mrz1836/zipsign/internal/controller"
	"github.com/mrz1836/zipsign/internal/signing"
)

// Progress decision label values.
const (
	DecisionForwarded  = "forwarded"
	DecisionSuppressed = "suppressed"
)

// Recorder owns the registry and its collectors.
type Recorder struct {
	registry *prometheus.Registry

	interactions *prometheus.CounterVec
	progress     *prometheus.CounterVec
	keys         prometheus.Counter
	duration     prometheus.Histogram
}

var (
	_ signing.Metrics    = (*Recorder)(nil)
	_ controller.Metrics = (*Recorder)(nil)
)

// New creates a Recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		interactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zipsign_interactions_total",
			Help: "Total number of signing interactions by outcome",
		}, []string{"outcome"}),
		progress: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zipsign_progress_events_total",
			Help: "Total number of raw progress events by throttle decision",
		}, []string{"decision"}),
		keys: factory.NewCounter(prometheus.CounterOpts{
			Name: "zipsign_keys_resolved_total",
			Help: "Total number of signing key announcements",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "zipsign_interaction_duration_seconds",
			Help:    "Wall time of signing interactions",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ProgressForwarded implements signing.Metrics.
func (r *Recorder) ProgressForwarded() {
	r.progress.WithLabelValues(DecisionForwarded).Inc()
}

// ProgressSuppressed implements signing.Metrics.
func (r *Recorder) ProgressSuppressed() {
	r.progress.WithLabelValues(DecisionSuppressed).Inc()
}

// KeyResolved implements signing.Metrics.
func (r *Recorder) KeyResolved() {
	r.keys.Inc()
}

// InteractionFinished implements controller.Metrics.
func (r *Recorder) InteractionFinished(outcome string, elapsed time.Duration) {
	r.interactions.WithLabelValues(normalizeOutcome(outcome)).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// WriteTextfile writes the registry to path. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

func normalizeOutcome(outcome string) string {
	switch outcome {
	case signing.OutcomeCompleted, signing.OutcomeCanceled, signing.OutcomeFailed:
		return outcome
	default:
		return "unknown"
	}
}
