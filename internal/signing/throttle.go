package signing

import (
	"time"

	"github.com/mrz1836/zipsign/internal/clock"
	"github.com/mrz1836/zipsign/internal/constants"
)

// ThrottleConfig tunes the progress throttle.
type ThrottleConfig struct {
	// Interval is the minimum spacing of forwarded normal-priority events.
	Interval time.Duration
	// CompletePercent is the progress value that is always forwarded.
	CompletePercent int
}

// DefaultThrottleConfig forwards at most two ordinary updates per second.
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{
		Interval:        constants.DefaultThrottleInterval,
		CompletePercent: constants.CompletePercent,
	}
}

// Throttle decides whether a raw progress event is forwarded.
//
// An event is forwarded when it reports completion, has high priority, or
// arrives at least Interval after the last forwarded event. The time of the
// last forwarded event starts at minus infinity, so the first event always
// passes. Throttle is not safe for concurrent use; the Worker serializes it.
type Throttle struct {
	cfg       ThrottleConfig
	clock     clock.Clock
	last      time.Time
	forwarded bool
}

// NewThrottle creates a throttle. A nil clock uses the system clock.
func NewThrottle(cfg ThrottleConfig, c clock.Clock) *Throttle {
	if c == nil {
		c = clock.RealClock{}
	}
	if cfg.CompletePercent <= 0 {
		cfg.CompletePercent = constants.CompletePercent
	}
	if cfg.Interval < 0 {
		cfg.Interval = 0
	}
	return &Throttle{cfg: cfg, clock: c}
}

// Allow reports whether e should be forwarded and records the forward time.
func (t *Throttle) Allow(e ProgressEvent) bool {
	now := t.clock.Now()
	if !t.bypass(e) && t.forwarded && now.Sub(t.last) < t.cfg.Interval {
		return false
	}
	t.last = now
	t.forwarded = true
	return true
}

func (t *Throttle) bypass(e ProgressEvent) bool {
	return e.PercentDone >= t.cfg.CompletePercent || e.Priority >= PriorityHigh
}
