// Package controller consumes the signing worker's message stream.
//
// A Controller is the single consumer of one interaction. It owns every piece
// of externally observable state (percent, current item label, resolved key,
// notices) and maps the terminal message to a Result for the launching
// caller. It never touches the worker except to relay a cancel request.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/zipsign/internal/clock"
	zserrors "github.com/mrz1836/zipsign/internal/errors"
	"github.com/mrz1836/zipsign/internal/signing"
)

// ProtocolErrorKind is reported when the stream ends without a terminal message.
const ProtocolErrorKind = "ProtocolError"

// Canceler receives relayed cancel requests. *signing.Worker satisfies it.
type Canceler interface {
	Cancel()
}

// Observer is notified as state changes. All calls happen on the goroutine
// driving the Controller.
type Observer interface {
	ProgressChanged(percent int, label string)
	Notice(text string)
	Finished(result Result)
}

// Metrics records interaction outcomes.
type Metrics interface {
	InteractionFinished(outcome string, elapsed time.Duration)
}

// Controller tracks the state of one interaction.
type Controller struct {
	canceler Canceler
	observer Observer
	metrics  Metrics
	logger   zerolog.Logger
	clock    clock.Clock

	started         time.Time
	percent         int
	label           string
	keyName         string
	notices         []string
	cancelRequested bool
	done            bool
	result          Result
	failure         *signing.FailedMsg
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithMetrics sets the outcome recorder.
func WithMetrics(m Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithClock sets the clock used to time the interaction.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// New creates a Controller that relays cancel requests to canceler.
func New(canceler Canceler, opts ...Option) *Controller {
	c := &Controller{
		canceler: canceler,
		logger:   zerolog.Nop(),
		clock:    clock.RealClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.started = c.clock.Now()
	return c
}

// Percent returns the last reported progress, clamped to 0..100.
func (c *Controller) Percent() int { return c.percent }

// Label returns the last reported item label. It may be empty.
func (c *Controller) Label() string { return c.label }

// KeyName returns the most recently announced signing key.
func (c *Controller) KeyName() string { return c.keyName }

// Notices returns the informational notices shown so far.
func (c *Controller) Notices() []string {
	out := make([]string, len(c.notices))
	copy(out, c.notices)
	return out
}

// CancelRequested reports whether a cancel request was relayed.
func (c *Controller) CancelRequested() bool { return c.cancelRequested }

// Done reports whether the terminal message has been applied.
func (c *Controller) Done() bool { return c.done }

// Result returns the outcome. It is meaningful only once Done is true.
func (c *Controller) Result() Result { return c.result }

// Failure returns the failure message of a failed interaction.
func (c *Controller) Failure() (signing.FailedMsg, bool) {
	if c.failure == nil {
		return signing.FailedMsg{}, false
	}
	return *c.failure, true
}

// RequestCancel relays a user cancel request to the worker.
// The outcome is still decided by the worker; a request racing a finished
// operation may resolve as success.
func (c *Controller) RequestCancel() {
	if c.done {
		return
	}
	c.cancelRequested = true
	c.logger.Info().Msg("cancel requested by user")
	if c.canceler != nil {
		c.canceler.Cancel()
	}
}

// Apply handles one message and reports whether the interaction is over.
// Messages arriving after the terminal one are ignored.
func (c *Controller) Apply(msg signing.Message) bool {
	if c.done {
		c.logger.Debug().Str("message", fmt.Sprintf("%T", msg)).Msg("ignoring message after outcome")
		return true
	}

	switch m := msg.(type) {
	case signing.ProgressMsg:
		c.setProgress(m.Percent, m.Label)
	case signing.KeyResolvedMsg:
		c.keyName = m.KeyName
		notice := "signing with key: " + m.KeyName
		c.notices = append(c.notices, notice)
		c.logger.Info().Str("key_name", m.KeyName).Msg(notice)
		if c.observer != nil {
			c.observer.Notice(notice)
		}
	case signing.CompletedMsg:
		c.setProgress(100, c.label)
		c.finish(signing.OutcomeCompleted, Result{Code: ResultOK})
	case signing.CanceledMsg:
		c.finish(signing.OutcomeCanceled, Result{Code: ResultCanceled})
	case signing.FailedMsg:
		c.failure = &m
		c.logger.Error().
			Str("error_kind", m.ErrorKind).
			Str("detail", m.Detail).
			Msg("signing failed")
		c.finish(signing.OutcomeFailed, Result{Code: ResultFailed, ErrorMessage: m.String()})
	default:
		c.logger.Warn().Str("message", fmt.Sprintf("%T", msg)).Msg("ignoring unknown message")
	}
	return c.done
}

// Close resolves an interaction whose stream ended without a terminal
// message. It is a no-op once Done.
func (c *Controller) Close() {
	if c.done {
		return
	}
	c.Apply(signing.FailedMsg{ErrorKind: ProtocolErrorKind, Detail: zserrors.ErrNoOutcome.Error()})
}

// Run drains msgs until the terminal message and returns the Result.
//
// Canceling ctx relays exactly one cancel request; Run keeps draining until
// the worker reports its outcome, so the stream is never abandoned.
func (c *Controller) Run(ctx context.Context, msgs <-chan signing.Message) Result {
	ctxDone := ctx.Done()
	for !c.done {
		select {
		case <-ctxDone:
			ctxDone = nil
			c.RequestCancel()
		case msg, ok := <-msgs:
			if !ok {
				c.Close()
				continue
			}
			c.Apply(msg)
		}
	}
	return c.result
}

func (c *Controller) setProgress(percent int, label string) {
	c.percent = clamp(percent)
	c.label = label
	if c.observer != nil {
		c.observer.ProgressChanged(c.percent, c.label)
	}
}

func (c *Controller) finish(outcome string, r Result) {
	c.done = true
	c.result = r

	elapsed := c.clock.Now().Sub(c.started)
	if c.metrics != nil {
		c.metrics.InteractionFinished(outcome, elapsed)
	}
	c.logger.Info().
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Msg("interaction finished")
	if c.observer != nil {
		c.observer.Finished(r)
	}
}

func clamp(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
