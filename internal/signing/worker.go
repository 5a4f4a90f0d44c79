package signing

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/zipsign/internal/clock"
	"github.com/mrz1836/zipsign/internal/constants"
	zserrors "github.com/mrz1836/zipsign/internal/errors"
)

// Worker runs one Operation on its own goroutine and translates its
// callbacks and result into Messages.
//
// State machine: idle -> running -> completed | canceled | failed.
// Terminal states are absorbing. A Worker is used for exactly one run.
type Worker struct {
	id      string
	params  Params
	factory OperationFactory

	throttleCfg ThrottleConfig
	clock       clock.Clock
	queueSize   int
	logger      zerolog.Logger
	metrics     Metrics

	out     chan Message
	done    chan struct{}
	started atomic.Bool

	// emitMu serializes sends and guards throttle and terminated.
	emitMu     sync.Mutex
	throttle   *Throttle
	terminated bool

	// opMu guards the operation handle and the cancel latch. It is never
	// held while sending so Cancel cannot block behind a full channel.
	opMu            sync.Mutex
	op              Operation
	cancelRequested bool
	finished        bool
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithThrottle overrides the throttle configuration.
func WithThrottle(cfg ThrottleConfig) WorkerOption {
	return func(w *Worker) {
		w.throttleCfg = cfg
	}
}

// WithClock sets the clock the throttle reads.
func WithClock(c clock.Clock) WorkerOption {
	return func(w *Worker) {
		w.clock = c
	}
}

// WithLogger sets the worker logger.
func WithLogger(l zerolog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) WorkerOption {
	return func(w *Worker) {
		if m != nil {
			w.metrics = m
		}
	}
}

// WithQueueSize sets the message channel buffer.
func WithQueueSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.queueSize = n
		}
	}
}

// WithInteractionID sets the identifier attached to every log line.
func WithInteractionID(id string) WorkerOption {
	return func(w *Worker) {
		if id != "" {
			w.id = id
		}
	}
}

// NewWorker creates an idle worker for one interaction.
func NewWorker(params Params, factory OperationFactory, opts ...WorkerOption) *Worker {
	w := &Worker{
		id:          uuid.NewString(),
		params:      params,
		factory:     factory,
		throttleCfg: DefaultThrottleConfig(),
		clock:       clock.RealClock{},
		queueSize:   constants.DefaultQueueSize,
		logger:      zerolog.Nop(),
		metrics:     NoopMetrics{},
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.out = make(chan Message, w.queueSize)
	w.throttle = NewThrottle(w.throttleCfg, w.clock)
	w.logger = w.logger.With().Str("interaction_id", w.id).Logger()
	return w
}

// ID returns the interaction identifier.
func (w *Worker) ID() string {
	return w.id
}

// Params returns the start parameters.
func (w *Worker) Params() Params {
	return w.params
}

// Messages returns the ordered message stream. It is closed right after the
// terminal message. The consumer must drain it until closed.
func (w *Worker) Messages() <-chan Message {
	return w.out
}

// Done is closed when the worker goroutine has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Start runs the worker on a new goroutine and returns immediately.
func (w *Worker) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return zserrors.ErrWorkerReused
	}
	go w.run(ctx)
	return nil
}

// Run executes the worker on the calling goroutine and returns when the
// terminal message has been delivered to the channel.
// Canceling ctx is treated as a cancel request, not as an abort.
func (w *Worker) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return zserrors.ErrWorkerReused
	}
	w.run(ctx)
	return nil
}

// Cancel asks the running Operation to stop at its next checkpoint.
// It is safe from any goroutine, idempotent, and a no-op once the outcome
// is decided. A request made before the Operation exists is applied as soon
// as it is created.
func (w *Worker) Cancel() {
	w.opMu.Lock()
	if w.finished || w.cancelRequested {
		w.opMu.Unlock()
		return
	}
	w.cancelRequested = true
	op := w.op
	w.opMu.Unlock()

	w.logger.Debug().Bool("operation_running", op != nil).Msg("cancel requested")
	if op != nil {
		op.Cancel()
	}
}

// OnProgress implements Listener.
func (w *Worker) OnProgress(event ProgressEvent) {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()

	if w.terminated {
		w.logger.Warn().Int("percent", event.PercentDone).Msg("dropping progress reported after outcome")
		return
	}
	if !w.throttle.Allow(event) {
		w.metrics.ProgressSuppressed()
		return
	}
	w.metrics.ProgressForwarded()

	label := event.Label
	if !w.params.ShowProgressItems {
		label = ""
	}
	w.out <- ProgressMsg{Percent: event.PercentDone, Priority: event.Priority, Label: label}
}

// OnKeyResolved implements Listener. Key announcements are never throttled.
func (w *Worker) OnKeyResolved(keyName string) {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()

	if w.terminated {
		w.logger.Warn().Str("key_name", keyName).Msg("dropping key announcement reported after outcome")
		return
	}
	w.metrics.KeyResolved()
	w.logger.Debug().Str("key_name", keyName).Msg("signing key resolved")
	w.out <- KeyResolvedMsg{KeyName: keyName}
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	stop := context.AfterFunc(ctx, w.Cancel)
	defer stop()
	// AfterFunc runs on its own goroutine; latch an already-done ctx now.
	if ctx.Err() != nil {
		w.Cancel()
	}

	w.logger.Debug().
		Str("input_file", w.params.InputFile).
		Str("output_file", w.params.OutputFile).
		Str("key_mode", w.params.KeyMode).
		Msg("signing worker started")

	msg := w.execute(ctx)

	w.opMu.Lock()
	w.finished = true
	w.op = nil
	w.opMu.Unlock()

	w.finish(msg)
}

// execute performs validation and the operation and picks the terminal message.
func (w *Worker) execute(ctx context.Context) (msg Message) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().Interface("panic", r).Msg("signing operation panicked")
			msg = Failure(&zserrors.PanicError{Value: r})
		}
	}()

	if err := w.params.Validate(); err != nil {
		return Failure(err)
	}

	op, err := w.factory(w.params.KeyMode, w)
	if err != nil {
		return Failure(err)
	}

	w.opMu.Lock()
	w.op = op
	pending := w.cancelRequested
	w.opMu.Unlock()
	if pending {
		op.Cancel()
	}

	err = op.Run(ctx, w.params.InputFile, w.params.OutputFile)
	canceled := op.IsCanceled()

	switch {
	case err == nil && canceled:
		return CanceledMsg{}
	case err == nil:
		return CompletedMsg{}
	case canceled && stderrors.Is(err, zserrors.ErrOperationCanceled):
		return CanceledMsg{}
	case ctx.Err() != nil && stderrors.Is(err, ctx.Err()):
		// The operation gave up waiting on ctx, which is a cancel request here.
		return CanceledMsg{}
	default:
		return Failure(err)
	}
}

// finish sends the terminal message and closes the stream.
func (w *Worker) finish(msg Message) {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()

	w.terminated = true
	w.out <- msg
	close(w.out)

	event := w.logger.Info()
	if failed, ok := msg.(FailedMsg); ok {
		event = w.logger.Warn().Str("error_kind", failed.ErrorKind).Str("detail", failed.Detail)
	}
	event.Str("outcome", OutcomeName(msg)).Msg("signing worker finished")
}
