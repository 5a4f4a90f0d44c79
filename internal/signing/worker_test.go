package signing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mrz1836/zipsign/internal/clock"
	zserrors "github.com/mrz1836/zipsign/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// FormatError mimics an archive reader failure.
type FormatError struct {
	msg string
}

func (e *FormatError) Error() string { return e.msg }

// fakeOp runs a scripted body and records cancel requests.
type fakeOp struct {
	listener Listener
	body     func(ctx context.Context, op *fakeOp) error

	cancelCalls atomic.Int32
	canceled    chan struct{}
	cancelOnce  sync.Once
	stopped     atomic.Bool
}

func (o *fakeOp) Run(ctx context.Context, _, _ string) error {
	if o.body == nil {
		return nil
	}
	return o.body(ctx, o)
}

func (o *fakeOp) Cancel() {
	o.cancelCalls.Add(1)
	o.cancelOnce.Do(func() { close(o.canceled) })
}

func (o *fakeOp) IsCanceled() bool {
	return o.stopped.Load()
}

// waitCancel blocks until Cancel is called and marks the run as canceled.
func (o *fakeOp) waitCancel(ctx context.Context) error {
	select {
	case <-o.canceled:
		o.stopped.Store(true)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("test timed out: %w", ctx.Err())
	}
}

type fakeFactory struct {
	mu       sync.Mutex
	calls    int
	keyModes []string
	op       *fakeOp
	body     func(ctx context.Context, op *fakeOp) error
	err      error
}

func (f *fakeFactory) build(keyMode string, l Listener) (Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.keyModes = append(f.keyModes, keyMode)
	if f.err != nil {
		return nil, f.err
	}
	f.op = &fakeOp{listener: l, body: f.body, canceled: make(chan struct{})}
	return f.op, nil
}

func (f *fakeFactory) currentOp() *fakeOp {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.op
}

func validParams() Params {
	return Params{InputFile: "in.zip", OutputFile: "out.zip", KeyMode: "testkey", ShowProgressItems: true}
}

func collect(t *testing.T, w *Worker) []Message {
	t.Helper()

	var msgs []Message
	timeout := time.After(5 * time.Second)
	for {
		select {
		case m, ok := <-w.Messages():
			if !ok {
				return msgs
			}
			msgs = append(msgs, m)
		case <-timeout:
			require.FailNow(t, "worker did not close its message stream")
			return nil
		}
	}
}

func assertTerminalLast(t *testing.T, msgs []Message) {
	t.Helper()

	require.NotEmpty(t, msgs)
	for i, m := range msgs {
		if i == len(msgs)-1 {
			assert.True(t, IsTerminal(m), "last message must be terminal, got %T", m)
		} else {
			assert.False(t, IsTerminal(m), "message %d is terminal but not last", i)
		}
	}
}

func TestWorker_CompletesWithOrderedMessages(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{body: func(_ context.Context, op *fakeOp) error {
		op.listener.OnKeyResolved("testkey")
		op.listener.OnProgress(ProgressEvent{PercentDone: 0, Priority: PriorityHigh, Label: "reading"})
		op.listener.OnProgress(ProgressEvent{PercentDone: 50, Priority: PriorityHigh, Label: "a.txt"})
		op.listener.OnProgress(ProgressEvent{PercentDone: 100, Label: "done"})
		return nil
	}}

	w := NewWorker(validParams(), f.build)
	require.NoError(t, w.Start(context.Background()))
	msgs := collect(t, w)
	<-w.Done()

	assert.Equal(t, []Message{
		KeyResolvedMsg{KeyName: "testkey"},
		ProgressMsg{Percent: 0, Priority: PriorityHigh, Label: "reading"},
		ProgressMsg{Percent: 50, Priority: PriorityHigh, Label: "a.txt"},
		ProgressMsg{Percent: 100, Label: "done"},
		CompletedMsg{},
	}, msgs)
	assertTerminalLast(t, msgs)
}

func TestWorker_MissingParametersFailBeforeWork(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params Params
		detail string
	}{
		{"missing input", Params{OutputFile: "out.zip"}, "parameter inputFile is required"},
		{"missing output", Params{InputFile: "in.zip"}, "parameter outputFile is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := &fakeFactory{}
			w := NewWorker(tc.params, f.build)
			require.NoError(t, w.Run(context.Background()))

			msgs := collect(t, w)
			require.Len(t, msgs, 1)
			assert.Equal(t, FailedMsg{ErrorKind: "IllegalArgumentError", Detail: tc.detail}, msgs[0])
			assert.Zero(t, f.calls, "factory must not be called")
		})
	}
}

func TestWorker_PassesDefaultedKeyMode(t *testing.T) {
	t.Parallel()

	params := ParseParams(map[string]string{"inputFile": "in.zip", "outputFile": "out.zip"}, DefaultParamDefaults())
	f := &fakeFactory{}
	w := NewWorker(params, f.build)
	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, []Message{CompletedMsg{}}, collect(t, w))
	assert.Equal(t, []string{"testkey"}, f.keyModes)
}

func TestWorker_ThrottlesProgress(t *testing.T) {
	t.Parallel()

	c := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	f := &fakeFactory{body: func(_ context.Context, op *fakeOp) error {
		for _, pct := range []int{10, 20, 30, 100} {
			op.listener.OnProgress(ProgressEvent{PercentDone: pct})
			c.Advance(30 * time.Millisecond)
		}
		return nil
	}}

	rec := &countingMetrics{}
	w := NewWorker(validParams(), f.build, WithClock(c), WithMetrics(rec))
	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, []Message{
		ProgressMsg{Percent: 10},
		ProgressMsg{Percent: 100},
		CompletedMsg{},
	}, collect(t, w))
	assert.Equal(t, int32(2), rec.forwarded.Load())
	assert.Equal(t, int32(2), rec.suppressed.Load())
}

func TestWorker_StripsLabelsWhenDisabled(t *testing.T) {
	t.Parallel()

	params := validParams()
	params.ShowProgressItems = false
	f := &fakeFactory{body: func(_ context.Context, op *fakeOp) error {
		op.listener.OnProgress(ProgressEvent{PercentDone: 40, Priority: PriorityHigh, Label: "secret.txt"})
		return nil
	}}

	w := NewWorker(params, f.build)
	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, []Message{
		ProgressMsg{Percent: 40, Priority: PriorityHigh},
		CompletedMsg{},
	}, collect(t, w))
}

func TestWorker_OperationErrorBecomesFailed(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{body: func(_ context.Context, op *fakeOp) error {
		op.listener.OnProgress(ProgressEvent{PercentDone: 5})
		return &FormatError{msg: "bad zip"}
	}}

	w := NewWorker(validParams(), f.build)
	require.NoError(t, w.Run(context.Background()))

	msgs := collect(t, w)
	assertTerminalLast(t, msgs)
	assert.Equal(t, FailedMsg{ErrorKind: "FormatError", Detail: "bad zip"}, msgs[len(msgs)-1])
}

func TestWorker_WrappedErrorKeepsKind(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{body: func(context.Context, *fakeOp) error {
		return fmt.Errorf("reading entry: %w", &FormatError{msg: "bad zip"})
	}}

	w := NewWorker(validParams(), f.build)
	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, []Message{
		FailedMsg{ErrorKind: "FormatError", Detail: "reading entry: bad zip"},
	}, collect(t, w))
}

func TestWorker_FactoryErrorBecomesFailed(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{err: zserrors.ErrKeyNotFound}
	w := NewWorker(validParams(), f.build)
	require.NoError(t, w.Run(context.Background()))

	msgs := collect(t, w)
	require.Len(t, msgs, 1)
	failed, ok := msgs[0].(FailedMsg)
	require.True(t, ok)
	assert.Equal(t, "Error", failed.ErrorKind)
	assert.Equal(t, zserrors.ErrKeyNotFound.Error(), failed.Detail)
}

func TestWorker_PanicBecomesFailed(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{body: func(context.Context, *fakeOp) error {
		panic("boom")
	}}

	w := NewWorker(validParams(), f.build)
	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, []Message{FailedMsg{ErrorKind: "PanicError", Detail: "boom"}}, collect(t, w))
}

func TestWorker_CancelWhileRunning(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	started := make(chan struct{})
	f := &fakeFactory{body: func(_ context.Context, op *fakeOp) error {
		op.listener.OnProgress(ProgressEvent{PercentDone: 10, Priority: PriorityHigh})
		close(started)
		return op.waitCancel(ctx)
	}}

	w := NewWorker(validParams(), f.build)
	require.NoError(t, w.Start(context.Background()))

	first := <-w.Messages()
	assert.Equal(t, ProgressMsg{Percent: 10, Priority: PriorityHigh}, first)
	<-started

	w.Cancel()
	w.Cancel()

	assert.Equal(t, []Message{CanceledMsg{}}, collect(t, w))
	assert.Equal(t, int32(1), f.currentOp().cancelCalls.Load(), "cancel is forwarded once")
}

func TestWorker_CanceledErrorBecomesCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f := &fakeFactory{body: func(_ context.Context, op *fakeOp) error {
		if err := op.waitCancel(ctx); err != nil {
			return err
		}
		return fmt.Errorf("stopping after entry 3: %w", zserrors.ErrOperationCanceled)
	}}

	w := NewWorker(validParams(), f.build)
	require.NoError(t, w.Start(context.Background()))
	w.Cancel()

	assert.Equal(t, []Message{CanceledMsg{}}, collect(t, w))
}

func TestWorker_CancelBeforeOperationIsLatched(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f := &fakeFactory{body: func(_ context.Context, op *fakeOp) error {
		return op.waitCancel(ctx)
	}}

	w := NewWorker(validParams(), f.build)
	w.Cancel()
	require.NoError(t, w.Start(context.Background()))

	assert.Equal(t, []Message{CanceledMsg{}}, collect(t, w))
	assert.Equal(t, int32(1), f.currentOp().cancelCalls.Load())
}

func TestWorker_CancelAfterCompletionIsNoop(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{}
	w := NewWorker(validParams(), f.build)
	require.NoError(t, w.Run(context.Background()))

	w.Cancel()

	assert.Equal(t, []Message{CompletedMsg{}}, collect(t, w))
	assert.Zero(t, f.currentOp().cancelCalls.Load())
}

func TestWorker_ContextCancelRequestsCancel(t *testing.T) {
	t.Parallel()

	timeout, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()

	f := &fakeFactory{body: func(_ context.Context, op *fakeOp) error {
		return op.waitCancel(timeout)
	}}

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(validParams(), f.build)
	require.NoError(t, w.Start(ctx))
	cancel()

	assert.Equal(t, []Message{CanceledMsg{}}, collect(t, w))
	<-w.Done()
}

func TestWorker_ContextErrorBecomesCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	f := &fakeFactory{body: func(ctx context.Context, _ *fakeOp) error {
		cancel()
		return fmt.Errorf("loading key: %w", ctx.Err())
	}}

	w := NewWorker(validParams(), f.build)
	require.NoError(t, w.Start(ctx))

	assert.Equal(t, []Message{CanceledMsg{}}, collect(t, w))
	<-w.Done()
}

func TestWorker_ReuseRejected(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{}
	w := NewWorker(validParams(), f.build)
	require.NoError(t, w.Start(context.Background()))
	require.ErrorIs(t, w.Start(context.Background()), zserrors.ErrWorkerReused)
	require.ErrorIs(t, w.Run(context.Background()), zserrors.ErrWorkerReused)

	collect(t, w)
	assert.Equal(t, 1, f.calls)
}

func TestWorker_LateCallbacksAreDropped(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{}
	w := NewWorker(validParams(), f.build)
	require.NoError(t, w.Run(context.Background()))

	assert.NotPanics(t, func() {
		w.OnKeyResolved("late")
		w.OnProgress(ProgressEvent{PercentDone: 100})
	})
	assert.Equal(t, []Message{CompletedMsg{}}, collect(t, w))
}

func TestWorker_InteractionID(t *testing.T) {
	t.Parallel()

	w := NewWorker(validParams(), (&fakeFactory{}).build, WithInteractionID("abc-123"))
	assert.Equal(t, "abc-123", w.ID())
	assert.Equal(t, validParams(), w.Params())

	other := NewWorker(validParams(), (&fakeFactory{}).build)
	assert.NotEmpty(t, other.ID())
	assert.NotEqual(t, w.ID(), other.ID())
}

func TestWorker_SmallQueueDoesNotDeadlockCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f := &fakeFactory{body: func(_ context.Context, op *fakeOp) error {
		for i := range 5 {
			op.listener.OnProgress(ProgressEvent{PercentDone: i, Priority: PriorityHigh})
		}
		return op.waitCancel(ctx)
	}}

	w := NewWorker(validParams(), f.build, WithQueueSize(1))
	require.NoError(t, w.Start(context.Background()))

	// The worker is now blocked sending; Cancel must still return.
	w.Cancel()

	msgs := collect(t, w)
	assert.Len(t, msgs, 6)
	assert.Equal(t, CanceledMsg{}, msgs[len(msgs)-1])
}

type countingMetrics struct {
	forwarded  atomic.Int32
	suppressed atomic.Int32
	keys       atomic.Int32
}

func (m *countingMetrics) ProgressForwarded()  { m.forwarded.Add(1) }
func (m *countingMetrics) ProgressSuppressed() { m.suppressed.Add(1) }
func (m *countingMetrics) KeyResolved()        { m.keys.Add(1) }
