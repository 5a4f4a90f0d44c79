// Package signal turns SIGINT and SIGTERM into cancel requests for headless
// signing runs.
//
// The first signal cancels the handler's context; the signing controller
// relays that as a single cooperative cancel and keeps waiting for the
// worker's outcome. A second signal closes Forced so the command can give up
// waiting and exit.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages (to avoid circular dependencies)
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler listens for interrupt signals for the lifetime of one command.
type Handler struct {
	ctx         context.Context //nolint:containedctx // handler owns the context lifecycle
	cancel      context.CancelFunc
	interrupted chan struct{}
	forced      chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
	sigChan     chan os.Signal

	mu       sync.Mutex
	received int
	last     os.Signal
}

// NewHandler starts listening for SIGINT and SIGTERM.
//
// Usage:
//
//	h := signal.NewHandler(ctx)
//	defer h.Stop()
//	result := ctl.Run(h.Context(), worker.Messages())
func NewHandler(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		interrupted: make(chan struct{}),
		forced:      make(chan struct{}),
		done:        make(chan struct{}),
		// Buffered so signal.Notify never drops a signal while we are busy.
		sigChan: make(chan os.Signal, 2),
	}

	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()

	return h
}

// Context is canceled by the first signal or by Stop.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted closes on the first signal.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// Forced closes on the second signal.
func (h *Handler) Forced() <-chan struct{} {
	return h.forced
}

// Signal returns the most recent signal, or nil if none arrived.
func (h *Handler) Signal() os.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Stop stops listening and releases the context. It is idempotent.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done)
		h.cancel()
	})
}

func (h *Handler) handleSignal(sig os.Signal) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.received++
	h.last = sig
	switch h.received {
	case 1:
		h.cancel()
		close(h.interrupted)
	case 2:
		close(h.forced)
	}
}

// listen runs until Stop. It keeps draining after the context is canceled
// so a second signal can still force an exit.
func (h *Handler) listen() {
	for {
		select {
		case <-h.done:
			return
		case sig := <-h.sigChan:
			h.handleSignal(sig)
		}
	}
}
