package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mrz1836/zipsign/internal/signing"
)

// Pump is the only reader of a worker stream while the sign view runs.
//
// Each message is handed to the program and Run waits until the model has
// applied it. If the view goes away first, the message it never applied and
// everything after it are passed on through Rest so the caller can finish
// the stream without losing the outcome.
type Pump struct {
	src  <-chan signing.Message
	rest chan signing.Message
}

// NewPump creates a Pump over the worker's message channel.
func NewPump(src <-chan signing.Message) *Pump {
	return &Pump{src: src, rest: make(chan signing.Message)}
}

// Rest yields the messages the view did not apply. It is closed when Run
// returns. The caller must drain it after closing viewDone.
func (p *Pump) Rest() <-chan signing.Message {
	return p.rest
}

// Run forwards the stream with send, usually tea.Program.Send, until the
// worker closes it. viewDone must be closed once the program has exited.
func (p *Pump) Run(send func(tea.Msg), viewDone <-chan struct{}) {
	defer close(p.rest)

	for msg := range p.src {
		if p.deliver(send, workerMsg{msg: msg, ok: true}, viewDone) {
			continue
		}
		p.rest <- msg
		for msg := range p.src {
			p.rest <- msg
		}
		return
	}

	// The closed channel is reported too so the view can resolve a stream
	// that ended without an outcome. Closing rest does the same for the caller.
	p.deliver(send, workerMsg{}, viewDone)
}

// deliver reports whether the view applied wm.
func (p *Pump) deliver(send func(tea.Msg), wm workerMsg, viewDone <-chan struct{}) bool {
	wm.ack = make(chan struct{})
	send(wm)

	select {
	case <-wm.ack:
		return true
	case <-viewDone:
	}
	// Update never runs after the program exits, so this answer is final.
	select {
	case <-wm.ack:
		return true
	default:
		return false
	}
}
