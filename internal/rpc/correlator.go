// Package rpc turns an unordered, fire-and-forget message channel into blocking
// request/response calls matched by caller-generated ids.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrNoChannel is returned when a call is made with no channel attached
	ErrNoChannel = errors.New("rpc: no channel attached")
	// ErrTerminated is returned to calls still pending when the correlator is closed
	ErrTerminated = errors.New("rpc: channel terminated")
	// ErrTransport wraps channel-level failures delivered to every pending call
	ErrTransport = errors.New("worker error")
	// ErrChannelAttached is returned by Attach when a live channel is already set
	ErrChannelAttached = errors.New("rpc: channel already attached")
)

// Reply is implemented by response messages that can be correlated
type Reply interface {
	// ReplyID echoes the id of the request being answered
	ReplyID() string
	// Err reports a per-request failure, nil on success
	Err() error
}

// Channel is the transport a Correlator drives.
// OnMessage and OnError are registered once, before the first Post.
type Channel[Req any, Resp Reply] interface {
	Post(req Req) error
	OnMessage(fn func(Resp))
	OnError(fn func(error))
	Terminate() error
}

// CallError is a per-request failure reported by the remote side
type CallError struct {
	ID      string
	Message string
}

func (e *CallError) Error() string {
	return e.Message
}

type outcome[Resp any] struct {
	resp Resp
	err  error
}

// Correlator matches replies to pending calls by id.
// It owns its pending map; no other code touches it.
type Correlator[Req any, Resp Reply] struct {
	mu      sync.Mutex
	ch      Channel[Req, Resp]
	pending map[string]chan outcome[Resp]
	onBusy  func(bool)
	newID   func() string

	// notifyMu serializes OnBusyChange delivery; delivered is the last value sent
	notifyMu  sync.Mutex
	delivered bool
}

// New creates a correlator with no channel attached
func New[Req any, Resp Reply]() *Correlator[Req, Resp] {
	return &Correlator[Req, Resp]{
		pending: make(map[string]chan outcome[Resp]),
		newID:   uuid.NewString,
	}
}

// OnBusyChange registers a callback fired whenever Busy flips.
// Deliveries are serialized and always carry the current Busy value, so the
// last call a consumer sees matches Busy(). The callback must not call Call.
func (c *Correlator[Req, Resp]) OnBusyChange(fn func(bool)) {
	c.mu.Lock()
	c.onBusy = fn
	c.mu.Unlock()
}

// Attach wires a channel. A channel can only be attached while none is live.
func (c *Correlator[Req, Resp]) Attach(ch Channel[Req, Resp]) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ch != nil {
		return ErrChannelAttached
	}

	ch.OnMessage(func(resp Resp) { c.handleReply(ch, resp) })
	ch.OnError(func(err error) { c.handleTransportError(ch, err) })
	c.ch = ch
	return nil
}

// Attached reports whether a live channel is set
func (c *Correlator[Req, Resp]) Attached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch != nil
}

// Busy is true iff at least one call is pending
func (c *Correlator[Req, Resp]) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) > 0
}

// Pending returns the number of calls awaiting a reply
func (c *Correlator[Req, Resp]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Call registers a fresh id, posts build(id) and blocks until the matching reply,
// a channel failure, termination, or ctx cancellation.
func (c *Correlator[Req, Resp]) Call(ctx context.Context, build func(id string) Req) (Resp, error) {
	var zero Resp

	c.mu.Lock()
	ch := c.ch
	if ch == nil {
		c.mu.Unlock()
		return zero, ErrNoChannel
	}
	id := c.newID()
	done := make(chan outcome[Resp], 1)
	c.pending[id] = done
	c.mu.Unlock()
	c.notifyBusy()

	if err := ch.Post(build(id)); err != nil {
		if c.settle(id, outcome[Resp]{err: fmt.Errorf("post request: %w", err)}) {
			out := <-done
			return zero, out.err
		}
		// Settled concurrently by a transport failure or Close.
		out := <-done
		return out.resp, out.err
	}

	select {
	case out := <-done:
		return out.resp, out.err
	case <-ctx.Done():
		if c.settle(id, outcome[Resp]{err: ctx.Err()}) {
			return zero, ctx.Err()
		}
		out := <-done
		return out.resp, out.err
	}
}

// Close terminates the attached channel and rejects every pending call with ErrTerminated.
// Closing with nothing attached is a no-op.
func (c *Correlator[Req, Resp]) Close() error {
	c.mu.Lock()
	ch := c.ch
	c.ch = nil
	rejected := c.drainLocked(ErrTerminated)
	c.mu.Unlock()

	c.notifyBusy()
	deliver(rejected)

	if ch == nil {
		return nil
	}
	return ch.Terminate()
}

func (c *Correlator[Req, Resp]) handleReply(from Channel[Req, Resp], resp Resp) {
	c.mu.Lock()
	stale := c.ch != from
	c.mu.Unlock()
	if stale {
		return
	}

	out := outcome[Resp]{resp: resp}
	if err := resp.Err(); err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "request failed"
		}
		var zero Resp
		out = outcome[Resp]{resp: zero, err: &CallError{ID: resp.ReplyID(), Message: msg}}
	}
	// Unknown ids (already settled, cancelled, or foreign) are dropped.
	c.settle(resp.ReplyID(), out)
}

func (c *Correlator[Req, Resp]) handleTransportError(from Channel[Req, Resp], cause error) {
	c.mu.Lock()
	if c.ch != from {
		c.mu.Unlock()
		return
	}
	c.ch = nil
	rejected := c.drainLocked(fmt.Errorf("%w: %v", ErrTransport, cause))
	c.mu.Unlock()

	c.notifyBusy()
	deliver(rejected)
}

// settle removes id from the pending map and delivers out to its caller.
// It reports false if id was not pending.
func (c *Correlator[Req, Resp]) settle(id string, out outcome[Resp]) bool {
	c.mu.Lock()
	done, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	c.notifyBusy()
	done <- out
	return true
}

type rejection[Resp any] struct {
	done chan outcome[Resp]
	err  error
}

func (c *Correlator[Req, Resp]) drainLocked(err error) []rejection[Resp] {
	out := make([]rejection[Resp], 0, len(c.pending))
	for id, done := range c.pending {
		out = append(out, rejection[Resp]{done: done, err: err})
		delete(c.pending, id)
	}
	return out
}

func deliver[Resp any](rejected []rejection[Resp]) {
	for _, r := range rejected {
		r.done <- outcome[Resp]{err: r.err}
	}
}

// notifyBusy sends the current Busy value to the callback if it differs from
// the last one delivered. It must be called without c.mu held.
func (c *Correlator[Req, Resp]) notifyBusy() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	busy := len(c.pending) > 0
	fn := c.onBusy
	c.mu.Unlock()

	if fn == nil || busy == c.delivered {
		return
	}
	c.delivered = busy
	fn(busy)
}
