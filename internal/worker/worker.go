// Package worker runs the line processor off the caller's goroutine.
//
// A Worker accepts Requests through Post, handles them one at a time in arrival
// order on its own goroutine, and emits one Response per Request through the
// OnMessage callback. Failures while handling a request come back as a failed
// Response with the same id; OnError is reserved for the worker itself breaking.
package worker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yildizm/logdesk/internal/logger"
	"github.com/yildizm/logdesk/internal/monitor"
)

var (
	// ErrNotStarted is returned by Post before Start
	ErrNotStarted = errors.New("worker: not started")
	// ErrAlreadyStarted is returned by a second Start
	ErrAlreadyStarted = errors.New("worker: already started")
	// ErrTerminated is returned once the worker has terminated
	ErrTerminated = errors.New("worker: terminated")
	// ErrWorkerCrashed wraps the cause passed to OnError
	ErrWorkerCrashed = errors.New("worker crashed")
)

// Option configures a Worker
type Option func(*Worker)

// WithHandler replaces the default Dispatch handler
func WithHandler(h Handler) Option {
	return func(w *Worker) {
		w.handler = h
	}
}

// WithLogger sets the logger used for processing diagnostics
func WithLogger(l *logger.Logger) Option {
	return func(w *Worker) {
		w.log = l
	}
}

// Worker is a single-goroutine request processor with an unbounded FIFO inbox
type Worker struct {
	mu    sync.Mutex
	state State
	queue []Request

	wake chan struct{}
	quit chan struct{}
	done chan struct{}

	handler   Handler
	onMessage func(Response)
	onError   func(error)

	metrics *monitor.Processing
	log     *logger.Logger
}

// New creates a worker in the Created state
func New(opts ...Option) *Worker {
	w := &Worker{
		state:   StateCreated,
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		handler: Dispatch,
		metrics: monitor.NewProcessing(),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OnMessage sets the response callback. It must be set before Start.
func (w *Worker) OnMessage(fn func(Response)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onMessage = fn
}

// OnError sets the crash callback. It must be set before Start.
func (w *Worker) OnError(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// Start moves the worker from Created to Ready and launches its goroutine
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateCreated:
	case StateTerminated:
		return ErrTerminated
	default:
		return ErrAlreadyStarted
	}

	w.state = StateReady
	go w.loop()
	return nil
}

// Post enqueues a request without waiting for it to be processed
func (w *Worker) Post(req Request) error {
	w.mu.Lock()
	switch w.state {
	case StateCreated:
		w.mu.Unlock()
		return ErrNotStarted
	case StateTerminated:
		w.mu.Unlock()
		return ErrTerminated
	}
	w.queue = append(w.queue, req)
	w.metrics.Enqueued()
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Terminate stops the worker and drops queued requests. Terminating twice
// returns ErrTerminated. It does not wait for an in-flight request; use Done.
func (w *Worker) Terminate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateTerminated {
		return ErrTerminated
	}
	started := w.state != StateCreated
	w.state = StateTerminated
	w.dropQueueLocked()

	if started {
		close(w.quit)
	} else {
		close(w.done)
	}
	return nil
}

// State returns the current lifecycle stage
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Done is closed once the worker goroutine has exited
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Stats returns processing metrics
func (w *Worker) Stats() monitor.ProcessingStats {
	return w.metrics.Snapshot()
}

func (w *Worker) loop() {
	defer close(w.done)

	for {
		select {
		case <-w.quit:
			return
		case <-w.wake:
		}

		for {
			req, ok := w.dequeue()
			if !ok {
				break
			}

			resp := w.handle(req)
			if !w.deliver(resp) {
				return
			}
		}
	}
}

func (w *Worker) dequeue() (Request, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateTerminated || len(w.queue) == 0 {
		if w.state == StateProcessing {
			w.state = StateReady
		}
		return Request{}, false
	}

	req := w.queue[0]
	w.queue[0] = Request{}
	w.queue = w.queue[1:]
	w.state = StateProcessing
	w.metrics.Dequeued()
	return req, true
}

// handle runs the handler, turning a panic into a failed response for the same id
func (w *Worker) handle(req Request) (resp Response) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.log.Warn("recovered while handling %s request %s: %v", req.Kind, req.ID, r)
			resp = Response{
				ID:    req.ID,
				Kind:  req.Kind,
				Error: fmt.Sprintf("failed to process %s: %v", req.Kind, r),
			}
		}

		lineCount := 0
		if resp.Data != nil {
			lineCount = len(resp.Data.Lines)
		}
		elapsed := time.Since(start)
		w.metrics.Done(elapsed, len(req.Payload.Content), lineCount, resp.Success)
		w.log.DebugWithFields("processed request", []logger.Field{
			logger.ID(req.ID), logger.F("kind", req.Kind), logger.Count(lineCount), logger.Duration(elapsed),
		})
	}()

	resp = w.handler(req)
	resp.ID = req.ID
	resp.Kind = req.Kind
	return resp
}

// deliver hands resp to OnMessage. It reports false if the worker must stop.
func (w *Worker) deliver(resp Response) (ok bool) {
	w.mu.Lock()
	if w.state == StateTerminated {
		w.mu.Unlock()
		return false
	}
	fn := w.onMessage
	w.mu.Unlock()

	if fn == nil {
		return true
	}

	defer func() {
		if r := recover(); r != nil {
			w.crash(fmt.Errorf("%w: delivering response %s: %v", ErrWorkerCrashed, resp.ID, r))
			ok = false
		}
	}()
	fn(resp.clone())
	return true
}

// crash terminates the worker from its own goroutine and reports cause once
func (w *Worker) crash(cause error) {
	w.mu.Lock()
	if w.state == StateTerminated {
		w.mu.Unlock()
		return
	}
	w.state = StateTerminated
	w.dropQueueLocked()
	close(w.quit)
	fn := w.onError
	w.mu.Unlock()

	w.log.Error("%v", cause)
	if fn != nil {
		fn(cause)
	}
}

func (w *Worker) dropQueueLocked() {
	for range w.queue {
		w.metrics.Dequeued()
	}
	w.queue = nil
}
