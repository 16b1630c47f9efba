package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yildizm/logdesk/internal/logger"
	"github.com/yildizm/logdesk/internal/monitor"
	"github.com/yildizm/logdesk/internal/rpc"
)

var (
	// ErrClosed is returned by calls made after Close and before the next Open
	ErrClosed = errors.New("worker client: closed")
	// ErrAlreadyOpen is returned by Open while a live worker exists
	ErrAlreadyOpen = errors.New("worker client: already open")
	// ErrContentTooLarge is returned when a payload exceeds the configured limit
	ErrContentTooLarge = errors.New("worker client: content too large")
)

// Result is the normalized outcome of a client call. Lines is never nil.
type Result struct {
	Content       string   `json:"content"`
	Lines         []string `json:"lines"`
	TotalLines    int      `json:"totalLines"`
	FilteredCount int      `json:"filteredCount"`
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithWorkerOptions passes options to every worker the client creates
func WithWorkerOptions(opts ...Option) ClientOption {
	return func(c *Client) {
		c.workerOpts = append(c.workerOpts, opts...)
	}
}

// WithClientLogger sets the client logger; it is shared with the worker
func WithClientLogger(l *logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// WithMaxContentBytes rejects payloads larger than n bytes; n <= 0 disables the check
func WithMaxContentBytes(n int) ClientOption {
	return func(c *Client) {
		c.maxContent = n
	}
}

// Client gives blocking LoadLogs/ParseLogs/FilterLogs calls on top of one Worker.
// The worker is created on first use (or Open) and terminated by Close.
type Client struct {
	mu         sync.Mutex
	corr       *rpc.Correlator[Request, Response]
	worker     *Worker
	opened     bool
	closed     bool
	workerOpts []Option
	maxContent int
	log        *logger.Logger
}

// NewClient creates a client without starting a worker
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		corr: rpc.New[Request, Response](),
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open creates and starts a fresh worker. It fails while the current one is alive.
func (c *Client) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openLocked()
}

func (c *Client) openLocked() error {
	if c.worker != nil && c.worker.State() != StateTerminated {
		return ErrAlreadyOpen
	}

	opts := append([]Option{WithLogger(c.log)}, c.workerOpts...)
	w := New(opts...)
	if err := c.corr.Attach(w); err != nil {
		return fmt.Errorf("attach worker: %w", err)
	}
	if err := w.Start(); err != nil {
		_ = c.corr.Close()
		return fmt.Errorf("start worker: %w", err)
	}

	c.worker = w
	c.opened = true
	c.closed = false
	c.log.Debug("worker started")
	return nil
}

// Close terminates the worker and rejects every pending call
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.worker = nil
	c.mu.Unlock()

	c.log.Debug("worker closing")
	if err := c.corr.Close(); err != nil && !errors.Is(err, ErrTerminated) {
		return err
	}
	return nil
}

// Busy is true while any call is waiting for its response
func (c *Client) Busy() bool {
	return c.corr.Busy()
}

// OnBusyChange registers a callback fired when Busy flips
func (c *Client) OnBusyChange(fn func(bool)) {
	c.corr.OnBusyChange(fn)
}

// Stats returns the current worker's processing metrics
func (c *Client) Stats() monitor.ProcessingStats {
	c.mu.Lock()
	w := c.worker
	c.mu.Unlock()
	if w == nil {
		return monitor.ProcessingStats{}
	}
	return w.Stats()
}

// LoadLogs keeps the last tail lines of content (all when tail <= 0) and parses them
func (c *Client) LoadLogs(ctx context.Context, content string, tail int) (Result, error) {
	return c.call(ctx, KindLoadLogs, Payload{Content: content, Tail: tail})
}

// ParseLogs splits content into non-blank lines
func (c *Client) ParseLogs(ctx context.Context, content string) (Result, error) {
	return c.call(ctx, KindParseLogs, Payload{Content: content})
}

// FilterLogs keeps the lines of content containing filter, ignoring case
func (c *Client) FilterLogs(ctx context.Context, content, filter string) (Result, error) {
	return c.call(ctx, KindFilterLogs, Payload{Content: content, Filter: filter})
}

func (c *Client) call(ctx context.Context, kind Kind, payload Payload) (Result, error) {
	empty := Result{Lines: []string{}}

	if c.maxContent > 0 && len(payload.Content) > c.maxContent {
		return empty, fmt.Errorf("%w: %d bytes (limit %d)", ErrContentTooLarge, len(payload.Content), c.maxContent)
	}
	if err := c.ensureOpen(); err != nil {
		return empty, err
	}

	resp, err := c.corr.Call(ctx, func(id string) Request {
		return Request{ID: id, Kind: kind, Payload: payload}
	})
	if err != nil {
		return empty, fmt.Errorf("%s: %w", kind, err)
	}
	return normalize(resp.Data), nil
}

func (c *Client) ensureOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.opened {
		return c.openLocked()
	}
	return nil
}

func normalize(data *ResponseData) Result {
	if data == nil {
		return Result{Lines: []string{}}
	}
	res := Result{
		Content:       data.Content,
		Lines:         data.Lines,
		TotalLines:    data.TotalLines,
		FilteredCount: data.FilteredCount,
	}
	if res.Lines == nil {
		res.Lines = []string{}
	}
	return res
}
