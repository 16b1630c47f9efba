package worker

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/yildizm/logdesk/internal/rpc"
)

// blockingHandler holds requests whose content is "block" until release is closed
func blockingHandler(release <-chan struct{}) Handler {
	return func(req Request) Response {
		if req.Payload.Content == "block" {
			<-release
		}
		return Dispatch(req)
	}
}

func waitBusy(t *testing.T, c *Client, want bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Busy() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("Busy() = %v, want %v", c.Busy(), want)
}

func TestClientScenarios(t *testing.T) {
	c := NewClient()
	defer c.Close()
	ctx := context.Background()

	tests := []struct {
		name string
		call func() (Result, error)
		want Result
	}{
		{
			name: "load keeps tail",
			call: func() (Result, error) { return c.LoadLogs(ctx, "a\n\nb\nc", 2) },
			want: Result{Content: "b\nc", Lines: []string{"b", "c"}, TotalLines: 2},
		},
		{
			name: "filter ignores case",
			call: func() (Result, error) { return c.FilterLogs(ctx, "ERROR foo\nINFO bar\nERROR baz", "error") },
			want: Result{
				Content:       "ERROR foo\nERROR baz",
				Lines:         []string{"ERROR foo", "ERROR baz"},
				TotalLines:    3,
				FilteredCount: 2,
			},
		},
		{
			name: "filter without matches",
			call: func() (Result, error) { return c.FilterLogs(ctx, "INFO bar", "warn") },
			want: Result{Lines: []string{}, TotalLines: 1},
		},
		{
			name: "parse empty content",
			call: func() (Result, error) { return c.ParseLogs(ctx, "") },
			want: Result{Lines: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.call()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}

	if c.Busy() {
		t.Error("client should be idle after all calls returned")
	}
}

func TestClientConcurrentCalls(t *testing.T) {
	c := NewClient()
	defer c.Close()

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			line := fmt.Sprintf("line-%d", i)
			res, err := c.ParseLogs(context.Background(), line)
			if err != nil {
				errs <- err
				return
			}
			if !reflect.DeepEqual(res.Lines, []string{line}) {
				errs <- fmt.Errorf("call %d got %q", i, res.Lines)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if got := c.Stats().Requests; got != n {
		t.Errorf("Requests = %d, want %d", got, n)
	}
}

func TestClientCloseRejectsPending(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	c := NewClient(WithWorkerOptions(WithHandler(blockingHandler(release))))

	var busy []bool
	var mu sync.Mutex
	c.OnBusyChange(func(b bool) {
		mu.Lock()
		busy = append(busy, b)
		mu.Unlock()
	})

	errc := make(chan error, 1)
	go func() {
		_, err := c.ParseLogs(context.Background(), "block")
		errc <- err
	}()
	waitBusy(t, c, true)

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-errc:
		if !errors.Is(err, rpc.ErrTerminated) {
			t.Errorf("pending call error = %v, want rpc.ErrTerminated", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending call was not rejected by Close")
	}

	if _, err := c.ParseLogs(context.Background(), "a"); !errors.Is(err, ErrClosed) {
		t.Errorf("call after Close = %v, want ErrClosed", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(busy, []bool{true, false}) {
		t.Errorf("busy transitions = %v, want [true false]", busy)
	}
}

func TestClientReopen(t *testing.T) {
	c := NewClient()
	if err := c.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Open(); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("second Open = %v, want ErrAlreadyOpen", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Open(); err != nil {
		t.Fatalf("Open after Close: %v", err)
	}
	defer c.Close()

	res, err := c.ParseLogs(context.Background(), "x\ny")
	if err != nil {
		t.Fatalf("ParseLogs after reopen: %v", err)
	}
	if res.TotalLines != 2 {
		t.Errorf("TotalLines = %d, want 2", res.TotalLines)
	}
}

func TestClientWorkerCrash(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	c := NewClient(WithWorkerOptions(WithHandler(blockingHandler(release))))
	defer c.Close()

	errc := make(chan error, 1)
	go func() {
		_, err := c.LoadLogs(context.Background(), "block", 0)
		errc <- err
	}()
	waitBusy(t, c, true)

	c.mu.Lock()
	w := c.worker
	c.mu.Unlock()
	w.crash(errors.New("out of memory"))

	select {
	case err := <-errc:
		if !errors.Is(err, rpc.ErrTransport) {
			t.Errorf("pending call error = %v, want rpc.ErrTransport", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending call was not rejected on crash")
	}
	waitBusy(t, c, false)

	if _, err := c.ParseLogs(context.Background(), "a"); !errors.Is(err, rpc.ErrNoChannel) {
		t.Errorf("call after crash = %v, want rpc.ErrNoChannel", err)
	}

	if err := c.Open(); err != nil {
		t.Fatalf("Open after crash: %v", err)
	}
	res, err := c.ParseLogs(context.Background(), "a")
	if err != nil || !reflect.DeepEqual(res.Lines, []string{"a"}) {
		t.Errorf("ParseLogs after reopen = %+v, %v", res, err)
	}
}

func TestClientContentLimit(t *testing.T) {
	c := NewClient(WithMaxContentBytes(4))
	defer c.Close()

	res, err := c.ParseLogs(context.Background(), "too long")
	if !errors.Is(err, ErrContentTooLarge) {
		t.Fatalf("err = %v, want ErrContentTooLarge", err)
	}
	if res.Lines == nil {
		t.Error("Lines should be empty, not nil, on failure")
	}

	if _, err := c.ParseLogs(context.Background(), "ok"); err != nil {
		t.Errorf("small payload rejected: %v", err)
	}
}

func TestClientContextCancel(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	c := NewClient(WithWorkerOptions(WithHandler(blockingHandler(release))))
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.ParseLogs(ctx, "block")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
	if c.Busy() {
		t.Error("cancelled call should not stay pending")
	}
}
