package rpc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type testReq struct {
	ID string
	N  int
}

type testResp struct {
	ID     string
	N      int
	Failed bool
	Msg    string
}

func (r testResp) ReplyID() string { return r.ID }

func (r testResp) Err() error {
	if !r.Failed {
		return nil
	}
	return errors.New(r.Msg)
}

type fakeChannel struct {
	mu         sync.Mutex
	posted     chan testReq
	onMsg      func(testResp)
	onErr      func(error)
	terminated bool
	postErr    error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{posted: make(chan testReq, 64)}
}

func (f *fakeChannel) Post(req testReq) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return f.postErr
	}
	f.posted <- req
	return nil
}

func (f *fakeChannel) OnMessage(fn func(testResp)) { f.onMsg = fn }
func (f *fakeChannel) OnError(fn func(error))      { f.onErr = fn }

func (f *fakeChannel) Terminate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminated = true
	return nil
}

func (f *fakeChannel) next(t *testing.T) testReq {
	t.Helper()
	select {
	case req := <-f.posted:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a posted request")
		return testReq{}
	}
}

type callResult struct {
	n    int
	resp testResp
	err  error
}

func startCall(c *Correlator[testReq, testResp], n int, results chan<- callResult) {
	go func() {
		resp, err := c.Call(context.Background(), func(id string) testReq {
			return testReq{ID: id, N: n}
		})
		results <- callResult{n: n, resp: resp, err: err}
	}()
}

func newAttached(t *testing.T) (*Correlator[testReq, testResp], *fakeChannel) {
	t.Helper()
	c := New[testReq, testResp]()
	ch := newFakeChannel()
	if err := c.Attach(ch); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	return c, ch
}

func TestCallResolvesByIDRegardlessOfOrder(t *testing.T) {
	c, ch := newAttached(t)

	const calls = 10
	results := make(chan callResult, calls)
	for i := 0; i < calls; i++ {
		startCall(c, i, results)
	}

	reqs := make([]testReq, 0, calls)
	seen := make(map[string]bool)
	for i := 0; i < calls; i++ {
		req := ch.next(t)
		if seen[req.ID] {
			t.Fatalf("duplicate request id %s", req.ID)
		}
		seen[req.ID] = true
		reqs = append(reqs, req)
	}

	// Reply in reverse arrival order.
	for i := len(reqs) - 1; i >= 0; i-- {
		ch.onMsg(testResp{ID: reqs[i].ID, N: reqs[i].N * 10})
	}

	for i := 0; i < calls; i++ {
		r := <-results
		if r.err != nil {
			t.Fatalf("call %d failed: %v", r.n, r.err)
		}
		if r.resp.N != r.n*10 {
			t.Errorf("call %d resolved with %d, want %d", r.n, r.resp.N, r.n*10)
		}
	}

	if c.Pending() != 0 || c.Busy() {
		t.Errorf("expected idle correlator, pending=%d", c.Pending())
	}
}

func TestCallPerRequestFailure(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		wantMsg string
	}{
		{name: "reported message", msg: "unknown request kind: bogus", wantMsg: "unknown request kind: bogus"},
		{name: "default message", msg: "", wantMsg: "request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ch := newAttached(t)
			results := make(chan callResult, 2)
			startCall(c, 1, results)
			startCall(c, 2, results)

			first := ch.next(t)
			second := ch.next(t)
			ch.onMsg(testResp{ID: first.ID, Failed: true, Msg: tt.msg})

			r := <-results
			var callErr *CallError
			if !errors.As(r.err, &callErr) {
				t.Fatalf("expected *CallError, got %v", r.err)
			}
			if callErr.Message != tt.wantMsg || callErr.ID != first.ID {
				t.Errorf("got %+v, want message %q for id %s", callErr, tt.wantMsg, first.ID)
			}

			// The other call is unaffected.
			if c.Pending() != 1 {
				t.Errorf("Pending() = %d, want 1", c.Pending())
			}
			ch.onMsg(testResp{ID: second.ID, N: 7})
			if r := <-results; r.err != nil || r.resp.N != 7 {
				t.Errorf("second call = %+v", r)
			}
		})
	}
}

func TestTransportErrorRejectsAllPending(t *testing.T) {
	c, ch := newAttached(t)

	results := make(chan callResult, 3)
	for i := 0; i < 3; i++ {
		startCall(c, i, results)
	}
	for i := 0; i < 3; i++ {
		ch.next(t)
	}

	ch.onErr(errors.New("runtime crashed"))

	for i := 0; i < 3; i++ {
		r := <-results
		if !errors.Is(r.err, ErrTransport) {
			t.Errorf("call %d error = %v, want ErrTransport", r.n, r.err)
		}
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d after transport error", c.Pending())
	}
	if c.Attached() {
		t.Error("crashed channel should be detached")
	}

	if _, err := c.Call(context.Background(), func(id string) testReq { return testReq{ID: id} }); !errors.Is(err, ErrNoChannel) {
		t.Errorf("call after crash error = %v, want ErrNoChannel", err)
	}

	// A fresh channel works independently.
	fresh := newFakeChannel()
	if err := c.Attach(fresh); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	startCall(c, 42, results)
	req := fresh.next(t)
	fresh.onMsg(testResp{ID: req.ID, N: 42})
	if r := <-results; r.err != nil || r.resp.N != 42 {
		t.Errorf("call on fresh channel = %+v", r)
	}

	// Late failures from the old channel are ignored.
	startCall(c, 43, results)
	req = fresh.next(t)
	ch.onErr(errors.New("late"))
	if c.Pending() != 1 {
		t.Errorf("stale channel error touched pending calls")
	}
	fresh.onMsg(testResp{ID: req.ID, N: 43})
	<-results
}

func TestCallWithoutChannel(t *testing.T) {
	c := New[testReq, testResp]()
	built := false
	_, err := c.Call(context.Background(), func(id string) testReq {
		built = true
		return testReq{ID: id}
	})
	if !errors.Is(err, ErrNoChannel) {
		t.Errorf("error = %v, want ErrNoChannel", err)
	}
	if built {
		t.Error("request should not be built without a channel")
	}
	if c.Busy() {
		t.Error("correlator should not be busy")
	}
}

func TestBusyTracksPendingCalls(t *testing.T) {
	c, ch := newAttached(t)

	var mu sync.Mutex
	var transitions []bool
	c.OnBusyChange(func(busy bool) {
		mu.Lock()
		transitions = append(transitions, busy)
		mu.Unlock()
	})

	results := make(chan callResult, 2)
	startCall(c, 1, results)
	startCall(c, 2, results)
	a := ch.next(t)
	b := ch.next(t)

	if !c.Busy() {
		t.Fatal("expected busy with pending calls")
	}

	ch.onMsg(testResp{ID: a.ID})
	<-results
	if !c.Busy() {
		t.Error("still one call pending, expected busy")
	}

	ch.onMsg(testResp{ID: b.ID})
	<-results
	if c.Busy() {
		t.Error("expected idle once the map is empty")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 2 || !transitions[0] || transitions[1] {
		t.Errorf("transitions = %v, want [true false]", transitions)
	}
}

func TestBusyCallbacksFollowConcurrentSettlements(t *testing.T) {
	c, ch := newAttached(t)

	var mu sync.Mutex
	var transitions []bool
	c.OnBusyChange(func(busy bool) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		transitions = append(transitions, busy)
		mu.Unlock()
	})

	const calls = 8
	for round := 0; round < 20; round++ {
		results := make(chan callResult, calls)
		for i := 0; i < calls; i++ {
			startCall(c, i, results)
		}

		var wg sync.WaitGroup
		for i := 0; i < calls; i++ {
			req := ch.next(t)
			wg.Add(1)
			go func() {
				defer wg.Done()
				ch.onMsg(testResp{ID: req.ID, N: req.N})
			}()
		}
		wg.Wait()
		for i := 0; i < calls; i++ {
			if r := <-results; r.err != nil {
				t.Fatalf("call %d: %v", r.n, r.err)
			}
		}

		if c.Busy() {
			t.Fatal("expected idle after every call settled")
		}
		mu.Lock()
		last := transitions[len(transitions)-1]
		for i := 1; i < len(transitions); i++ {
			if transitions[i] == transitions[i-1] {
				t.Fatalf("round %d: repeated transition in %v", round, transitions)
			}
		}
		mu.Unlock()
		if last {
			t.Fatalf("round %d: last callback reported busy while idle", round)
		}
	}
}

func TestCloseRejectsPendingAndTerminates(t *testing.T) {
	c, ch := newAttached(t)
	results := make(chan callResult, 1)
	startCall(c, 1, results)
	ch.next(t)

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	r := <-results
	if !errors.Is(r.err, ErrTerminated) {
		t.Errorf("error = %v, want ErrTerminated", r.err)
	}
	if !ch.terminated {
		t.Error("channel was not terminated")
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestCallContextCancellation(t *testing.T) {
	c, ch := newAttached(t)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Call(ctx, func(id string) testReq { return testReq{ID: id} })
		errCh <- err
	}()
	req := ch.next(t)
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d after cancellation", c.Pending())
	}

	// A late reply for the abandoned id is dropped.
	ch.onMsg(testResp{ID: req.ID})
	if c.Busy() {
		t.Error("late reply should not change state")
	}
}

func TestCallPostFailure(t *testing.T) {
	c, ch := newAttached(t)
	ch.postErr = errors.New("queue closed")

	_, err := c.Call(context.Background(), func(id string) testReq { return testReq{ID: id} })
	if err == nil || !errors.Is(err, ch.postErr) {
		t.Errorf("error = %v, want wrapped post error", err)
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d after failed post", c.Pending())
	}
}

func TestAttachTwice(t *testing.T) {
	c, _ := newAttached(t)
	if err := c.Attach(newFakeChannel()); !errors.Is(err, ErrChannelAttached) {
		t.Errorf("error = %v, want ErrChannelAttached", err)
	}
}
