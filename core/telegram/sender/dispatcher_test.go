package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m3rciful/ledgerbot/core/logger"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return timeoutErr{}
		}
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("job did not succeed, calls=%d", calls.Load())
	}
	d.Close()
	if d.ErrorCount() != 0 {
		t.Fatalf("error count = %d", d.ErrorCount())
	}
}

func TestDispatcherCountsPermanentFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	_ = d.Enqueue(context.Background(), "callback.answer", "answerCallbackQuery", func() error {
		calls.Add(1)
		return errors.New("bad request")
	})
	d.Close()
	if calls.Load() != 1 {
		t.Fatalf("permanent error retried %d times", calls.Load())
	}
	if d.ErrorCount() != 1 {
		t.Fatalf("error count = %d, want 1", d.ErrorCount())
	}
}

func TestEnqueueOrRunAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	if err := d.Enqueue(context.Background(), "x", "", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("enqueue after close = %v", err)
	}
	ran := false
	if err := d.EnqueueOrRun(context.Background(), "x", "", func() error { ran = true; return nil }); err != nil || !ran {
		t.Fatalf("inline fallback: ran=%v err=%v", ran, err)
	}

	var nilDispatcher *Dispatcher
	ran = false
	if err := nilDispatcher.EnqueueOrRun(context.Background(), "x", "", func() error { ran = true; return nil }); err != nil || !ran {
		t.Fatalf("nil dispatcher: ran=%v err=%v", ran, err)
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AAH-x_y/sendMessage": EOF`)
	got := sanitizeErrorMessage(err)
	want := `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF`
	if got != want {
		t.Fatalf("sanitize = %q, want %q", got, want)
	}
}

func TestDispatcherKeepsChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 64})
	ctx := logger.WithUpdateMeta(context.Background(), 1, 2, -1001)

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 10; i++ {
		i := i
		if err := d.Enqueue(ctx, "send.text", "sendMessage", func() error {
			time.Sleep(time.Duration(10-i) * 100 * time.Microsecond)
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	d.Close()

	for i, v := range got {
		if v != i {
			t.Fatalf("chat jobs ran out of order: %v", got)
		}
	}
	if len(got) != 10 {
		t.Fatalf("ran %d jobs, want 10", len(got))
	}
}

func TestDispatcherGivesUpAfterMaxDuration(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 10, RetryBackoff: time.Hour, MaxDuration: 20 * time.Millisecond})
	var calls atomic.Int32
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		calls.Add(1)
		return timeoutErr{}
	})
	done := make(chan struct{})
	go func() { d.Close(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job kept waiting past MaxDuration")
	}
	if calls.Load() != 1 || d.ErrorCount() != 1 {
		t.Fatalf("calls=%d errors=%d", calls.Load(), d.ErrorCount())
	}
}
