package state

import (
	"context"
	"testing"
	"time"
)

func TestRunJanitorSweepsExpiredSessions(t *testing.T) {
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(Options{IdleTimeout: time.Minute, Now: func() time.Time { return past }})
	s.SetState(1, "awaiting_price")
	s.SetTempData(2, "price", int64(5))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunJanitor(ctx, s, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for s.Len() != 0 {
		select {
		case <-deadline:
			t.Fatalf("sessions left after sweep: %d", s.Len())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop on cancel")
	}
}

func TestRunJanitorDisabled(t *testing.T) {
	done := make(chan struct{})
	go func() {
		RunJanitor(context.Background(), NewMemoryStore(Options{}), 0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor with zero interval should return immediately")
	}
}
