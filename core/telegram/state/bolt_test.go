package state

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestBolt(t *testing.T, path string, opts Options) Store {
	t.Helper()
	s, err := OpenBoltStore(path, opts)
	if err != nil {
		t.Fatalf("open bolt store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBoltStore(t *testing.T) {
	storeContract(t, func(t *testing.T, opts Options) Store {
		return openTestBolt(t, filepath.Join(t.TempDir(), "sessions.db"), opts)
	})
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := OpenBoltStore(path, Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sess := s.Snapshot(42)
	sess.State = "awaiting_description"
	sess.TempData["transaction_type"] = "Increase"
	sess.TempData["price"] = int64(50000)
	sess.TempData["description_prompt_id"] = 17
	if err := s.Commit(42, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openTestBolt(t, path, Options{})
	got := reopened.Snapshot(42)
	if got.State != "awaiting_description" {
		t.Fatalf("state = %q", got.State)
	}
	if v, _ := got.Temp("price"); v != int64(50000) {
		t.Fatalf("price = %#v, want int64", v)
	}
	if v, _ := got.Temp("description_prompt_id"); v != 17 {
		t.Fatalf("prompt id = %#v, want int", v)
	}
}

func TestBoltStoreRejectsUnsupportedValues(t *testing.T) {
	s := openTestBolt(t, filepath.Join(t.TempDir(), "sessions.db"), Options{})
	sess := s.Snapshot(1)
	sess.State = "awaiting_price"
	sess.TempData["bad"] = struct{}{}
	if err := s.Commit(1, sess); !errors.Is(err, ErrUnsupportedValue) {
		t.Fatalf("commit err = %v, want ErrUnsupportedValue", err)
	}
	if s.Len() != 0 {
		t.Fatalf("failed commit must not store anything")
	}
}
