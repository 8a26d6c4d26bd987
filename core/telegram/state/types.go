package state

import (
	"maps"
	"time"
)

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation in the chat.
	StateIdle State = "idle"
)

// Session stores conversation state and temporary data for a chat.
type Session struct {
	ChatID    int64
	State     State
	TempData  map[string]any
	UpdatedAt time.Time
}

// Temp returns the value stored under key.
func (s Session) Temp(key string) (any, bool) {
	v, ok := s.TempData[key]
	return v, ok
}

// IsIdle reports whether the session carries no active conversation and no data.
func (s Session) IsIdle() bool {
	return (s.State == "" || s.State == StateIdle) && len(s.TempData) == 0
}

func (s Session) clone() Session {
	out := s
	if out.State == "" {
		out.State = StateIdle
	}
	out.TempData = maps.Clone(s.TempData)
	if out.TempData == nil {
		out.TempData = make(map[string]any)
	}
	return out
}

func emptySession(chatID int64) Session {
	return Session{ChatID: chatID, State: StateIdle, TempData: make(map[string]any)}
}

// Store owns every chat session of a bot. Reads never fail: a missing or
// expired session reads as idle with an empty bag.
type Store interface {
	GetState(chatID int64) State
	// SetState creates the session when absent.
	SetState(chatID int64, st State)
	// ClearState returns the chat to idle and keeps temporary data.
	ClearState(chatID int64)

	SetTempData(chatID int64, key string, value any)
	// GetTempData returns def when key is not set.
	GetTempData(chatID int64, key string, def any) any
	ClearTempData(chatID int64)

	// Reset drops state and temporary data in one step.
	Reset(chatID int64) error
	// Snapshot returns a copy that callers may modify freely.
	Snapshot(chatID int64) Session
	// Commit replaces state and temporary data in one step.
	Commit(chatID int64, sess Session) error

	// Lock serializes read-modify-write sequences for one chat. Chats never
	// share a lock. The returned func releases it and is safe to call twice.
	Lock(chatID int64) (unlock func())

	// Sweep removes sessions idle for longer than the configured timeout and
	// returns how many were dropped.
	Sweep(now time.Time) int
	Len() int
	Close() error
}

// Options tunes a Store.
type Options struct {
	// IdleTimeout expires sessions that were not written for that long; 0 keeps them forever.
	IdleTimeout time.Duration
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) expired(sess Session, now time.Time) bool {
	return o.IdleTimeout > 0 && !sess.UpdatedAt.IsZero() && now.Sub(sess.UpdatedAt) > o.IdleTimeout
}
