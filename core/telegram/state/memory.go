package state

import (
	"sync"
	"time"
)

const shardCount = 32

type shard struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

type memoryStore struct {
	opts   Options
	shards [shardCount]shard
	locks  *keyedMutex
}

// NewMemoryStore constructs an in-memory Store sharded by chat id.
func NewMemoryStore(opts Options) Store {
	s := &memoryStore{opts: opts, locks: newKeyedMutex()}
	for i := range s.shards {
		s.shards[i].sessions = make(map[int64]*Session)
	}
	return s
}

func (m *memoryStore) shardFor(chatID int64) *shard {
	return &m.shards[uint64(chatID)%shardCount]
}

// live returns the stored session unless it expired. Callers hold at least the read lock.
func (m *memoryStore) live(sh *shard, chatID int64, now time.Time) (*Session, bool) {
	sess, ok := sh.sessions[chatID]
	if !ok || m.opts.expired(*sess, now) {
		return nil, false
	}
	return sess, true
}

// mutate runs fn on the chat's session, creating it when absent or expired.
func (m *memoryStore) mutate(chatID int64, fn func(*Session)) {
	sh := m.shardFor(chatID)
	now := m.opts.now()
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sess, ok := m.live(sh, chatID, now)
	if !ok {
		fresh := emptySession(chatID)
		sess = &fresh
		sh.sessions[chatID] = sess
	}
	fn(sess)
	sess.UpdatedAt = now
}

// GetState returns the chat's state, or StateIdle if none exists.
func (m *memoryStore) GetState(chatID int64) State {
	sh := m.shardFor(chatID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if sess, ok := m.live(sh, chatID, m.opts.now()); ok {
		return sess.State
	}
	return StateIdle
}

// SetState updates the state for a chat, creating a new session if necessary.
func (m *memoryStore) SetState(chatID int64, st State) {
	m.mutate(chatID, func(s *Session) { s.State = st })
}

// ClearState resets the state to idle without removing session data.
func (m *memoryStore) ClearState(chatID int64) {
	sh := m.shardFor(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sess, ok := m.live(sh, chatID, m.opts.now()); ok {
		sess.State = StateIdle
	}
}

// SetTempData stores a temporary key/value pair for the chat.
func (m *memoryStore) SetTempData(chatID int64, key string, value any) {
	m.mutate(chatID, func(s *Session) { s.TempData[key] = value })
}

// GetTempData retrieves a temporary value or def when it is not set.
func (m *memoryStore) GetTempData(chatID int64, key string, def any) any {
	sh := m.shardFor(chatID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if sess, ok := m.live(sh, chatID, m.opts.now()); ok {
		if v, found := sess.TempData[key]; found {
			return v
		}
	}
	return def
}

// ClearTempData removes every temporary value of the chat.
func (m *memoryStore) ClearTempData(chatID int64) {
	sh := m.shardFor(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sess, ok := m.live(sh, chatID, m.opts.now()); ok {
		sess.TempData = make(map[string]any)
	}
}

// Reset removes the entire session for a chat.
func (m *memoryStore) Reset(chatID int64) error {
	sh := m.shardFor(chatID)
	sh.mu.Lock()
	delete(sh.sessions, chatID)
	sh.mu.Unlock()
	return nil
}

func (m *memoryStore) Snapshot(chatID int64) Session {
	sh := m.shardFor(chatID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if sess, ok := m.live(sh, chatID, m.opts.now()); ok {
		return sess.clone()
	}
	return emptySession(chatID)
}

func (m *memoryStore) Commit(chatID int64, sess Session) error {
	next := sess.clone()
	next.ChatID = chatID
	if next.IsIdle() {
		return m.Reset(chatID)
	}
	next.UpdatedAt = m.opts.now()
	sh := m.shardFor(chatID)
	sh.mu.Lock()
	sh.sessions[chatID] = &next
	sh.mu.Unlock()
	return nil
}

func (m *memoryStore) Lock(chatID int64) func() {
	return m.locks.Lock(chatID)
}

func (m *memoryStore) Sweep(now time.Time) int {
	if m.opts.IdleTimeout <= 0 {
		return 0
	}
	removed := 0
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			if m.opts.expired(*sess, now) {
				delete(sh.sessions, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len counts stored sessions, including expired ones not yet swept.
func (m *memoryStore) Len() int {
	n := 0
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

func (m *memoryStore) Close() error { return nil }
