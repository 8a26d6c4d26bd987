package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/m3rciful/ledgerbot/core/logger"
)

var sessionsBucket = []byte("sessions")

// ErrUnsupportedValue is returned when a temporary value cannot be persisted.
var ErrUnsupportedValue = errors.New("state: unsupported temp value type")

type boltStore struct {
	db    *bolt.DB
	opts  Options
	locks *keyedMutex
}

// OpenBoltStore opens (or creates) a bbolt file holding sessions.
func OpenBoltStore(path string, opts Options) (Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sessions bucket: %w", err)
	}
	return &boltStore{db: db, opts: opts, locks: newKeyedMutex()}, nil
}

type storedValue struct {
	Type  string          `json:"t"`
	Value json.RawMessage `json:"v"`
}

type storedSession struct {
	State     State                  `json:"state"`
	TempData  map[string]storedValue `json:"temp,omitempty"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func chatKey(chatID int64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(chatID))
	return k[:]
}

func encodeValue(v any) (storedValue, error) {
	var tag string
	switch v.(type) {
	case string:
		tag = "string"
	case int:
		tag = "int"
	case int64:
		tag = "int64"
	case bool:
		tag = "bool"
	case float64:
		tag = "float64"
	default:
		return storedValue{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return storedValue{}, err
	}
	return storedValue{Type: tag, Value: raw}, nil
}

func decodeValue(sv storedValue) (any, error) {
	switch sv.Type {
	case "string":
		var s string
		err := json.Unmarshal(sv.Value, &s)
		return s, err
	case "int":
		var n int
		err := json.Unmarshal(sv.Value, &n)
		return n, err
	case "int64":
		var n int64
		err := json.Unmarshal(sv.Value, &n)
		return n, err
	case "bool":
		var b bool
		err := json.Unmarshal(sv.Value, &b)
		return b, err
	case "float64":
		var f float64
		err := json.Unmarshal(sv.Value, &f)
		return f, err
	}
	return nil, fmt.Errorf("%w: tag %q", ErrUnsupportedValue, sv.Type)
}

func encodeSession(sess Session) ([]byte, error) {
	rec := storedSession{State: sess.State, UpdatedAt: sess.UpdatedAt.UTC()}
	if len(sess.TempData) > 0 {
		rec.TempData = make(map[string]storedValue, len(sess.TempData))
		for k, v := range sess.TempData {
			sv, err := encodeValue(v)
			if err != nil {
				return nil, fmt.Errorf("temp %q: %w", k, err)
			}
			rec.TempData[k] = sv
		}
	}
	return json.Marshal(rec)
}

func decodeSession(chatID int64, raw []byte) (Session, error) {
	var rec storedSession
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Session{}, err
	}
	sess := emptySession(chatID)
	if rec.State != "" {
		sess.State = rec.State
	}
	sess.UpdatedAt = rec.UpdatedAt
	for k, sv := range rec.TempData {
		v, err := decodeValue(sv)
		if err != nil {
			return Session{}, fmt.Errorf("temp %q: %w", k, err)
		}
		sess.TempData[k] = v
	}
	return sess, nil
}

// load reads a live session inside tx. Corrupt records read as absent.
func (b *boltStore) load(tx *bolt.Tx, chatID int64, now time.Time) (Session, bool) {
	raw := tx.Bucket(sessionsBucket).Get(chatKey(chatID))
	if raw == nil {
		return emptySession(chatID), false
	}
	sess, err := decodeSession(chatID, raw)
	if err != nil {
		logger.Session.Warn("session decode failed",
			slog.String("event", "session.decode"),
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
		return emptySession(chatID), false
	}
	if b.opts.expired(sess, now) {
		return emptySession(chatID), false
	}
	return sess, true
}

func (b *boltStore) put(tx *bolt.Tx, chatID int64, sess Session) error {
	raw, err := encodeSession(sess)
	if err != nil {
		return err
	}
	return tx.Bucket(sessionsBucket).Put(chatKey(chatID), raw)
}

func (b *boltStore) read(chatID int64) (Session, bool) {
	var (
		sess  Session
		found bool
	)
	now := b.opts.now()
	_ = b.db.View(func(tx *bolt.Tx) error {
		sess, found = b.load(tx, chatID, now)
		return nil
	})
	return sess, found
}

// update loads the session (fresh when missing) and stores fn's result.
// When createIfMissing is false a missing session is left untouched.
func (b *boltStore) update(chatID int64, op string, createIfMissing bool, fn func(*Session)) {
	now := b.opts.now()
	err := b.db.Update(func(tx *bolt.Tx) error {
		sess, found := b.load(tx, chatID, now)
		if !found && !createIfMissing {
			return nil
		}
		fn(&sess)
		sess.UpdatedAt = now
		return b.put(tx, chatID, sess)
	})
	if err != nil {
		b.logWriteErr(chatID, op, err)
	}
}

func (b *boltStore) logWriteErr(chatID int64, op string, err error) {
	logger.Session.Error("session write failed",
		slog.String("event", "session.write"),
		slog.String("op", op),
		slog.Int64("chat_id", chatID),
		slog.String("err", err.Error()),
	)
}

func (b *boltStore) GetState(chatID int64) State {
	sess, _ := b.read(chatID)
	return sess.State
}

func (b *boltStore) SetState(chatID int64, st State) {
	b.update(chatID, "set_state", true, func(s *Session) { s.State = st })
}

func (b *boltStore) ClearState(chatID int64) {
	b.update(chatID, "clear_state", false, func(s *Session) { s.State = StateIdle })
}

// SetTempData persists value; types other than string, int, int64, bool and float64 are rejected and logged.
func (b *boltStore) SetTempData(chatID int64, key string, value any) {
	b.update(chatID, "set_temp", true, func(s *Session) { s.TempData[key] = value })
}

func (b *boltStore) GetTempData(chatID int64, key string, def any) any {
	sess, _ := b.read(chatID)
	if v, ok := sess.TempData[key]; ok {
		return v
	}
	return def
}

func (b *boltStore) ClearTempData(chatID int64) {
	b.update(chatID, "clear_temp", false, func(s *Session) { s.TempData = make(map[string]any) })
}

func (b *boltStore) Reset(chatID int64) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete(chatKey(chatID))
	})
	if err != nil {
		return fmt.Errorf("reset session %d: %w", chatID, err)
	}
	return nil
}

func (b *boltStore) Snapshot(chatID int64) Session {
	sess, _ := b.read(chatID)
	return sess
}

func (b *boltStore) Commit(chatID int64, sess Session) error {
	next := sess.clone()
	if next.IsIdle() {
		return b.Reset(chatID)
	}
	next.UpdatedAt = b.opts.now()
	err := b.db.Update(func(tx *bolt.Tx) error {
		return b.put(tx, chatID, next)
	})
	if err != nil {
		return fmt.Errorf("commit session %d: %w", chatID, err)
	}
	return nil
}

func (b *boltStore) Lock(chatID int64) func() {
	return b.locks.Lock(chatID)
}

func (b *boltStore) Sweep(now time.Time) int {
	if b.opts.IdleTimeout <= 0 {
		return 0
	}
	removed := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionsBucket)
		var stale [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var rec storedSession
			if json.Unmarshal(v, &rec) != nil || b.opts.expired(Session{UpdatedAt: rec.UpdatedAt}, now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		b.logWriteErr(0, "sweep", err)
		return 0
	}
	return removed
}

func (b *boltStore) Len() int {
	n := 0
	_ = b.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(sessionsBucket).Stats().KeyN
		return nil
	})
	return n
}

func (b *boltStore) Close() error {
	return b.db.Close()
}
