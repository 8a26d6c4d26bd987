package state

// TempAs reads a temporary value and asserts it to T, returning def on a
// missing key or a type mismatch.
func TempAs[T any](s Store, chatID int64, key string, def T) T {
	return SessionTemp(s.Snapshot(chatID), key, def)
}

// SessionTemp is TempAs for a session that was already read.
func SessionTemp[T any](sess Session, key string, def T) T {
	v, ok := sess.Temp(key)
	if !ok {
		return def
	}
	if t, ok := v.(T); ok {
		return t
	}
	return def
}

// TempString reads a string value.
func TempString(s Store, chatID int64, key, def string) string {
	return TempAs(s, chatID, key, def)
}

// TempInt64 reads an integer value, accepting any of the integer shapes a store may hand back.
func TempInt64(s Store, chatID int64, key string, def int64) int64 {
	return SessionInt64(s.Snapshot(chatID), key, def)
}

// TempInt reads an integer value as int.
func TempInt(s Store, chatID int64, key string, def int) int {
	return int(SessionInt64(s.Snapshot(chatID), key, int64(def)))
}

// SessionInt64 is TempInt64 for a session that was already read.
func SessionInt64(sess Session, key string, def int64) int64 {
	v, ok := sess.Temp(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	}
	return def
}
