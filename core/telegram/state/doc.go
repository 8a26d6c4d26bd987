// Package state keeps per-chat dialog sessions for Telegram bots: the current
// state plus a small bag of temporary values. It knows nothing about the
// conversations built on top of it.
//
// Two Store implementations are provided. NewMemoryStore shards sessions in
// process memory; OpenBoltStore persists them in a bbolt file so a restart
// does not drop half-finished dialogs.
package state
