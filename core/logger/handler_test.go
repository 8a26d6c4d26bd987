package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func emitLine(t *testing.T, format logFormat, ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	log := slog.New(handler).With("component", component)
	LogEvent(ctx, log, level, event, attrs...)
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log line")
	}
	return line
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	line := emitLine(t, formatKV, ctx, "dialog", slog.LevelInfo, "dialog.transition",
		slog.String("status", "ok"),
		slog.String("next_state", "awaiting_price"),
		slog.String("state", "awaiting_transaction_kind"),
	)
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=dialog", "event=dialog.transition", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "state=awaiting_transaction_kind", "next_state=awaiting_price"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-json")
	ctx = WithUpdateMeta(ctx, 11, 22, 33)

	line := emitLine(t, formatJSON, ctx, "service.ledger", slog.LevelError, "ledger.create",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
		slog.String("tx_id", "abc"),
	)
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"service.ledger"`, `"event":"ledger.create"`, `"status":"fail"`, `"rid":"rid-json"`, `"tx_id":"abc"`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	rawRID := "123:456:789"
	ctx := WithRID(context.Background(), rawRID)

	kv := emitLine(t, formatKV, ctx, "app", slog.LevelInfo, "rid.test")
	if !strings.Contains(kv, "rid="+CompactRID(rawRID)) {
		t.Fatalf("expected compact rid, got %s", kv)
	}
	if strings.Contains(kv, "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", kv)
	}

	js := emitLine(t, formatJSON, ctx, "app", slog.LevelInfo, "rid.test")
	if !strings.Contains(js, `"rid":"`+CompactRID(rawRID)+`"`) {
		t.Fatalf("expected compact rid in JSON, got %s", js)
	}
	if !strings.Contains(js, `"rid_full":"`+rawRID+`"`) {
		t.Fatalf("expected rid_full in JSON output, got %s", js)
	}
	if !strings.Contains(js, `"ts_unix_nano"`) {
		t.Fatalf("expected ts_unix_nano in JSON output, got %s", js)
	}
}

func TestStructuredHandlerDurationKeys(t *testing.T) {
	line := emitLine(t, formatKV, context.Background(), "session", slog.LevelDebug, "session.sweep",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.Duration("idle", 2*time.Second),
		slog.Duration("backoff_ms", 250*time.Millisecond),
	)
	for _, want := range []string{"duration_ms=2", "idle_ms=2000", "backoff_ms=250"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %s", want, line)
		}
	}
}

func TestCompactRIDLeavesForeignFormats(t *testing.T) {
	cases := map[string]string{
		"35:36:1":   "z.10.1",
		"rid-x":     "rid-x",
		"1:two:3":   "1:two:3",
		"-100:5:10": "-2s.5.a",
	}
	for in, want := range cases {
		if got := CompactRID(in); got != want {
			t.Fatalf("CompactRID(%q) = %q, want %q", in, got, want)
		}
	}
}
