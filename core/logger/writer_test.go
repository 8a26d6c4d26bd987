package logger

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	coreconfig "github.com/m3rciful/ledgerbot/core/config"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterMutesFailingSink(t *testing.T) {
	var good bytes.Buffer
	w := newAsyncWriter([]io.Writer{failingWriter{}, &good}, 16)
	for _, line := range []string{"one\n", "two\n"} {
		if err := w.Write([]byte(line)); err != nil {
			t.Fatalf("write %q: %v", line, err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if good.String() != "one\ntwo\n" {
		t.Fatalf("healthy sink got %q", good.String())
	}
	err := w.Close()
	if err == nil || !strings.Contains(err.Error(), "sink0: disk full") {
		t.Fatalf("close err = %v", err)
	}
}

func TestAsyncWriterFailsWhenAllSinksMuted(t *testing.T) {
	w := newAsyncWriter([]io.Writer{failingWriter{}}, 16)
	_ = w.Write([]byte("x\n"))
	_ = w.Flush()
	if err := w.Write([]byte("y\n")); err == nil {
		t.Fatal("expected error once every sink failed")
	}
	_ = w.Close()
}

func TestEventSamplerCountsKeysSeparately(t *testing.T) {
	s := newEventSampler(1, 3)
	var got []bool
	for i := 0; i < 4; i++ {
		got = append(got, s.Allow("update.callback"))
	}
	want := []bool{true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("callback allow[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if !s.Allow("update.command") {
		t.Fatal("first record of a new key must pass")
	}

	s.Set(0, 0)
	for i := 0; i < 3; i++ {
		if !s.Allow("update.callback") {
			t.Fatal("disabled sampler must allow everything")
		}
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := []struct {
		in       string
		num, den int
	}{
		{"", 0, 0},
		{"1/50", 1, 50},
		{" 2 / 5 ", 2, 5},
		{"10", 1, 10},
		{"0", 0, 0},
		{"x/y", 0, 0},
	}
	for _, tc := range cases {
		n, d := parseRatioSpec(tc.in)
		if n != tc.num || d != tc.den {
			t.Fatalf("parseRatioSpec(%q) = %d/%d, want %d/%d", tc.in, n, d, tc.num, tc.den)
		}
	}
}

func TestResolveSettings(t *testing.T) {
	s := resolveSettings(nil)
	if s.format != formatJSON || s.level != slog.LevelInfo || s.profile != "prod" || s.sampleD != 50 {
		t.Fatalf("defaults = %+v", s)
	}

	s = resolveSettings(&coreconfig.Config{Logging: coreconfig.LoggingConfig{
		Level:       "WARNING",
		Profile:     "Dev",
		KeysOrder:   "event, ,rid",
		DebugSample: "0",
		Dir:         "/var/log/ledger",
		BotFile:     "bot.log",
	}})
	if s.format != formatKV {
		t.Fatalf("dev profile format = %s", s.format)
	}
	if s.level != slog.LevelWarn {
		t.Fatalf("level = %v", s.level)
	}
	if len(s.keyOrder) != 2 || s.keyOrder[0] != "event" || s.keyOrder[1] != "rid" {
		t.Fatalf("key order = %v", s.keyOrder)
	}
	if s.sampleN != 0 || s.sampleD != 0 {
		t.Fatalf("sample = %d/%d, want disabled", s.sampleN, s.sampleD)
	}
	if s.filePath != "/var/log/ledger/bot.log" {
		t.Fatalf("file = %q", s.filePath)
	}
}
