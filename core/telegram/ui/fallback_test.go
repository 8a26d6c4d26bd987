package ui

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

type stubFallbacks struct{ calls *[]string }

func (s stubFallbacks) record(name string) tele.HandlerFunc {
	return func(tele.Context) error { *s.calls = append(*s.calls, name); return nil }
}

func (s stubFallbacks) UnknownText() tele.HandlerFunc     { return s.record("text") }
func (s stubFallbacks) UnknownDocument() tele.HandlerFunc { return s.record("document") }
func (s stubFallbacks) UnknownCallback() tele.HandlerFunc { return s.record("callback") }

func TestPick(t *testing.T) {
	var calls []string
	p := stubFallbacks{calls: &calls}
	explicit := func(tele.Context) error { calls = append(calls, "explicit"); return nil }

	_ = Pick(explicit, p, Text)(nil)
	_ = Pick(nil, p, Text)(nil)
	_ = Pick(nil, p, Document)(nil)
	_ = Pick(nil, p, Callback)(nil)
	if Pick(nil, nil, Text) != nil {
		t.Fatal("no handler and no provider should give nil")
	}

	want := []string{"explicit", "text", "document", "callback"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}
