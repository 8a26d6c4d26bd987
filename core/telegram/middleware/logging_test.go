package middleware

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestSeenUpdatesRemembersRecentIDs(t *testing.T) {
	var s seenUpdates
	if s.mark(7) {
		t.Fatal("first mark reported as seen")
	}
	if !s.mark(7) {
		t.Fatal("second mark not reported as seen")
	}
	for id := 100; id < 100+len(s.ids); id++ {
		s.mark(id)
	}
	if s.mark(7) {
		t.Fatal("id should have been evicted from the ring")
	}
}

func TestUpdateKind(t *testing.T) {
	b, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	chat := &tele.Chat{ID: 1}
	cases := []struct {
		name string
		upd  tele.Update
		want string
	}{
		{"callback", tele.Update{Callback: &tele.Callback{ID: "c"}}, "callback"},
		{"command", tele.Update{Message: &tele.Message{Chat: chat, Text: "/list 2024-01-02"}}, "command"},
		{"text", tele.Update{Message: &tele.Message{Chat: chat, Text: "12000"}}, "text"},
		{"media", tele.Update{Message: &tele.Message{Chat: chat, Photo: &tele.Photo{}}}, "media"},
		{"other", tele.Update{}, "other"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := updateKind(b.NewContext(tc.upd)); got != tc.want {
				t.Fatalf("kind = %q, want %q", got, tc.want)
			}
		})
	}
}
