package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ledgerbot/ledger/dialog"
)

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("offline bot: %v", err)
	}
	return b
}

func TestEventFromText(t *testing.T) {
	b := offlineBot(t)
	c := b.NewContext(tele.Update{Message: &tele.Message{
		ID:     12,
		Text:   "50000",
		Chat:   &tele.Chat{ID: 99},
		Sender: &tele.User{ID: 5, Username: "alice", FirstName: "Alice"},
	}})

	chatID, ev, ok := eventFrom(c)
	if !ok || chatID != 99 {
		t.Fatalf("eventFrom = %d, %v", chatID, ok)
	}
	if ev.Kind != dialog.EventText || ev.Text != "50000" || ev.MessageID != 12 {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.From.UserName != "alice" || ev.From.ID != 5 {
		t.Fatalf("unexpected sender %+v", ev.From)
	}
}

func TestEventFromCallback(t *testing.T) {
	b := offlineBot(t)
	cases := []struct {
		name string
		cb   *tele.Callback
		want string
	}{
		{"raw with payload", &tele.Callback{ID: "c1", Data: "\ftx|abc"}, "tx:abc"},
		{"raw bare", &tele.Callback{ID: "c2", Data: "\fcancel"}, "cancel"},
		{"matched endpoint", &tele.Callback{ID: "c3", Unique: "tx_del", Data: "xyz"}, "tx_del:xyz"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.cb.Sender = &tele.User{ID: 5}
			tc.cb.Message = &tele.Message{ID: 77, Chat: &tele.Chat{ID: 99}}
			c := b.NewContext(tele.Update{Callback: tc.cb})

			chatID, ev, ok := eventFrom(c)
			if !ok || chatID != 99 {
				t.Fatalf("eventFrom = %d, %v", chatID, ok)
			}
			if ev.Kind != dialog.EventButton || ev.Data != tc.want {
				t.Fatalf("data = %q, want %q", ev.Data, tc.want)
			}
			if ev.MessageID != 77 || ev.CallbackID != tc.cb.ID {
				t.Fatalf("unexpected event %+v", ev)
			}
		})
	}
}

func TestEventFromIgnoresNonText(t *testing.T) {
	b := offlineBot(t)
	c := b.NewContext(tele.Update{Message: &tele.Message{
		ID:    3,
		Chat:  &tele.Chat{ID: 1},
		Photo: &tele.Photo{},
	}})
	if _, _, ok := eventFrom(c); ok {
		t.Fatal("photo should not map to an event")
	}
}
