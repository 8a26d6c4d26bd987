package telegram

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ledgerbot/core/telegram/callbacks"
	"github.com/m3rciful/ledgerbot/ledger/dialog"
)

// eventFrom maps an update to a dialog event. ok is false for updates the
// dialog has no use for, e.g. photos or edited messages.
func eventFrom(c tele.Context) (chatID int64, ev dialog.Event, ok bool) {
	if c.Chat() == nil {
		return 0, dialog.Event{}, false
	}
	chatID = c.Chat().ID

	if cb := c.Callback(); cb != nil {
		key, payload := callbacks.ParseCallbackData(cb)
		data := key
		if payload != "" {
			data += ":" + payload
		}
		msgID := 0
		if cb.Message != nil {
			msgID = cb.Message.ID
		}
		ev = dialog.ButtonEvent(data, msgID, cb.ID)
	} else if msg := c.Message(); msg != nil && msg.Text != "" {
		ev = dialog.TextEvent(msg.Text, msg.ID)
	} else {
		return 0, dialog.Event{}, false
	}

	if u := c.Sender(); u != nil {
		ev.From = dialog.Sender{
			ID:        u.ID,
			UserName:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		}
	}
	return chatID, ev, true
}
