package helpers

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ledgerbot/core/telegram/sender"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	return currentDispatcher().EnqueueOrRun(BuildContext(c), action, endpoint, run)
}

// SendText sends raw text (no parse mode) to the current recipient without
// waiting for the API call. Use it for notices whose message id nobody needs.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// Respond answers the pressed button in the background.
func Respond(c tele.Context, text string) error {
	if c.Callback() == nil {
		return nil
	}
	return sendAsync(c, "callback.answer", "answerCallbackQuery", func() error {
		return c.Respond(&tele.CallbackResponse{Text: text})
	})
}
