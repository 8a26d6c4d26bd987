// Package telegram connects the ledger dialog to the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ledgerbot/core/telegram/keyboard"
	"github.com/m3rciful/ledgerbot/core/telegram/sender"
	"github.com/m3rciful/ledgerbot/ledger/dialog"
)

// ErrNotBound is returned when the transport is used before a bot was attached.
var ErrNotBound = errors.New("telegram transport: bot not bound")

// Transport implements dialog.Transport on top of a telebot API.
// Button answers go through the dispatcher; everything else is synchronous
// because the dialog needs the resulting message ids.
type Transport struct {
	mu         sync.RWMutex
	api        tele.API
	dispatcher *sender.Dispatcher
}

var _ dialog.Transport = (*Transport)(nil)

// NewTransport returns an unbound transport. Call Bind once the bot exists.
func NewTransport(d *sender.Dispatcher) *Transport {
	return &Transport{dispatcher: d}
}

// Bind attaches the bot used for API calls.
func (t *Transport) Bind(api tele.API) {
	t.mu.Lock()
	t.api = api
	t.mu.Unlock()
}

func (t *Transport) bot() (tele.API, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.api == nil {
		return nil, ErrNotBound
	}
	return t.api, nil
}

func (t *Transport) SendText(_ context.Context, chatID int64, text string, kb dialog.Keyboard) (int, error) {
	api, err := t.bot()
	if err != nil {
		return 0, err
	}
	var msg *tele.Message
	if markup := Markup(kb); markup != nil {
		msg, err = api.Send(tele.ChatID(chatID), text, &tele.SendOptions{ReplyMarkup: markup})
	} else {
		msg, err = api.Send(tele.ChatID(chatID), text)
	}
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

func (t *Transport) EditText(_ context.Context, chatID int64, messageID int, text string, kb dialog.Keyboard) error {
	api, err := t.bot()
	if err != nil {
		return err
	}
	target := stored(chatID, messageID)
	if markup := Markup(kb); markup != nil {
		_, err = api.Edit(target, text, &tele.SendOptions{ReplyMarkup: markup})
	} else {
		_, err = api.Edit(target, text)
	}
	return classify(err)
}

func (t *Transport) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	api, err := t.bot()
	if err != nil {
		return err
	}
	return classify(api.Delete(stored(chatID, messageID)))
}

func (t *Transport) AnswerButton(ctx context.Context, callbackID, text string) error {
	api, err := t.bot()
	if err != nil {
		return err
	}
	return t.dispatcher.EnqueueOrRun(ctx, "callback.answer", "answerCallbackQuery", func() error {
		return api.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{Text: text})
	})
}

func stored(chatID int64, messageID int) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
}

// classify maps Bot API answers about vanished or frozen messages to
// dialog.ErrMessageNotFound and treats an unchanged edit as success.
func classify(err error) error {
	if err == nil {
		return nil
	}
	desc := err.Error()
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		desc = apiErr.Description
	}
	desc = strings.ToLower(desc)
	switch {
	case strings.Contains(desc, "message is not modified"):
		return nil
	case strings.Contains(desc, "message") && strings.Contains(desc, "not found"),
		strings.Contains(desc, "message can't be edited"),
		strings.Contains(desc, "message can't be deleted"):
		return fmt.Errorf("%w: %v", dialog.ErrMessageNotFound, err)
	}
	return err
}

// Markup converts a dialog keyboard to inline markup. Button data "name:arg"
// becomes unique "name" with payload "arg".
func Markup(kb dialog.Keyboard) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(kb))
	for _, row := range kb {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			name, arg, _ := strings.Cut(b.Data, ":")
			btns = append(btns, keyboard.InlineBtn{Text: b.Text, Unique: name, Data: arg})
		}
		rows = append(rows, btns)
	}
	return keyboard.InlineButtonsRows(rows...)
}
