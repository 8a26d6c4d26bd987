package dialog

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/ledgerbot/core/logger"
	"github.com/m3rciful/ledgerbot/core/telegram/state"
	"github.com/m3rciful/ledgerbot/ledger/domain"
)

// ErrNotConfigured is returned by HandleEvent when a collaborator is missing.
var ErrNotConfigured = errors.New("dialog: controller not configured")

const defaultListLimit = 10

// Options tunes a Controller.
type Options struct {
	// ListLimit caps transaction listings; 0 means 10.
	ListLimit int
	// Currency is appended to amounts, e.g. "IRR".
	Currency string
	// Location renders dates; nil means time.Local.
	Location *time.Location
	// NewID generates transaction ids; nil means a dashless uuid.
	NewID func() string
	// Now stamps new records; nil means time.Now.
	Now func() time.Time
}

// Controller is the single entry point for chat events.
type Controller struct {
	store     state.Store
	machine   *Machine
	transport Transport
	ledger    Ledger
	opts      Options
}

// NewController wires a controller. Missing options fall back to defaults.
func NewController(store state.Store, transport Transport, ledger Ledger, opts Options) *Controller {
	if opts.ListLimit <= 0 {
		opts.ListLimit = defaultListLimit
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.NewID == nil {
		opts.NewID = newTransactionID
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		store:     store,
		machine:   NewMachine(opts.Location),
		transport: transport,
		ledger:    ledger,
		opts:      opts,
	}
}

func newTransactionID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// Store exposes the session store, e.g. for diagnostics.
func (c *Controller) Store() state.Store {
	return c.store
}

// HandleEvent runs one event for chatID and returns the executed commands.
// Collaborator failures end in a reply to the user and never surface as errors.
func (c *Controller) HandleEvent(ctx context.Context, chatID int64, ev Event) ([]Command, error) {
	if c == nil || c.store == nil || c.transport == nil || c.ledger == nil || c.machine == nil {
		return nil, ErrNotConfigured
	}
	start := time.Now()

	unlock := c.store.Lock(chatID)
	defer unlock()

	sess := c.store.Snapshot(chatID)
	res := c.machine.Transition(sess.State, ev, DraftFrom(sess))

	r := &run{c: c, ctx: ctx, chatID: chatID, prompts: prompts(sess.TempData)}
	committed := r.execute(res.Effects)

	next := sess
	if committed {
		next.State = res.Next
		writeDraft(next.TempData, res.Draft)
		if res.Reset {
			next = state.Session{ChatID: chatID, State: Idle}
		}
	}
	if err := c.store.Commit(chatID, next); err != nil {
		logger.Dialog.LogAttrs(ctx, slog.LevelError, "session write failed",
			slog.String("event", "dialog.session"),
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}

	level, status := slog.LevelDebug, "ok"
	if sess.State != next.State {
		level = slog.LevelInfo
	}
	if !committed {
		level, status = slog.LevelWarn, "fail"
	}
	logger.Dialog.LogAttrs(ctx, level, "dialog.transition",
		slog.String("event", "dialog.transition"),
		slog.String("status", status),
		slog.Int64("chat_id", chatID),
		slog.String("op", ev.Kind.String()),
		slog.String("state", string(sess.State)),
		slog.String("next_state", string(next.State)),
		slog.Int("effects", len(r.log)),
		slog.Duration("duration", logger.Took(start)),
	)
	return r.log, nil
}

// run executes the effects of one transition and records what happened.
type run struct {
	c       *Controller
	ctx     context.Context
	chatID  int64
	prompts prompts
	log     []Command
	// saved is confirmed after the remaining effects so prompts disappear first.
	saved *domain.Transaction
}

func (r *run) add(e Effect, messageID int, err error) {
	r.log = append(r.log, Command{Effect: e, MessageID: messageID, Failed: err != nil})
	if err != nil {
		level, status := slog.LevelWarn, "fail"
		if errors.Is(err, ErrMessageNotFound) {
			level, status = slog.LevelInfo, "stale"
		}
		logger.Dialog.LogAttrs(r.ctx, level, "effect failed",
			slog.String("event", "dialog.effect"),
			slog.String("status", status),
			slog.Int64("chat_id", r.chatID),
			slog.String("op", EffectName(e)),
			slog.Int("prompt_id", messageID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

// execute runs effects in order. It stops and reports false when a commit
// fails so the session keeps its draft.
func (r *run) execute(effects []Effect) bool {
	for _, e := range effects {
		switch v := e.(type) {
		case AcknowledgeButton:
			if v.CallbackID == "" {
				continue
			}
			r.add(v, 0, r.c.transport.AnswerButton(r.ctx, v.CallbackID, v.Text))
		case DeletePrompt:
			r.deletePrompt(v)
		case EditPrompt:
			r.editPrompt(v)
		case SendPrompt:
			r.send(v, v.Slot, v.Text, v.Keyboard)
		case Reply:
			r.send(v, "", v.Text, v.Keyboard)
		case CommitTransaction:
			if !r.commit(v) {
				return false
			}
		case QueryBalance:
			r.balance(v)
		case QueryTransactions:
			r.list(v, v.Filter)
		case ShowTransaction:
			r.show(v)
		case DeleteTransaction:
			r.deleteTransaction(v)
		case EnsureUser:
			r.ensureUser(v)
		}
	}
	if r.saved != nil {
		r.reply(savedText(*r.saved, r.c.opts.Currency), MenuKeyboard())
	}
	return true
}

func (r *run) send(e Effect, slot Slot, text string, kb Keyboard) int {
	id, err := r.c.transport.SendText(r.ctx, r.chatID, text, kb)
	r.add(e, id, err)
	if err == nil {
		r.prompts.record(slot, id)
	}
	return id
}

func (r *run) reply(text string, kb Keyboard) {
	reply := Reply{Text: text, Keyboard: kb}
	r.send(reply, "", text, kb)
}

func (r *run) deletePrompt(e DeletePrompt) {
	id := e.MessageID
	if id == 0 {
		id = r.prompts.get(e.Slot)
	}
	if e.Slot != "" {
		r.prompts.forget(e.Slot)
	}
	if id == 0 {
		return
	}
	err := r.c.transport.DeleteMessage(r.ctx, r.chatID, id)
	if errors.Is(err, ErrMessageNotFound) {
		err = nil
	}
	r.add(e, id, err)
}

// editPrompt rewrites the prompt in place and falls back to a fresh message
// when there is nothing to edit or the edit fails.
func (r *run) editPrompt(e EditPrompt) {
	id := e.MessageID
	if id == 0 {
		id = r.prompts.get(e.Slot)
	}
	if id != 0 {
		err := r.c.transport.EditText(r.ctx, r.chatID, id, e.Text, e.Keyboard)
		r.add(e, id, err)
		if err == nil {
			r.prompts.record(e.Slot, id)
			return
		}
	}
	r.send(SendPrompt{Slot: e.Slot, Text: e.Text, Keyboard: e.Keyboard}, e.Slot, e.Text, e.Keyboard)
}

func (r *run) commit(e CommitTransaction) bool {
	tx := domain.Transaction{
		ID:          r.c.opts.NewID(),
		ChatID:      r.chatID,
		Price:       e.Price,
		Description: e.Description,
		Type:        e.Type,
		Status:      domain.StatusSuccess,
		IsConfirmed: true,
		CreatedAt:   r.c.opts.Now(),
	}
	if e.From.UserName != "" {
		if u, err := r.c.ledger.GetUserByHandle(r.ctx, e.From.UserName); err == nil {
			tx.UserID = &u.ID
		}
	}
	err := r.c.ledger.CreateTransaction(r.ctx, tx)
	r.add(e, 0, err)
	if err != nil {
		r.reply(textCommitFailed, CancelKeyboard())
		return false
	}
	r.saved = &tx
	return true
}

func (r *run) balance(e QueryBalance) {
	bal, err := r.c.ledger.ComputeBalance(r.ctx, r.chatID)
	r.add(e, 0, err)
	if err != nil {
		r.reply(textFailure, BackKeyboard())
		return
	}
	r.reply(balanceText(bal, r.c.opts.Currency), MenuKeyboard())
}

func (r *run) list(e Effect, f domain.Filter) {
	if f.Limit <= 0 {
		f.Limit = r.c.opts.ListLimit
	}
	txs, err := r.c.ledger.ListTransactions(r.ctx, r.chatID, f)
	r.add(e, 0, err)
	if err != nil {
		r.reply(textFailure, BackKeyboard())
		return
	}
	r.reply(listText(txs, f, r.c.opts.Location), ListKeyboard(txs, r.c.opts.Currency))
}

// ownTransaction loads a transaction of this chat; other chats' records read as missing.
func (r *run) ownTransaction(id string) (domain.Transaction, error) {
	tx, err := r.c.ledger.GetTransactionByID(r.ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	if tx.ChatID != r.chatID {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return tx, nil
}

func (r *run) show(e ShowTransaction) {
	tx, err := r.ownTransaction(e.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		r.add(e, 0, nil)
		r.reply(textTxNotFound, BackKeyboard())
	case err != nil:
		r.add(e, 0, err)
		r.reply(textFailure, BackKeyboard())
	default:
		r.add(e, 0, nil)
		r.reply(transactionText(tx, r.c.opts.Currency, r.c.opts.Location), TransactionKeyboard(tx.ID))
	}
}

func (r *run) deleteTransaction(e DeleteTransaction) {
	_, err := r.ownTransaction(e.ID)
	if err == nil {
		err = r.c.ledger.DeleteTransaction(r.ctx, e.ID)
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		r.add(e, 0, nil)
		r.reply(textTxNotFound, BackKeyboard())
		return
	case err != nil:
		r.add(e, 0, err)
		r.reply(textFailure, BackKeyboard())
		return
	}
	r.add(e, 0, nil)
	r.reply(textTxDeleted, nil)
	r.list(QueryTransactions{}, domain.Filter{})
}

func (r *run) ensureUser(e EnsureUser) {
	var err error
	if e.From.UserName != "" {
		_, err = r.c.ledger.GetUserByHandle(r.ctx, e.From.UserName)
		if errors.Is(err, domain.ErrNotFound) {
			_, err = r.c.ledger.CreateUser(r.ctx, domain.User{
				UserName:  e.From.UserName,
				FirstName: e.From.FirstName,
				LastName:  e.From.LastName,
				ChatID:    r.chatID,
				IsActive:  true,
				CreatedAt: r.c.opts.Now(),
			})
		}
	}
	r.add(e, 0, err)
	r.reply(greetingText(e.From), MenuKeyboard())
}
