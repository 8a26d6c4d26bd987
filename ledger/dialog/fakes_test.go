package dialog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/m3rciful/ledgerbot/ledger/domain"
	"github.com/m3rciful/ledgerbot/ledger/storage/memory"
)

type sentMessage struct {
	ID       int
	Text     string
	Keyboard Keyboard
}

// fakeTransport hands out increasing message ids and remembers what is on screen.
type fakeTransport struct {
	mu      sync.Mutex
	nextID  int
	live    map[int]sentMessage
	sent    []sentMessage
	edits   []int
	deleted []int
	acks    []string
	editErr error
	sendErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{nextID: 100, live: make(map[int]sentMessage)}
}

func (f *fakeTransport) SendText(_ context.Context, _ int64, text string, kb Keyboard) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.nextID++
	msg := sentMessage{ID: f.nextID, Text: text, Keyboard: kb}
	f.live[msg.ID] = msg
	f.sent = append(f.sent, msg)
	return msg.ID, nil
}

func (f *fakeTransport) EditText(_ context.Context, _ int64, id int, text string, kb Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	if _, ok := f.live[id]; !ok {
		return fmt.Errorf("edit %d: %w", id, ErrMessageNotFound)
	}
	f.live[id] = sentMessage{ID: id, Text: text, Keyboard: kb}
	f.edits = append(f.edits, id)
	return nil
}

func (f *fakeTransport) DeleteMessage(_ context.Context, _ int64, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live[id]; !ok {
		return fmt.Errorf("delete %d: %w", id, ErrMessageNotFound)
	}
	delete(f.live, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeTransport) AnswerButton(_ context.Context, callbackID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks = append(f.acks, callbackID)
	return nil
}

// show puts a message on screen as if the bot had sent it earlier.
func (f *fakeTransport) show(id int, text string, kb Keyboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live[id] = sentMessage{ID: id, Text: text, Keyboard: kb}
}

func (f *fakeTransport) lastSent() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

// flakyLedger wraps the memory repository with injectable failures.
type flakyLedger struct {
	*memory.Repository
	mu        sync.Mutex
	createErr error
	listErr   error
	created   []domain.Transaction
}

func newFlakyLedger() *flakyLedger {
	return &flakyLedger{Repository: memory.NewRepository()}
}

func (l *flakyLedger) CreateTransaction(ctx context.Context, tx domain.Transaction) error {
	l.mu.Lock()
	err := l.createErr
	l.mu.Unlock()
	if err != nil {
		return err
	}
	if err := l.Repository.CreateTransaction(ctx, tx); err != nil {
		return err
	}
	l.mu.Lock()
	l.created = append(l.created, tx)
	l.mu.Unlock()
	return nil
}

func (l *flakyLedger) ListTransactions(ctx context.Context, chatID int64, f domain.Filter) ([]domain.Transaction, error) {
	if l.listErr != nil {
		return nil, l.listErr
	}
	return l.Repository.ListTransactions(ctx, chatID, f)
}

func (l *flakyLedger) setCreateErr(err error) {
	l.mu.Lock()
	l.createErr = err
	l.mu.Unlock()
}

var errDBDown = errors.New("db down")
