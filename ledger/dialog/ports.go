package dialog

import (
	"context"
	"errors"

	"github.com/m3rciful/ledgerbot/ledger/domain"
)

// ErrMessageNotFound reports that an edit or delete targeted a message that no longer exists.
var ErrMessageNotFound = errors.New("message not found")

// Transport is the chat side of the bot.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string, kb Keyboard) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string, kb Keyboard) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerButton(ctx context.Context, callbackID, text string) error
}

// Ledger persists users and transactions.
type Ledger interface {
	CreateTransaction(ctx context.Context, tx domain.Transaction) error
	// ListTransactions returns the chat's transactions newest first.
	ListTransactions(ctx context.Context, chatID int64, f domain.Filter) ([]domain.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	GetUserByHandle(ctx context.Context, handle string) (domain.User, error)
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	// ComputeBalance sums Increase prices minus Decrease prices.
	ComputeBalance(ctx context.Context, chatID int64) (int64, error)
}
