// Package memory keeps users and transactions in process memory. It backs
// ledger.storage=memory and the dialog tests.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/ledgerbot/core/logger"
	"github.com/m3rciful/ledgerbot/ledger/domain"
)

// Repository is a concurrency-safe in-memory ledger.
type Repository struct {
	mu     sync.RWMutex
	txs    map[string]domain.Transaction
	users  map[string]domain.User
	nextID int64
}

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{
		txs:   make(map[string]domain.Transaction),
		users: make(map[string]domain.User),
	}
}

func (r *Repository) CreateTransaction(ctx context.Context, tx domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.txs[tx.ID]; exists {
		return fmt.Errorf("transaction %s already exists", tx.ID)
	}
	r.txs[tx.ID] = tx
	logger.Debug(ctx, "service.ledger", "ledger.create",
		slog.String("tx_id", tx.ID),
		slog.Int64("chat_id", tx.ChatID),
		slog.String("tx_type", tx.Type.String()),
		slog.Int64("price", tx.Price),
	)
	return nil
}

// ListTransactions returns matching transactions newest first.
func (r *Repository) ListTransactions(_ context.Context, chatID int64, f domain.Filter) ([]domain.Transaction, error) {
	r.mu.RLock()
	out := make([]domain.Transaction, 0)
	for _, tx := range r.txs {
		if tx.ChatID == chatID && f.Match(tx) {
			out = append(out, tx)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *Repository) GetTransactionByID(_ context.Context, id string) (domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.txs[id]
	if !ok {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return tx, nil
}

func (r *Repository) DeleteTransaction(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.txs[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	delete(r.txs, id)
	return nil
}

func handleKey(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

func (r *Repository) GetUserByHandle(_ context.Context, handle string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[handleKey(handle)]
	if !ok || u.IsDeleted {
		return domain.User{}, fmt.Errorf("user %q: %w", handle, domain.ErrNotFound)
	}
	return u, nil
}

// CreateUser assigns the next id and stores u.
func (r *Repository) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	key := handleKey(u.UserName)
	if key == "" {
		return domain.User{}, fmt.Errorf("create user: empty handle")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.users[key]; ok && !existing.IsDeleted {
		return domain.User{}, fmt.Errorf("user %q already exists", u.UserName)
	}
	r.nextID++
	u.ID = r.nextID
	r.users[key] = u
	logger.Debug(ctx, "service.users", "users.create",
		slog.Int64("chat_id", u.ChatID),
		slog.String("username", u.UserName),
	)
	return u, nil
}

func (r *Repository) ComputeBalance(_ context.Context, chatID int64) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, tx := range r.txs {
		if tx.ChatID == chatID {
			sum += tx.Signed()
		}
	}
	return sum, nil
}

// Len reports the number of stored transactions.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.txs)
}
