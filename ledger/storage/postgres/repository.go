// Package postgres implements the ledger on PostgreSQL through sqlx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/ledgerbot/core/logger"
	"github.com/m3rciful/ledgerbot/ledger/domain"
)

const transactionColumns = `id, chat_id, user_id, price, description, type, status, is_confirmed, created_at`

const userColumns = `id, username, first_name, last_name, chat_id, is_active, is_deleted, created_at`

// Repository stores users and transactions. It is safe for concurrent use.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wraps an open connection pool.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateTransaction(ctx context.Context, tx domain.Transaction) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (:id, :chat_id, :user_id, :price, :description, :type, :status, :is_confirmed, :created_at)`, tx)
	if err != nil {
		return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
	}
	logger.Debug(ctx, "service.ledger", "ledger.create",
		slog.String("tx_id", tx.ID),
		slog.Int64("chat_id", tx.ChatID),
		slog.String("tx_type", tx.Type.String()),
		slog.Int64("price", tx.Price),
	)
	return nil
}

// ListTransactions returns the chat's transactions newest first.
func (r *Repository) ListTransactions(ctx context.Context, chatID int64, f domain.Filter) ([]domain.Transaction, error) {
	query, args := listQuery(chatID, f)
	var out []domain.Transaction
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// listQuery builds the listing statement with '?' placeholders.
func listQuery(chatID int64, f domain.Filter) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE chat_id = ?`)
	args := []any{chatID}
	if !f.From.IsZero() {
		b.WriteString(` AND created_at >= ?`)
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		b.WriteString(` AND created_at < ?`)
		args = append(args, f.To)
	}
	b.WriteString(` ORDER BY created_at DESC, id DESC`)
	if f.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, f.Limit)
	}
	return b.String(), args
}

func (r *Repository) GetTransactionByID(ctx context.Context, id string) (domain.Transaction, error) {
	var tx domain.Transaction
	err := r.db.GetContext(ctx, &tx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	if err != nil {
		return domain.Transaction{}, notFound(err, "transaction "+id)
	}
	return tx, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetUserByHandle matches usernames case-insensitively, with or without a leading "@".
func (r *Repository) GetUserByHandle(ctx context.Context, handle string) (domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, `
		SELECT `+userColumns+` FROM users
		WHERE LOWER(username) = $1 AND NOT is_deleted`, normalizeHandle(handle))
	if err != nil {
		return domain.User{}, notFound(err, fmt.Sprintf("user %q", handle))
	}
	return u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	if normalizeHandle(u.UserName) == "" {
		return domain.User{}, fmt.Errorf("create user: empty handle")
	}
	u.UserName = strings.TrimPrefix(strings.TrimSpace(u.UserName), "@")
	rows, err := r.db.NamedQueryContext(ctx, `
		INSERT INTO users (username, first_name, last_name, chat_id, is_active, is_deleted, created_at)
		VALUES (:username, :first_name, :last_name, :chat_id, :is_active, :is_deleted, :created_at)
		RETURNING id`, u)
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user %q: %w", u.UserName, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.User{}, fmt.Errorf("insert user %q: %w", u.UserName, err)
		}
		return domain.User{}, fmt.Errorf("insert user %q: no id returned", u.UserName)
	}
	if err := rows.Scan(&u.ID); err != nil {
		return domain.User{}, fmt.Errorf("scan user id: %w", err)
	}
	logger.Debug(ctx, "service.users", "users.create",
		slog.Int64("chat_id", u.ChatID),
		slog.String("username", u.UserName),
	)
	return u, nil
}

// ComputeBalance sums the chat's Increase prices minus its Decrease prices.
func (r *Repository) ComputeBalance(ctx context.Context, chatID int64) (int64, error) {
	var balance int64
	err := r.db.GetContext(ctx, &balance, balanceQuery, chatID)
	if err != nil {
		return 0, fmt.Errorf("compute balance: %w", err)
	}
	return balance, nil
}

const balanceQuery = `
	SELECT COALESCE(SUM(CASE WHEN type = 1 THEN price WHEN type = -1 THEN -price ELSE 0 END), 0)
	FROM transactions
	WHERE chat_id = $1`

func normalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}
