// Package domain holds the ledger's records shared by the dialog core and storage.
package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// TransactionType is the sign of a transaction.
type TransactionType int

const (
	// Increase adds the price to the balance.
	Increase TransactionType = 1
	// Decrease subtracts the price from the balance.
	Decrease TransactionType = -1
)

// String returns the button payload name of the type.
func (t TransactionType) String() string {
	switch t {
	case Increase:
		return "Increase"
	case Decrease:
		return "Decrease"
	}
	return "Unknown"
}

// Valid reports whether t is Increase or Decrease.
func (t TransactionType) Valid() bool {
	return t == Increase || t == Decrease
}

// ParseTransactionType maps "Increase"/"Decrease" back to a type.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch s {
	case "Increase":
		return Increase, true
	case "Decrease":
		return Decrease, true
	}
	return 0, false
}

// Status tracks how a transaction ended up.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFail     Status = "fail"
	StatusCanceled Status = "canceled"
	StatusError    Status = "error"
)

// Transaction is a committed ledger entry. It is never modified after creation.
type Transaction struct {
	ID          string          `db:"id"`
	ChatID      int64           `db:"chat_id"`
	UserID      *int64          `db:"user_id"`
	Price       int64           `db:"price"`
	Description string          `db:"description"`
	Type        TransactionType `db:"type"`
	Status      Status          `db:"status"`
	IsConfirmed bool            `db:"is_confirmed"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Signed returns the price with the sign of the transaction type.
func (t Transaction) Signed() int64 {
	return int64(t.Type) * t.Price
}

// User is a chat participant known to the ledger.
type User struct {
	ID        int64     `db:"id"`
	UserName  string    `db:"username"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	ChatID    int64     `db:"chat_id"`
	IsActive  bool      `db:"is_active"`
	IsDeleted bool      `db:"is_deleted"`
	CreatedAt time.Time `db:"created_at"`
}

// Filter narrows a transaction listing.
type Filter struct {
	// From and To bound created_at as [From, To); zero values leave the side open.
	From  time.Time
	To    time.Time
	Limit int
}

// Day returns a filter covering the calendar day of t in t's location.
func Day(t time.Time) Filter {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return Filter{From: start, To: start.AddDate(0, 0, 1)}
}

// Match reports whether tx falls inside the time bounds.
func (f Filter) Match(tx Transaction) bool {
	if !f.From.IsZero() && tx.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !tx.CreatedAt.Before(f.To) {
		return false
	}
	return true
}
