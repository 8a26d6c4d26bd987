package postgres

import (
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/ledgerbot/ledger/domain"
)

func TestListQuery(t *testing.T) {
	day := domain.Day(time.Date(2025, 4, 20, 15, 0, 0, 0, time.UTC))
	cases := []struct {
		name     string
		filter   domain.Filter
		wantTail string
		wantArgs []any
	}{
		{"unbounded", domain.Filter{}, "WHERE chat_id = ? ORDER BY created_at DESC, id DESC", []any{int64(7)}},
		{"limit", domain.Filter{Limit: 10}, "ORDER BY created_at DESC, id DESC LIMIT ?", []any{int64(7), 10}},
		{"day", day, "chat_id = ? AND created_at >= ? AND created_at < ? ORDER BY", []any{int64(7), day.From, day.To}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			query, args := listQuery(7, tc.filter)
			if !strings.Contains(query, tc.wantTail) {
				t.Fatalf("query %q does not contain %q", query, tc.wantTail)
			}
			if !reflect.DeepEqual(args, tc.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tc.wantArgs)
			}
		})
	}
}

func TestListQueryRebindsForPostgres(t *testing.T) {
	query, _ := listQuery(1, domain.Filter{From: time.Unix(1, 0), Limit: 5})
	got := sqlx.Rebind(sqlx.DOLLAR, query)
	if !strings.Contains(got, "chat_id = $1 AND created_at >= $2") || !strings.HasSuffix(got, "LIMIT $3") {
		t.Fatalf("rebind = %q", got)
	}
}

func TestNotFoundMapping(t *testing.T) {
	if err := notFound(sql.ErrNoRows, "transaction x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ErrNoRows not mapped: %v", err)
	}
	boom := errors.New("conn reset")
	err := notFound(boom, "transaction x")
	if errors.Is(err, domain.ErrNotFound) || !errors.Is(err, boom) {
		t.Fatalf("unexpected mapping: %v", err)
	}
}

func TestNormalizeHandle(t *testing.T) {
	for in, want := range map[string]string{"@Alice": "alice", " bob ": "bob", "@": ""} {
		if got := normalizeHandle(in); got != want {
			t.Fatalf("normalizeHandle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBalanceQueryCountsEveryChatRecord(t *testing.T) {
	q := sqlx.Rebind(sqlx.DOLLAR, balanceQuery)
	if strings.Contains(q, "status") {
		t.Fatalf("balance query filters by status:\n%s", q)
	}
	if !strings.Contains(q, "WHERE chat_id = $1") || strings.Contains(q, "$2") {
		t.Fatalf("balance query should take only the chat id:\n%s", q)
	}
}
