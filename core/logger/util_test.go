package logger

import (
	"testing"
	"time"
)

func TestPreview(t *testing.T) {
	files := []string{"0001_users.up.sql", "0002_ledger.up.sql", "0003_index.up.sql"}
	cases := []struct {
		limit int
		want  string
	}{
		{5, "0001_users.up.sql, 0002_ledger.up.sql, 0003_index.up.sql"},
		{1, "0001_users.up.sql (+2 more)"},
		{0, "+3 more"},
	}
	for _, tc := range cases {
		if got := Preview(files, tc.limit); got != tc.want {
			t.Fatalf("Preview(limit=%d) = %q, want %q", tc.limit, got, tc.want)
		}
	}
	if got := Preview(nil, 3); got != "" {
		t.Fatalf("empty preview = %q", got)
	}
}

func TestRoundMS(t *testing.T) {
	if got := RoundMS(-time.Second); got != 0 {
		t.Fatalf("negative = %s", got)
	}
	if got := RoundMS(1499 * time.Microsecond); got != time.Millisecond {
		t.Fatalf("rounded = %s", got)
	}
}
