package helpers

import (
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	tehran, err := time.LoadLocation("Asia/Tehran")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	cases := []struct {
		in   string
		loc  *time.Location
		want time.Time
		ok   bool
	}{
		{"2025-04-20", time.UTC, time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC), true},
		{" 2025-4-2 ", time.UTC, time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), true},
		{"2025/04/20", tehran, time.Date(2025, 4, 20, 0, 0, 0, 0, tehran), true},
		{"20.04.2025  18:05", tehran, time.Date(2025, 4, 20, 0, 0, 0, 0, tehran), true},
		{"2.4.2025", nil, time.Date(2025, 4, 2, 0, 0, 0, 0, time.Local), true},
		{"2025-02-30", time.UTC, time.Time{}, false},
		{"yesterday", time.UTC, time.Time{}, false},
		{"", time.UTC, time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseDay(tc.in, tc.loc)
		if ok != tc.ok || !got.Equal(tc.want) {
			t.Fatalf("ParseDay(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
