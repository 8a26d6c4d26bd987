package dialog

import (
	"errors"
	"testing"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr error
	}{
		{"50000", 50000, nil},
		{"  42 \n", 42, nil},
		{"0", 0, nil},
		{"007", 7, nil},
		{"", 0, ErrEmptyAmount},
		{"   ", 0, ErrEmptyAmount},
		{"-5", 0, ErrInvalidAmount},
		{"+5", 0, ErrInvalidAmount},
		{"12.5", 0, ErrInvalidAmount},
		{"1,000", 0, ErrInvalidAmount},
		{"abc", 0, ErrInvalidAmount},
		{"١٢٣", 0, ErrInvalidAmount},
		{"99999999999999999999", 0, ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParsePrice(tc.in)
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("ParsePrice(%q) err = %v, want %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("ParsePrice(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in         string
		name, args string
		ok         bool
	}{
		{"/start", "start", "", true},
		{"/list@ledger_bot 2024-05-01", "list", "2024-05-01", true},
		{"  /Cancel  ", "cancel", "", true},
		{"hello", "", "", false},
		{"/", "", "", false},
	}
	for _, tc := range cases {
		name, args, ok := parseCommand(tc.in)
		if name != tc.name || args != tc.args || ok != tc.ok {
			t.Fatalf("parseCommand(%q) = %q, %q, %v", tc.in, name, args, ok)
		}
	}
}

func TestGroupDigits(t *testing.T) {
	cases := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		50000:    "50,000",
		-1234567: "-1,234,567",
	}
	for in, want := range cases {
		if got := groupDigits(in); got != want {
			t.Fatalf("groupDigits(%d) = %q, want %q", in, got, want)
		}
	}
}
