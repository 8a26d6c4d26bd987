package dialog

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrEmptyAmount is returned for blank amount input.
	ErrEmptyAmount = errors.New("amount is empty")
	// ErrInvalidAmount is returned for anything but a non-negative integer.
	ErrInvalidAmount = errors.New("amount must be a non-negative whole number")
)

// ParsePrice accepts ASCII digits surrounded by optional whitespace.
// Signs, separators and values above int64 are rejected.
func ParsePrice(input string) (int64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, ErrEmptyAmount
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// parseCommand splits "/list@bot 2024-05-01" into "list" and "2024-05-01".
func parseCommand(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest), head != ""
}
