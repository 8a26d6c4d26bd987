package logger

import (
	"fmt"
	"strings"
	"time"
)

// Took returns the time since start rounded to milliseconds.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds d to the nearest millisecond; negative values become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// Preview joins at most limit values and notes how many were left out,
// e.g. "a, b (+3 more)".
func Preview(values []string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	if len(values) <= limit {
		return strings.Join(values, ", ")
	}
	head := strings.Join(values[:limit], ", ")
	rest := fmt.Sprintf("+%d more", len(values)-limit)
	if head == "" {
		return rest
	}
	return head + " (" + rest + ")"
}
