package logger

import (
	"strconv"
	"strings"
	"sync"
)

// eventSampler lets numerator out of every denominator records through,
// counting each key on its own so a busy event cannot starve a rare one.
type eventSampler struct {
	mu          sync.Mutex
	numerator   int
	denominator int
	counters    map[string]int
}

func newEventSampler(numerator, denominator int) *eventSampler {
	s := &eventSampler{}
	s.Set(numerator, denominator)
	return s
}

// Set replaces the ratio and resets all counters. A non-positive part disables sampling.
func (s *eventSampler) Set(numerator, denominator int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if numerator <= 0 || denominator <= 0 {
		numerator, denominator = 0, 0
	}
	if numerator > denominator {
		numerator = denominator
	}
	s.numerator = numerator
	s.denominator = denominator
	s.counters = make(map[string]int)
}

// Allow reports whether the next record for key passes. The first record of each key always does.
func (s *eventSampler) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.denominator == 0 {
		return true
	}
	n := s.counters[key] % s.denominator
	s.counters[key] = n + 1
	return n < s.numerator
}

// parseRatioSpec accepts "n/d" or a bare "d" meaning 1/d.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, 0
	}
	if num, den, ok := strings.Cut(spec, "/"); ok {
		n, err1 := strconv.Atoi(strings.TrimSpace(num))
		d, err2 := strconv.Atoi(strings.TrimSpace(den))
		if err1 != nil || err2 != nil {
			return 0, 0
		}
		return n, d
	}
	v, err := strconv.Atoi(spec)
	if err != nil || v <= 0 {
		return 0, 0
	}
	return 1, v
}
