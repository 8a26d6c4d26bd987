package helpers

import (
	"strings"
	"time"
)

// dayLayouts are the date spellings users type after commands such as "/list".
var dayLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2006/01/02",
	"02.01.2006",
	"2.1.2006",
	"2006-01-02 15:04",
	"02.01.2006 15:04",
}

// ParseDay reads a calendar date in loc and returns its midnight.
// A time of day, when given, is accepted and dropped. nil loc means time.Local.
func ParseDay(input string, loc *time.Location) (time.Time, bool) {
	s := strings.Join(strings.Fields(input), " ")
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dayLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}
