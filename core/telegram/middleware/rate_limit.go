package middleware

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ledgerbot/core/logger"
	tghelpers "github.com/m3rciful/ledgerbot/core/telegram/helpers"
)

// pruneThreshold bounds how many users are tracked before stale entries are dropped.
const pruneThreshold = 1024

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude holds update kinds that bypass the limit. "message" covers
	// commands, text and media alike.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// ExcludeSet lowercases kinds into a RateLimitOptions.Exclude set.
func ExcludeSet(kinds []string) map[string]struct{} {
	set := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

func (o RateLimitOptions) excluded(kind string) bool {
	if _, ok := o.Exclude[kind]; ok {
		return true
	}
	switch kind {
	case "command", "text", "media":
		_, ok := o.Exclude["message"]
		return ok
	}
	return false
}

// limiter remembers when each user was last let through.
type limiter struct {
	interval time.Duration
	mu       sync.Mutex
	lastSeen map[int64]time.Time
}

func newLimiter(interval time.Duration) *limiter {
	return &limiter{interval: interval, lastSeen: make(map[int64]time.Time)}
}

// allow reports whether userID may pass at now and records the pass.
func (l *limiter) allow(userID int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastSeen[userID]; ok && now.Sub(last) < l.interval {
		return false
	}
	l.lastSeen[userID] = now
	if len(l.lastSeen) > pruneThreshold {
		for id, seen := range l.lastSeen {
			if now.Sub(seen) >= l.interval {
				delete(l.lastSeen, id)
			}
		}
	}
	return true
}

// RateLimitMiddleware enforces a minimum interval between updates from the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	lim := newLimiter(opts.Interval)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := updateKind(c)
			if opts.excluded(kind) || lim.allow(user.ID, time.Now()) {
				return next(c)
			}

			chatID, _ := tghelpers.Participants(c)
			logger.TG.Warn("rate limit",
				slog.String("event", "tg.rate_limit"),
				slog.String("kind", kind),
				slog.Int64("chat_id", chatID),
				slog.Int64("user_id", user.ID),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
