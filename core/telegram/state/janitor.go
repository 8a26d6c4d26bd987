package state

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/ledgerbot/core/logger"
)

// RunJanitor sweeps expired sessions every interval until ctx is done.
// It returns immediately when interval is not positive.
func RunJanitor(ctx context.Context, s Store, interval time.Duration) {
	if s == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			start := time.Now()
			n := s.Sweep(now)
			if n == 0 {
				continue
			}
			logger.Session.Info("sessions expired",
				slog.String("event", "session.sweep"),
				slog.String("status", "expired"),
				slog.Int("expired", n),
				slog.Int("sessions", s.Len()),
				slog.Duration("duration", logger.Took(start)),
			)
		}
	}
}
