package internal

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/folio/internal/gate"
	"github.com/starford/folio/internal/session"
	"github.com/starford/folio/internal/store"
)

// openSessions builds the configured session flag store. The returned
// closer is never nil.
func openSessions(cfg SessionConfig, db *store.DB) (gate.SessionStore, func() error, error) {
	switch cfg.Backend {
	case SessionBackendRedis:
		rs, err := session.NewRedisStore(cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		return rs, rs.Close, nil
	case SessionBackendSQLite:
		return db, func() error { return nil }, nil
	default:
		return gate.NewMemorySessions(), func() error { return nil }, nil
	}
}

// purgeSessions drops sqlite session flags older than ttl every interval.
func purgeSessions(ctx context.Context, db *store.DB, ttl, interval time.Duration, logger *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := db.PurgeSessions(ctx, time.Now().Add(-ttl))
			if err != nil {
				logger.Warn("sessions: purge failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				logger.Debug("sessions: purged", slog.Int64("count", n))
			}
		}
	}
}
