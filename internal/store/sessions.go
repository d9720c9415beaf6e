package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Flag reports whether name is set for the session.
func (db *DB) Flag(ctx context.Context, sessionID, name string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM session_flags WHERE session_id = ? AND name = ?`, sessionID, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: read flag: %w", err)
	}
	return true, nil
}

// SetFlag sets name for the session.
func (db *DB) SetFlag(ctx context.Context, sessionID, name string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO session_flags (session_id, name, set_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id, name) DO UPDATE SET set_at = excluded.set_at
	`, sessionID, name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: set flag: %w", err)
	}
	return nil
}

// Clear removes every flag of the session.
func (db *DB) Clear(ctx context.Context, sessionID string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM session_flags WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("store: clear session: %w", err)
	}
	return nil
}

// PurgeSessions drops flags set before cutoff and returns how many went.
func (db *DB) PurgeSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM session_flags WHERE set_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("store: purge sessions: %w", err)
	}
	return res.RowsAffected()
}
