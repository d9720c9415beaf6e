package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/folio/internal/apperr"
)

// RunRow is one recorded extraction run.
type RunRow struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Counts     map[string]int
	Failures   map[string]string
	Checksum   string
}

// Duration is the wall time of the run.
func (r RunRow) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunHistory is the read/write surface over sync runs.
type RunHistory interface {
	RecordRun(ctx context.Context, run RunRow) (int64, error)
	Runs(ctx context.Context, limit int) ([]RunRow, error)
	LastRun(ctx context.Context) (RunRow, error)
}

var _ RunHistory = (*DB)(nil)

// RecordRun appends a run and returns its id.
func (db *DB) RecordRun(ctx context.Context, run RunRow) (int64, error) {
	counts, _ := json.Marshal(orEmpty(run.Counts))
	failures, _ := json.Marshal(orEmptyStr(run.Failures))

	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO sync_runs (started_at, finished_at, counts, failures, checksum)
		VALUES (?, ?, ?, ?, ?)
	`, run.StartedAt.UTC(), run.FinishedAt.UTC(), string(counts), string(failures), run.Checksum)
	if err != nil {
		return 0, fmt.Errorf("store: record run: %w", err)
	}
	return res.LastInsertId()
}

// Runs returns the most recent runs, newest first. limit <= 0 means 20.
func (db *DB) Runs(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, started_at, finished_at, counts, failures, checksum
		FROM sync_runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LastRun returns the newest run or apperr.ErrNotFound.
func (db *DB) LastRun(ctx context.Context) (RunRow, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, counts, failures, checksum
		FROM sync_runs ORDER BY id DESC LIMIT 1
	`)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRow{}, apperr.ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRow, error) {
	var (
		r                RunRow
		counts, failures string
	)
	if err := s.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &counts, &failures, &r.Checksum); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRow{}, err
		}
		return RunRow{}, fmt.Errorf("store: scan run: %w", err)
	}
	_ = json.Unmarshal([]byte(counts), &r.Counts)
	_ = json.Unmarshal([]byte(failures), &r.Failures)
	if r.Counts == nil {
		r.Counts = map[string]int{}
	}
	if r.Failures == nil {
		r.Failures = map[string]string{}
	}
	return r, nil
}

func orEmpty(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func orEmptyStr(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
