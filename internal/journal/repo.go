package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// Run is one recorded sync attempt.
type Run struct {
	ID         string     `json:"id"`
	Trigger    string     `json:"trigger"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	Commit     string     `json:"commit,omitempty"`
	Error      string     `json:"error,omitempty"`
}

const defaultLimit = 20

// Start records a new running sync and returns its id.
func (db *DB) Start(ctx context.Context, trigger string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO sync_runs (id, source, started_at, status)
		VALUES (?, ?, ?, ?)
	`, id, trigger, db.now().UTC(), StatusRunning)
	if err != nil {
		return "", fmt.Errorf("journal: start: %w", err)
	}
	return id, nil
}

// Finish marks run id as finished. A non-nil runErr marks it failed.
func (db *DB) Finish(ctx context.Context, id, commit string, runErr error) error {
	status, msg := StatusOK, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	res, err := db.conn.ExecContext(ctx, `
		UPDATE sync_runs
		SET finished_at = ?, status = ?, commit_hash = ?, error = ?
		WHERE id = ?
	`, db.now().UTC(), status, commit, msg, id)
	if err != nil {
		return fmt.Errorf("journal: finish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("journal: finish: unknown run %s", id)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (db *DB) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, source, started_at, finished_at, status, commit_hash, error
		FROM sync_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		var (
			r        Run
			finished sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Trigger, &r.StartedAt, &finished, &r.Status, &r.Commit, &r.Error); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
