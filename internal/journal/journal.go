// Package journal persists job status transitions to a local SQLite file.
// It is purely additive observability: the in-memory job store stays
// authoritative, and a journal write failure never fails a job.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/learngvrk/claude-code-skills/constants"
)

const schema = `
CREATE TABLE IF NOT EXISTS job_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id      TEXT NOT NULL,
	status      TEXT NOT NULL,
	progress    INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_job_events_job_id ON job_events (job_id);
`

// Event is one recorded transition.
type Event struct {
	JobID      uuid.UUID
	Status     constants.JobStatus
	Progress   int
	Total      int
	Error      string
	RecordedAt time.Time
}

// Journal appends job transitions to SQLite.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates (or opens) the journal database at path and ensures the
// schema exists.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	// A single writer is plenty here and avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &Journal{db: db, logger: logger}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one event. Safe to call on a nil Journal (disabled).
func (j *Journal) Record(ctx context.Context, ev Event) {
	if j == nil {
		return
	}
	if ev.RecordedAt.IsZero() {
		ev.RecordedAt = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO job_events (job_id, status, progress, total, error, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.JobID.String(), string(ev.Status), ev.Progress, ev.Total, ev.Error, ev.RecordedAt,
	)
	if err != nil {
		j.logger.Warn("journal.record.failed", "job_id", ev.JobID, "status", ev.Status, "error", err)
	}
}

// Events returns all recorded events for a job, oldest first.
func (j *Journal) Events(ctx context.Context, jobID uuid.UUID) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT job_id, status, progress, total, error, recorded_at
		 FROM job_events WHERE job_id = ? ORDER BY id ASC`,
		jobID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var id, status string
		if err := rows.Scan(&id, &status, &ev.Progress, &ev.Total, &ev.Error, &ev.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		ev.JobID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse job id %q: %w", id, err)
		}
		ev.Status = constants.JobStatus(status)
		out = append(out, ev)
	}
	return out, rows.Err()
}
