// Package ledger persists job history in SQLite.
// Uses WAL mode for concurrent reads and crash-safe writes.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/EvanAranda/go-ext/procpool"
)

// Status of a recorded job run.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Record is one job run. RunID identifies the run across pool
// restarts; JobID is only unique within one pool instance.
type Record struct {
	RunID       string     `json:"run_id"`
	JobID       int64      `json:"job_id"`
	Task        string     `json:"task"`
	Status      Status     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	ElapsedMS   int64      `json:"elapsed_ms"`
	Result      string     `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Store wraps a SQLite connection with WAL mode and migrations.
type Store struct {
	db *sql.DB
}

// Open creates or opens the ledger database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close cleanly shuts down the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			run_id       TEXT PRIMARY KEY,
			job_id       INTEGER NOT NULL,
			task         TEXT NOT NULL,
			status       TEXT NOT NULL,
			submitted_at INTEGER NOT NULL,
			started_at   INTEGER,
			finished_at  INTEGER,
			elapsed_ms   INTEGER NOT NULL DEFAULT 0,
			result       TEXT NOT NULL DEFAULT '',
			error        TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_submitted ON jobs(submitted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// RecordSubmitted inserts a new run in submitted state.
func (s *Store) RecordSubmitted(runID string, jobID int64, task string, at time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO jobs (run_id, job_id, task, status, submitted_at)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, jobID, task, StatusSubmitted, at.UnixMilli(),
	)
	return err
}

// RecordCompleted stores the outcome of a delivered job. The job is
// the post-execution copy handed to the pool's completion observer;
// its Err decides the status.
func (s *Store) RecordCompleted(runID string, job *procpool.Job) error {
	status := StatusSucceeded
	var errText string
	if job.Err != nil {
		status = StatusFailed
		errText = job.Err.Error()
	}

	var resultText string
	if job.Result != nil {
		b, err := json.Marshal(job.Result)
		if err != nil {
			resultText = fmt.Sprintf("%v", job.Result)
		} else {
			resultText = string(b)
		}
	}

	_, err := s.db.Exec(
		`UPDATE jobs SET status = ?, started_at = ?, finished_at = ?, elapsed_ms = ?, result = ?, error = ?
		 WHERE run_id = ?`,
		status,
		nullableMilli(job.Stats.StartedAt),
		nullableMilli(job.Stats.FinishedAt),
		job.Stats.Elapsed().Milliseconds(),
		resultText,
		errText,
		runID,
	)
	return err
}

// Get returns one run, or nil when the run id is unknown.
func (s *Store) Get(runID string) (*Record, error) {
	row := s.db.QueryRow(
		`SELECT run_id, job_id, task, status, submitted_at, started_at, finished_at, elapsed_ms, result, error
		 FROM jobs WHERE run_id = ?`, runID,
	)
	return scanRecord(row)
}

// List returns the most recently submitted runs, newest first.
func (s *Store) List(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT run_id, job_id, task, status, submitted_at, started_at, finished_at, elapsed_ms, result, error
		 FROM jobs ORDER BY submitted_at DESC, job_id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var r Record
	var submitted int64
	var started, finished sql.NullInt64

	err := sc.Scan(&r.RunID, &r.JobID, &r.Task, &r.Status,
		&submitted, &started, &finished, &r.ElapsedMS, &r.Result, &r.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.SubmittedAt = time.UnixMilli(submitted)
	if started.Valid {
		t := time.UnixMilli(started.Int64)
		r.StartedAt = &t
	}
	if finished.Valid {
		t := time.UnixMilli(finished.Int64)
		r.FinishedAt = &t
	}
	return &r, nil
}

func nullableMilli(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}
