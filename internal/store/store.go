// Package store persists solver jobs in Postgres, the system of record
// behind the HTTP API (SPEC_FULL.md §4.10).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// JobStatus is the lifecycle state of a persisted job.
type JobStatus string

const (
	StatusQueued   JobStatus = "queued"
	StatusRunning  JobStatus = "running"
	StatusSolved   JobStatus = "solved"
	StatusFailed   JobStatus = "failed"
	StatusTimedOut JobStatus = "timed_out"
)

// Job is the persisted record for one solve request (SPEC_FULL.md §3).
type Job struct {
	ID            string
	GridText      string
	DictionaryKey string
	Seed          int64
	Status        JobStatus
	Assignment    json.RawMessage
	EventLog      json.RawMessage
	Error         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Store wraps a Postgres connection pool.
type Store struct {
	db *sql.DB
}

// New opens a Postgres connection pool, tuned the way the teacher tunes
// its database connection (internal/db/db.go).
func New(postgresURL string) (*Store, error) {
	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		return nil, fmt.Errorf("store: connecting to postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: pinging postgres: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InitSchema creates the jobs table if it doesn't already exist.
func (s *Store) InitSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS jobs (
		id VARCHAR(36) PRIMARY KEY,
		grid_text TEXT NOT NULL,
		dictionary_key VARCHAR(64) NOT NULL,
		seed BIGINT NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'queued',
		assignment JSONB,
		event_log JSONB,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	`
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("store: initializing schema: %w", err)
	}
	return nil
}

// CreateJob inserts a new job in the queued state.
func (s *Store) CreateJob(ctx context.Context, job *Job) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, grid_text, dictionary_key, seed, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, job.ID, job.GridText, job.DictionaryKey, job.Seed, job.Status, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: creating job: %w", err)
	}
	return nil
}

// UpdateJobStatus transitions a job's status and, on completion, records
// its assignment, event log, and any error.
func (s *Store) UpdateJobStatus(ctx context.Context, id string, status JobStatus, assignment, eventLog json.RawMessage, jobErr string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = $2, assignment = $3, event_log = $4, error = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`, id, status, assignment, eventLog, jobErr)
	if err != nil {
		return fmt.Errorf("store: updating job %s: %w", id, err)
	}
	return nil
}

// AppendEventLog overwrites a job's recorded event log. The HTTP handler
// calls this periodically while a job is still running, so a client
// polling GetJob mid-solve sees progress rather than nothing until the
// final UpdateJobStatus call.
func (s *Store) AppendEventLog(ctx context.Context, id string, eventLog json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET event_log = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1
	`, id, eventLog)
	if err != nil {
		return fmt.Errorf("store: appending event log for job %s: %w", id, err)
	}
	return nil
}

// GetJob fetches a job by ID. Returns (nil, nil) if no such job exists.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	job := &Job{}
	var errStr sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, grid_text, dictionary_key, seed, status, assignment, event_log, error, created_at, updated_at
		FROM jobs WHERE id = $1
	`, id).Scan(&job.ID, &job.GridText, &job.DictionaryKey, &job.Seed, &job.Status,
		&job.Assignment, &job.EventLog, &errStr, &job.CreatedAt, &job.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: getting job %s: %w", id, err)
	}
	job.Error = errStr.String
	return job, nil
}

// ListRecentJobs returns the most recently created jobs, newest first.
func (s *Store) ListRecentJobs(ctx context.Context, limit int) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, grid_text, dictionary_key, seed, status, assignment, event_log, error, created_at, updated_at
		FROM jobs ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job := &Job{}
		var errStr sql.NullString
		if err := rows.Scan(&job.ID, &job.GridText, &job.DictionaryKey, &job.Seed, &job.Status,
			&job.Assignment, &job.EventLog, &errStr, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scanning job row: %w", err)
		}
		job.Error = errStr.String
		jobs = append(jobs, job)
	}
	return jobs, nil
}
