package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// maxJobErrorBytes bounds how much of a failing job's error text is kept;
// programming errors can carry arbitrarily large stack traces and the
// error column keeps only this much of them.
const maxJobErrorBytes = 4 * 1024

// JobStore persists JobRun rows, the ledger schedulers and CLI commands use
// to record what a batch job did.
type JobStore struct{ q querier }

// NewJobStore builds a JobStore over db (a *sqlx.DB or a *sqlx.Tx).
func NewJobStore(q querier) *JobStore { return &JobStore{q: q} }

// Start records a new running JobRun.
func (s *JobStore) Start(ctx context.Context, jobName, scope string) (JobRun, error) {
	run := JobRun{
		ID:        uuid.New(),
		JobName:   jobName,
		Scope:     NormalizeScope(scope),
		Status:    JobRunStatusRunning,
		StartedAt: time.Now().UTC(),
		Details:   JSONMap{},
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO job_runs (id, job_name, scope, status, started_at, processed_count, details)
		VALUES ($1,$2,$3,$4,$5,0,$6)
	`, run.ID, run.JobName, run.Scope, run.Status, run.StartedAt, run.Details)
	if err != nil {
		return JobRun{}, fmt.Errorf("start job run: %w", err)
	}
	return run, nil
}

// Complete marks a JobRun successful with its final processed count and details.
func (s *JobStore) Complete(ctx context.Context, id uuid.UUID, processedCount int, details JSONMap) error {
	if details == nil {
		details = JSONMap{}
	}
	_, err := s.q.ExecContext(ctx, `
		UPDATE job_runs SET status = $2, finished_at = now(), processed_count = $3, details = $4
		WHERE id = $1
	`, id, JobRunStatusSuccess, processedCount, details)
	if err != nil {
		return fmt.Errorf("complete job run: %w", err)
	}
	return nil
}

// Fail marks a JobRun failed, truncating a runaway error message to
// maxJobErrorBytes so a panic's stack trace can't bloat the row.
func (s *JobStore) Fail(ctx context.Context, id uuid.UUID, processedCount int, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
		if len(msg) > maxJobErrorBytes {
			msg = msg[:maxJobErrorBytes]
		}
	}
	_, err := s.q.ExecContext(ctx, `
		UPDATE job_runs SET status = $2, finished_at = now(), processed_count = $3, error = $4
		WHERE id = $1
	`, id, JobRunStatusFailed, processedCount, msg)
	if err != nil {
		return fmt.Errorf("fail job run: %w", err)
	}
	return nil
}

// LatestByName returns the most recent run of jobName in scope.
func (s *JobStore) LatestByName(ctx context.Context, jobName, scope string) (JobRun, error) {
	var run JobRun
	err := s.q.GetContext(ctx, &run, `
		SELECT id, job_name, scope, status, started_at, finished_at, processed_count, details, error
		FROM job_runs WHERE job_name = $1 AND scope = $2
		ORDER BY started_at DESC LIMIT 1
	`, jobName, NormalizeScope(scope))
	if err != nil {
		if err == sql.ErrNoRows {
			return JobRun{}, ErrNotFound
		}
		return JobRun{}, fmt.Errorf("get latest job run: %w", err)
	}
	return run, nil
}

// ListRecent returns the most recent runs of jobName across all scopes,
// newest first.
func (s *JobStore) ListRecent(ctx context.Context, jobName string, limit int) ([]JobRun, error) {
	var rows []JobRun
	err := s.q.SelectContext(ctx, &rows, `
		SELECT id, job_name, scope, status, started_at, finished_at, processed_count, details, error
		FROM job_runs WHERE job_name = $1
		ORDER BY started_at DESC LIMIT $2
	`, jobName, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent job runs: %w", err)
	}
	return rows, nil
}
