package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// CheckpointStore persists JobCheckpoint rows, the durable cursor position
// long-running sync and verification jobs resume from.
type CheckpointStore struct{ q querier }

// NewCheckpointStore builds a CheckpointStore over db (a *sqlx.DB or a *sqlx.Tx).
func NewCheckpointStore(q querier) *CheckpointStore { return &CheckpointStore{q: q} }

// Set upserts a checkpoint value, keyed on (job_name, scope, checkpoint_key).
func (s *CheckpointStore) Set(ctx context.Context, jobRunID *uuid.UUID, jobName, scope, key, value string) error {
	scope = NormalizeScope(scope)
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO job_checkpoints (id, job_run_id, job_name, scope, checkpoint_key, checkpoint_value, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
		ON CONFLICT (job_name, scope, checkpoint_key)
		DO UPDATE SET checkpoint_value = EXCLUDED.checkpoint_value, job_run_id = EXCLUDED.job_run_id, updated_at = now()
	`, uuid.New(), jobRunID, jobName, scope, key, value)
	if err != nil {
		return fmt.Errorf("set checkpoint %s/%s/%s: %w", jobName, scope, key, err)
	}
	return nil
}

// Get reads a checkpoint value, returning ErrNotFound if it has never been set.
func (s *CheckpointStore) Get(ctx context.Context, jobName, scope, key string) (string, error) {
	scope = NormalizeScope(scope)
	var value string
	err := s.q.GetContext(ctx, &value, `
		SELECT checkpoint_value FROM job_checkpoints
		WHERE job_name = $1 AND scope = $2 AND checkpoint_key = $3
	`, jobName, scope, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get checkpoint %s/%s/%s: %w", jobName, scope, key, err)
	}
	return value, nil
}
