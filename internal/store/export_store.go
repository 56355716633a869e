package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ExportStore persists BusinessOutreachExport rows.
type ExportStore struct{ q querier }

// NewExportStore builds an ExportStore over db (a *sqlx.DB or a *sqlx.Tx).
func NewExportStore(q querier) *ExportStore { return &ExportStore{q: q} }

// Insert records a business as exported to platform. The unique
// (business_id, platform) constraint is the idempotency anchor: a second
// insert for the same pair returns ErrAlreadyExported instead of writing a
// duplicate row.
func (s *ExportStore) Insert(ctx context.Context, e BusinessOutreachExport) (BusinessOutreachExport, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = ExportStatusQueued
	}
	if e.Raw == nil {
		e.Raw = JSONMap{}
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO business_outreach_exports (id, business_id, platform, status, exported_at, raw)
		VALUES ($1,$2,$3,$4, now(), $5)
	`, e.ID, e.BusinessID, e.Platform, e.Status, e.Raw)
	if err != nil {
		if isUniqueViolation(err) {
			return BusinessOutreachExport{}, ErrAlreadyExported
		}
		return BusinessOutreachExport{}, fmt.Errorf("insert export: %w", err)
	}
	return e, nil
}

// SetStatus updates an export's delivery status.
func (s *ExportStore) SetStatus(ctx context.Context, id uuid.UUID, status ExportStatus) error {
	_, err := s.q.ExecContext(ctx, `UPDATE business_outreach_exports SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set export status: %w", err)
	}
	return nil
}

// ListByPlatform returns exports for a platform, most recent first.
func (s *ExportStore) ListByPlatform(ctx context.Context, platform string, limit int) ([]BusinessOutreachExport, error) {
	var rows []BusinessOutreachExport
	err := s.q.SelectContext(ctx, &rows, `
		SELECT id, business_id, platform, status, exported_at, raw
		FROM business_outreach_exports
		WHERE platform = $1
		ORDER BY exported_at DESC
		LIMIT $2
	`, platform, limit)
	if err != nil {
		return nil, fmt.Errorf("list exports for platform %s: %w", platform, err)
	}
	return rows, nil
}

// CountToday reports how many businesses have been exported to platform
// since midnight UTC, the count the daily-target recycler compares against
// its configured ceiling.
func (s *ExportStore) CountToday(ctx context.Context, platform string) (int, error) {
	var n int
	err := s.q.GetContext(ctx, &n, `
		SELECT count(*) FROM business_outreach_exports
		WHERE platform = $1 AND exported_at >= date_trunc('day', now())
	`, platform)
	if err != nil {
		return 0, fmt.Errorf("count today's exports for platform %s: %w", platform, err)
	}
	return n, nil
}
