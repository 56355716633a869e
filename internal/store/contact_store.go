package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ContactStore persists BusinessContact rows.
type ContactStore struct{ q querier }

// NewContactStore builds a ContactStore over db (a *sqlx.DB or a *sqlx.Tx).
func NewContactStore(q querier) *ContactStore { return &ContactStore{q: q} }

// Insert adds a contact to a business. Duplicate (business_id, contact_type,
// value) inserts are ignored rather than erroring, since multiple verifiers
// can independently surface the same address.
func (s *ContactStore) Insert(ctx context.Context, c BusinessContact) (BusinessContact, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO business_contacts (id, business_id, contact_type, value, source, created_at)
		VALUES ($1,$2,$3,$4,$5, now())
		ON CONFLICT (business_id, contact_type, value) DO NOTHING
	`, c.ID, c.BusinessID, c.ContactType, c.Value, c.Source)
	if err != nil {
		return BusinessContact{}, fmt.Errorf("insert business contact: %w", err)
	}
	return c, nil
}

// ListByBusiness returns all contacts recorded for a business.
func (s *ContactStore) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]BusinessContact, error) {
	var rows []BusinessContact
	err := s.q.SelectContext(ctx, &rows, `
		SELECT id, business_id, contact_type, value, source, created_at
		FROM business_contacts WHERE business_id = $1
		ORDER BY created_at ASC
	`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list business contacts: %w", err)
	}
	return rows, nil
}

// ListBySource returns contacts tagged with a given Source value (e.g.
// "role" for synthesized role-address contacts awaiting export), oldest
// first. It filters on Source only: contact type is not checked and the
// owning business is not joined.
func (s *ContactStore) ListBySource(ctx context.Context, source string, limit int) ([]BusinessContact, error) {
	var rows []BusinessContact
	err := s.q.SelectContext(ctx, &rows, `
		SELECT id, business_id, contact_type, value, source, created_at
		FROM business_contacts WHERE source = $1
		ORDER BY created_at ASC LIMIT $2
	`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("list business contacts by source: %w", err)
	}
	return rows, nil
}

// MarkSource overwrites the Source tag on a set of contacts, used to flag
// role-address contacts as exported so the next export run doesn't repeat them.
func (s *ContactStore) MarkSource(ctx context.Context, ids []uuid.UUID, newSource string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE business_contacts SET source = ? WHERE id IN (?)`, newSource, ids)
	if err != nil {
		return fmt.Errorf("build mark-source query: %w", err)
	}
	query = s.q.Rebind(query)
	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark business contacts source: %w", err)
	}
	return nil
}

// CountByBusiness reports how many contacts a business already has.
func (s *ContactStore) CountByBusiness(ctx context.Context, businessID uuid.UUID) (int, error) {
	var n int
	if err := s.q.GetContext(ctx, &n, `SELECT count(*) FROM business_contacts WHERE business_id = $1`, businessID); err != nil {
		return 0, fmt.Errorf("count business contacts: %w", err)
	}
	return n, nil
}
