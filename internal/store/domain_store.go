package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// DomainStore persists Domain and WhoisCheck rows.
type DomainStore struct{ q querier }

// NewDomainStore builds a DomainStore over db (a *sqlx.DB or a *sqlx.Tx).
func NewDomainStore(q querier) *DomainStore { return &DomainStore{q: q} }

// Upsert inserts domain if it doesn't exist. A conflict on the unique domain
// column is a no-op, not an error: it is the concurrency primitive concurrent
// ingestion workers rely on. Returns the row (existing or newly inserted) and
// whether it was inserted.
func (s *DomainStore) Upsert(ctx context.Context, normalizedDomain string) (Domain, bool, error) {
	var d Domain
	err := s.q.GetContext(ctx, &d, `
		INSERT INTO domains (id, domain, status, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (domain) DO NOTHING
		RETURNING id, domain, status, created_at, updated_at
	`, uuid.New(), normalizedDomain, DomainStatusNew)
	if err == nil {
		return d, true, nil
	}
	if err != sql.ErrNoRows {
		return Domain{}, false, fmt.Errorf("upsert domain: %w", err)
	}
	if err := s.q.GetContext(ctx, &d, `SELECT id, domain, status, created_at, updated_at FROM domains WHERE domain = $1`, normalizedDomain); err != nil {
		return Domain{}, false, fmt.Errorf("load existing domain: %w", err)
	}
	return d, false, nil
}

// GetByName fetches a domain by its normalized name.
func (s *DomainStore) GetByName(ctx context.Context, normalizedDomain string) (Domain, error) {
	var d Domain
	if err := s.q.GetContext(ctx, &d, `SELECT id, domain, status, created_at, updated_at FROM domains WHERE domain = $1`, normalizedDomain); err != nil {
		if err == sql.ErrNoRows {
			return Domain{}, ErrNotFound
		}
		return Domain{}, fmt.Errorf("get domain: %w", err)
	}
	return d, nil
}

// GetByID fetches a domain by id.
func (s *DomainStore) GetByID(ctx context.Context, id uuid.UUID) (Domain, error) {
	var d Domain
	if err := s.q.GetContext(ctx, &d, `SELECT id, domain, status, created_at, updated_at FROM domains WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return Domain{}, ErrNotFound
		}
		return Domain{}, fmt.Errorf("get domain: %w", err)
	}
	return d, nil
}

// GetByIDs fetches many domains at once, keyed by id.
func (s *DomainStore) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Domain, error) {
	out := make(map[uuid.UUID]Domain, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT id, domain, status, created_at, updated_at FROM domains WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	query = s.q.Rebind(query)
	var rows []Domain
	if err := s.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select domains: %w", err)
	}
	for _, d := range rows {
		out[d.ID] = d
	}
	return out, nil
}

// SetStatus overwrites a Domain's status with the classifier's latest verdict.
func (s *DomainStore) SetStatus(ctx context.Context, id uuid.UUID, status DomainStatus) error {
	_, err := s.q.ExecContext(ctx, `UPDATE domains SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set domain status: %w", err)
	}
	return nil
}

// InsertWhoisCheck records one classification pass.
func (s *DomainStore) InsertWhoisCheck(ctx context.Context, c WhoisCheck) (WhoisCheck, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CheckedAt.IsZero() {
		c.CheckedAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO whois_checks (id, domain_id, is_registered, is_parked, has_a, has_aaaa, has_cname, has_mx, has_http, http_status, registrar, raw, checked_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, c.ID, c.DomainID, c.IsRegistered, c.IsParked, c.HasA, c.HasAAAA, c.HasCNAME, c.HasMX, c.HasHTTP, c.HTTPStatus, c.Registrar, c.Raw, c.CheckedAt)
	if err != nil {
		return WhoisCheck{}, fmt.Errorf("insert whois check: %w", err)
	}
	return c, nil
}

// LatestWhoisCheck returns the most recent classification pass recorded for
// a domain, used by role-email enrichment to confirm MX presence before
// synthesizing addresses.
func (s *DomainStore) LatestWhoisCheck(ctx context.Context, domainID uuid.UUID) (WhoisCheck, error) {
	var c WhoisCheck
	err := s.q.GetContext(ctx, &c, `
		SELECT id, domain_id, is_registered, is_parked, has_a, has_aaaa, has_cname, has_mx, has_http, http_status, registrar, raw, checked_at
		FROM whois_checks WHERE domain_id = $1
		ORDER BY checked_at DESC LIMIT 1
	`, domainID)
	if err != nil {
		if err == sql.ErrNoRows {
			return WhoisCheck{}, ErrNotFound
		}
		return WhoisCheck{}, fmt.Errorf("get latest whois check: %w", err)
	}
	return c, nil
}

// ListByStatus returns domain ids at a given status, for batch classification targeting.
func (s *DomainStore) ListByStatus(ctx context.Context, status DomainStatus, limit int) ([]Domain, error) {
	var rows []Domain
	err := s.q.SelectContext(ctx, &rows, `
		SELECT id, domain, status, created_at, updated_at FROM domains
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list domains by status: %w", err)
	}
	return rows, nil
}

// ClaimBatch selects up to limit domains for classification using
// FOR UPDATE SKIP LOCKED, so concurrent workers never pick up the same row.
// Call within a transaction (see Store.WithTx) so the row lock holds for the
// duration of the classification work.
func (s *DomainStore) ClaimBatch(ctx context.Context, limit int) ([]Domain, error) {
	var rows []Domain
	err := s.q.SelectContext(ctx, &rows, `
		SELECT id, domain, status, created_at, updated_at FROM domains
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, DomainStatusNew, limit)
	if err != nil {
		return nil, fmt.Errorf("claim domain batch: %w", err)
	}
	return rows, nil
}
