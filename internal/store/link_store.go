package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// LinkStore persists BusinessDomainLink rows, the many-to-many join a
// business can accrue across website discovery, email-domain inference, and
// verifier guesses.
type LinkStore struct{ q querier }

// NewLinkStore builds a LinkStore over db (a *sqlx.DB or a *sqlx.Tx).
func NewLinkStore(q querier) *LinkStore { return &LinkStore{q: q} }

// Link associates a business with a domain, recording source as its
// provenance. A business can only be linked to a given domain once: a
// second call for the same pair is a no-op and the first recorded source wins.
func (s *LinkStore) Link(ctx context.Context, businessID, domainID uuid.UUID, source LinkSource) (BusinessDomainLink, error) {
	l := BusinessDomainLink{ID: uuid.New(), BusinessID: businessID, DomainID: domainID, Source: source}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO business_domain_links (id, business_id, domain_id, source, created_at)
		VALUES ($1,$2,$3,$4, now())
		ON CONFLICT (business_id, domain_id) DO NOTHING
	`, l.ID, l.BusinessID, l.DomainID, l.Source)
	if err != nil {
		return BusinessDomainLink{}, fmt.Errorf("link business to domain: %w", err)
	}
	return l, nil
}

// ListByBusiness returns every domain a business has been linked to.
func (s *LinkStore) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]BusinessDomainLink, error) {
	var rows []BusinessDomainLink
	err := s.q.SelectContext(ctx, &rows, `
		SELECT id, business_id, domain_id, source, created_at
		FROM business_domain_links WHERE business_id = $1
		ORDER BY created_at ASC
	`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list links for business: %w", err)
	}
	return rows, nil
}

// ListByDomain returns every business linked to a domain.
func (s *LinkStore) ListByDomain(ctx context.Context, domainID uuid.UUID) ([]BusinessDomainLink, error) {
	var rows []BusinessDomainLink
	err := s.q.SelectContext(ctx, &rows, `
		SELECT id, business_id, domain_id, source, created_at
		FROM business_domain_links WHERE domain_id = $1
		ORDER BY created_at ASC
	`, domainID)
	if err != nil {
		return nil, fmt.Errorf("list links for domain: %w", err)
	}
	return rows, nil
}

// HasLink reports whether a business is already linked to a domain via any source.
func (s *LinkStore) HasLink(ctx context.Context, businessID, domainID uuid.UUID) (bool, error) {
	var id uuid.UUID
	err := s.q.GetContext(ctx, &id, `
		SELECT id FROM business_domain_links WHERE business_id = $1 AND domain_id = $2 LIMIT 1
	`, businessID, domainID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check business-domain link: %w", err)
	}
	return true, nil
}
