package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BusinessStore persists Business rows.
type BusinessStore struct{ q querier }

// NewBusinessStore builds a BusinessStore over db (a *sqlx.DB or a *sqlx.Tx).
func NewBusinessStore(q querier) *BusinessStore { return &BusinessStore{q: q} }

// Upsert inserts a business keyed on the unique (source, source_id) pair;
// a conflicting insert is silently ignored and the existing row is returned.
func (s *BusinessStore) Upsert(ctx context.Context, b Business) (Business, bool, error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Raw == nil {
		b.Raw = JSONMap{}
	}
	var out Business
	err := s.q.GetContext(ctx, &out, `
		INSERT INTO businesses (id, source, source_id, name, category, website_url, address, lat, lon, raw, city_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, now())
		ON CONFLICT (source, source_id) DO NOTHING
		RETURNING id, source, source_id, name, category, website_url, address, lat, lon, lead_score, score_reasons, scored_at, raw, city_id, created_at
	`, b.ID, b.Source, b.SourceID, b.Name, b.Category, b.WebsiteURL, b.Address, b.Lat, b.Lon, b.Raw, b.CityID)
	if err == nil {
		return out, true, nil
	}
	if err != sql.ErrNoRows {
		return Business{}, false, fmt.Errorf("upsert business: %w", err)
	}
	if err := s.q.GetContext(ctx, &out, `
		SELECT id, source, source_id, name, category, website_url, address, lat, lon, lead_score, score_reasons, scored_at, raw, city_id, created_at
		FROM businesses WHERE source = $1 AND source_id = $2
	`, b.Source, b.SourceID); err != nil {
		return Business{}, false, fmt.Errorf("load existing business: %w", err)
	}
	return out, false, nil
}

// GetByID fetches a business by id.
func (s *BusinessStore) GetByID(ctx context.Context, id uuid.UUID) (Business, error) {
	var b Business
	err := s.q.GetContext(ctx, &b, `
		SELECT id, source, source_id, name, category, website_url, address, lat, lon, lead_score, score_reasons, scored_at, raw, city_id, created_at
		FROM businesses WHERE id = $1
	`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return Business{}, ErrNotFound
		}
		return Business{}, fmt.Errorf("get business: %w", err)
	}
	return b, nil
}

// ListCreatedAfter returns a page of businesses ordered by (created_at, id),
// the stable cursor the business-domain sync checkpoints on.
func (s *BusinessStore) ListCreatedAfter(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]Business, error) {
	var rows []Business
	err := s.q.SelectContext(ctx, &rows, `
		SELECT id, source, source_id, name, category, website_url, address, lat, lon, lead_score, score_reasons, scored_at, raw, city_id, created_at
		FROM businesses
		WHERE (created_at, id) > ($1, $2)
		ORDER BY created_at ASC, id ASC
		LIMIT $3
	`, afterCreatedAt, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	return rows, nil
}

// ListNeedingVerifier returns businesses missing the given verifier's
// "<source>_verified" key in raw, up to limit, so reruns never duplicate work.
func (s *BusinessStore) ListNeedingVerifier(ctx context.Context, source string, minScore int, limit int) ([]Business, error) {
	var rows []Business
	key := source + "_verified"
	err := s.q.SelectContext(ctx, &rows, `
		SELECT id, source, source_id, name, category, website_url, address, lat, lon, lead_score, score_reasons, scored_at, raw, city_id, created_at
		FROM businesses
		WHERE (website_url IS NULL OR website_url = '')
		  AND NOT (raw ? $1)
		  AND (lead_score IS NULL OR lead_score >= $2)
		ORDER BY lead_score DESC NULLS LAST, created_at ASC
		LIMIT $3
	`, key, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("list businesses needing verifier %s: %w", source, err)
	}
	return rows, nil
}

// ListUnscored returns businesses whose scored_at is null or older than any
// feature (the caller decides the "newer than" comparison upstream); this
// query returns the simple null case used for the common rescore path.
func (s *BusinessStore) ListUnscored(ctx context.Context, limit int) ([]Business, error) {
	var rows []Business
	err := s.q.SelectContext(ctx, &rows, `
		SELECT id, source, source_id, name, category, website_url, address, lat, lon, lead_score, score_reasons, scored_at, raw, city_id, created_at
		FROM businesses
		WHERE scored_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unscored businesses: %w", err)
	}
	return rows, nil
}

// ListExportCandidates returns unexported, scored businesses eligible for platform,
// ordered by lead_score desc then created_at asc.
func (s *BusinessStore) ListExportCandidates(ctx context.Context, platform string, minScore int, excludeEverExported bool, limit int) ([]Business, error) {
	everExportedClause := ""
	if excludeEverExported {
		everExportedClause = `AND NOT EXISTS (SELECT 1 FROM business_outreach_exports e2 WHERE e2.business_id = businesses.id)`
	}
	var rows []Business
	query := fmt.Sprintf(`
		SELECT id, source, source_id, name, category, website_url, address, lat, lon, lead_score, score_reasons, scored_at, raw, city_id, created_at
		FROM businesses
		WHERE (website_url IS NULL OR website_url = '')
		  AND lead_score >= $2
		  AND NOT EXISTS (SELECT 1 FROM business_outreach_exports e WHERE e.business_id = businesses.id AND e.platform = $1)
		  %s
		ORDER BY lead_score DESC, created_at ASC
		LIMIT $3
	`, everExportedClause)
	if err := s.q.SelectContext(ctx, &rows, query, platform, minScore, limit); err != nil {
		return nil, fmt.Errorf("list export candidates: %w", err)
	}
	return rows, nil
}

// UpdateRaw merges patch into the business's raw map additively, so one
// verifier's write never clobbers another's, and optionally sets website_url
// and resets scored_at to null.
func (s *BusinessStore) UpdateRaw(ctx context.Context, id uuid.UUID, patch JSONMap, websiteURL *string, resetScoredAt bool) error {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	merged := JSONMap{}
	for k, v := range current.Raw {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	query := `UPDATE businesses SET raw = $2`
	args := []any{id, merged}
	n := 3
	if websiteURL != nil {
		query += fmt.Sprintf(", website_url = $%d", n)
		args = append(args, *websiteURL)
		n++
	}
	if resetScoredAt {
		query += ", scored_at = NULL"
	}
	query += " WHERE id = $1"
	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update business raw: %w", err)
	}
	return nil
}

// ListLeads returns a page of scored businesses for the dashboard API, most
// promising first, optionally filtered to a minimum score.
func (s *BusinessStore) ListLeads(ctx context.Context, minScore int, limit, offset int) ([]Business, error) {
	var rows []Business
	err := s.q.SelectContext(ctx, &rows, `
		SELECT id, source, source_id, name, category, website_url, address, lat, lon, lead_score, score_reasons, scored_at, raw, city_id, created_at
		FROM businesses
		WHERE lead_score IS NOT NULL AND lead_score >= $1
		ORDER BY lead_score DESC, created_at ASC
		LIMIT $2 OFFSET $3
	`, minScore, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return rows, nil
}

// CountLeads returns the total number of scored businesses at or above minScore.
func (s *BusinessStore) CountLeads(ctx context.Context, minScore int) (int, error) {
	var count int
	if err := s.q.GetContext(ctx, &count, `
		SELECT count(*) FROM businesses WHERE lead_score IS NOT NULL AND lead_score >= $1
	`, minScore); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return count, nil
}

// SetScore writes the scorer's output and clears scored_at's "needs rescore" state.
func (s *BusinessStore) SetScore(ctx context.Context, id uuid.UUID, score int, reasons JSONMap) error {
	_, err := s.q.ExecContext(ctx, `UPDATE businesses SET lead_score = $2, score_reasons = $3, scored_at = now() WHERE id = $1`, id, score, reasons)
	if err != nil {
		return fmt.Errorf("set business score: %w", err)
	}
	return nil
}
