package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// CityStore persists City rows, the geographic grouping ingestion assigns
// businesses to.
type CityStore struct{ q querier }

// NewCityStore builds a CityStore over db (a *sqlx.DB or a *sqlx.Tx).
func NewCityStore(q querier) *CityStore { return &CityStore{q: q} }

// Upsert inserts a city keyed on its unique name, returning the existing row
// on conflict.
func (s *CityStore) Upsert(ctx context.Context, c City) (City, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	var out City
	err := s.q.GetContext(ctx, &out, `
		INSERT INTO cities (id, name, country, region, bbox)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, country, region, bbox
	`, c.ID, c.Name, c.Country, c.Region, c.BBox)
	if err == nil {
		return out, nil
	}
	if err != sql.ErrNoRows {
		return City{}, fmt.Errorf("upsert city: %w", err)
	}
	if err := s.q.GetContext(ctx, &out, `SELECT id, name, country, region, bbox FROM cities WHERE name = $1`, c.Name); err != nil {
		return City{}, fmt.Errorf("load existing city: %w", err)
	}
	return out, nil
}

// GetByID fetches a city by id.
func (s *CityStore) GetByID(ctx context.Context, id uuid.UUID) (City, error) {
	var c City
	if err := s.q.GetContext(ctx, &c, `SELECT id, name, country, region, bbox FROM cities WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return City{}, ErrNotFound
		}
		return City{}, fmt.Errorf("get city: %w", err)
	}
	return c, nil
}

// List returns every configured city.
func (s *CityStore) List(ctx context.Context) ([]City, error) {
	var rows []City
	if err := s.q.SelectContext(ctx, &rows, `SELECT id, name, country, region, bbox FROM cities ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return rows, nil
}
