package store

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func newMockBusinessStore(t *testing.T) (*BusinessStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBusinessStore(sqlx.NewDb(db, "postgres")), mock
}

func TestListLeadsOrdersByScoreDesc(t *testing.T) {
	s, mock := newMockBusinessStore(t)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, source, source_id, name, category, website_url, address, lat, lon, lead_score, score_reasons, scored_at, raw, city_id, created_at\s+FROM businesses\s+WHERE lead_score IS NOT NULL AND lead_score >= \$1\s+ORDER BY lead_score DESC, created_at ASC`).
		WithArgs(50, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "source", "source_id", "name", "category", "website_url", "address", "lat", "lon", "lead_score", "score_reasons", "scored_at", "raw", "city_id", "created_at"}).
			AddRow(id, "osm", "node/1", "Acme Plumbing", nil, nil, nil, nil, nil, 87, JSONMap{}, now, JSONMap{}, nil, now))

	rows, err := s.ListLeads(context.Background(), 50, 20, 0)
	if err != nil {
		t.Fatalf("ListLeads: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != id {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCountLeadsReturnsTotal(t *testing.T) {
	s, mock := newMockBusinessStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM businesses WHERE lead_score IS NOT NULL AND lead_score >= \$1`).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := s.CountLeads(context.Background(), 50)
	if err != nil {
		t.Fatalf("CountLeads: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
