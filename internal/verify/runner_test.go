package verify

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/5n10/domain-lead-pipeline/internal/store"
)

type fakeVerifier struct {
	source  string
	outcome Outcome
	err     error
	calls   int
}

func (f *fakeVerifier) Source() string { return f.source }
func (f *fakeVerifier) Run(ctx context.Context, b store.Business) (Outcome, error) {
	f.calls++
	return f.outcome, f.err
}

func newMockStore(t *testing.T) (*store.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &store.Store{DB: sqlx.NewDb(db, "postgres")}, mock
}

func TestRunBatchAppliesOutcomeAndUpdatesRaw(t *testing.T) {
	st, mock := newMockStore(t)
	businessID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, source, source_id, name, category, website_url, address, lat, lon, lead_score, score_reasons, scored_at, raw, city_id, created_at\s+FROM businesses\s+WHERE \(website_url IS NULL OR website_url = ''\)`).
		WithArgs("domain_guess_verified", 0, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "source", "source_id", "name", "category", "website_url", "address", "lat", "lon", "lead_score", "score_reasons", "scored_at", "raw", "city_id", "created_at"}).
			AddRow(businessID, "osm", "node/1", "Acme Plumbing", nil, nil, nil, nil, nil, nil, nil, nil, store.JSONMap{}, nil, now))

	mock.ExpectQuery(`SELECT id, source, source_id, name, category, website_url, address, lat, lon, lead_score, score_reasons, scored_at, raw, city_id, created_at\s+FROM businesses WHERE id = \$1`).
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "source", "source_id", "name", "category", "website_url", "address", "lat", "lon", "lead_score", "score_reasons", "scored_at", "raw", "city_id", "created_at"}).
			AddRow(businessID, "osm", "node/1", "Acme Plumbing", nil, nil, nil, nil, nil, nil, nil, nil, store.JSONMap{}, nil, now))

	mock.ExpectExec(`UPDATE businesses SET raw = \$2, website_url = \$3, scored_at = NULL WHERE id = \$1`).
		WithArgs(businessID, sqlmock.AnyArg(), "https://acmeplumbing.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	v := &fakeVerifier{source: "domain_guess", outcome: Outcome{Source: "domain_guess", Verdict: VerdictHasWebsite, WebsiteURL: "https://acmeplumbing.com"}}

	result, err := RunBatch(context.Background(), st, v, 0, 10, nil)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.RanCount != 1 || len(result.Processed) != 1 {
		t.Errorf("result = %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRunBatchStopsOnBatchAborted(t *testing.T) {
	st, mock := newMockStore(t)
	businessID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, source, source_id, name, category, website_url, address, lat, lon, lead_score, score_reasons, scored_at, raw, city_id, created_at\s+FROM businesses\s+WHERE \(website_url IS NULL OR website_url = ''\)`).
		WithArgs("llm_verified", 0, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "source", "source_id", "name", "category", "website_url", "address", "lat", "lon", "lead_score", "score_reasons", "scored_at", "raw", "city_id", "created_at"}).
			AddRow(businessID, "osm", "node/1", "Acme Plumbing", nil, nil, nil, nil, nil, nil, nil, nil, store.JSONMap{}, nil, now))

	v := &fakeVerifier{source: "llm", err: ErrBatchAborted}

	result, err := RunBatch(context.Background(), st, v, 0, 10, nil)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.RanCount != 0 {
		t.Errorf("expected no successful runs, got %+v", result)
	}
	if v.calls != 1 {
		t.Errorf("expected exactly 1 call before abort, got %d", v.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRunBatchSkipsFailedVerifierRun(t *testing.T) {
	st, mock := newMockStore(t)
	businessID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, source, source_id, name, category, website_url, address, lat, lon, lead_score, score_reasons, scored_at, raw, city_id, created_at\s+FROM businesses\s+WHERE \(website_url IS NULL OR website_url = ''\)`).
		WithArgs("searxng_verified", 0, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "source", "source_id", "name", "category", "website_url", "address", "lat", "lon", "lead_score", "score_reasons", "scored_at", "raw", "city_id", "created_at"}).
			AddRow(businessID, "osm", "node/1", "Acme Plumbing", nil, nil, nil, nil, nil, nil, nil, nil, store.JSONMap{}, nil, now))

	v := &fakeVerifier{source: "searxng", err: errors.New("provider timeout")}

	result, err := RunBatch(context.Background(), st, v, 0, 10, nil)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.RanCount != 0 || len(result.Processed) != 0 {
		t.Errorf("expected zero processed businesses, got %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
