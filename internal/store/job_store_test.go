package store

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func newMockJobStore(t *testing.T) (*JobStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewJobStore(sqlx.NewDb(db, "postgres")), mock
}

func TestJobStoreStartInsertsRunningRow(t *testing.T) {
	s, mock := newMockJobStore(t)

	mock.ExpectExec(`INSERT INTO job_runs`).
		WithArgs(sqlmock.AnyArg(), "pipeline_cycle", GlobalScope, JobRunStatusRunning, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	run, err := s.Start(context.Background(), "pipeline_cycle", "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if run.Status != JobRunStatusRunning {
		t.Fatalf("status = %q, want running", run.Status)
	}
	if run.Scope != GlobalScope {
		t.Fatalf("scope = %q, want normalized global scope for blank input", run.Scope)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestJobStoreCompleteMarksSuccess(t *testing.T) {
	s, mock := newMockJobStore(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE job_runs SET status = \$2, finished_at = now\(\), processed_count = \$3, details = \$4`).
		WithArgs(id, JobRunStatusSuccess, 42, JSONMap{"path": "out.csv"}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Complete(context.Background(), id, 42, JSONMap{"path": "out.csv"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestJobStoreFailTruncatesOversizedError(t *testing.T) {
	s, mock := newMockJobStore(t)
	id := uuid.New()

	huge := make([]byte, maxJobErrorBytes+100)
	for i := range huge {
		huge[i] = 'x'
	}

	mock.ExpectExec(`UPDATE job_runs SET status = \$2, finished_at = now\(\), processed_count = \$3, error = \$4`).
		WithArgs(id, JobRunStatusFailed, 3, string(huge[:maxJobErrorBytes])).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Fail(context.Background(), id, 3, errors.New(string(huge))); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestJobStoreLatestByNameReturnsNotFound(t *testing.T) {
	s, mock := newMockJobStore(t)

	mock.ExpectQuery(`SELECT id, job_name, scope, status, started_at, finished_at, processed_count, details, error\s+FROM job_runs WHERE job_name = \$1 AND scope = \$2`).
		WithArgs("pipeline_cycle", GlobalScope).
		WillReturnRows(sqlmock.NewRows([]string{"id", "job_name", "scope", "status", "started_at", "finished_at", "processed_count", "details", "error"}))

	_, err := s.LatestByName(context.Background(), "pipeline_cycle", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestJobStoreListRecentOrdersByStartedAtDesc(t *testing.T) {
	s, mock := newMockJobStore(t)
	now := time.Now().UTC()
	id := uuid.New()

	mock.ExpectQuery(`SELECT id, job_name, scope, status, started_at, finished_at, processed_count, details, error\s+FROM job_runs WHERE job_name = \$1\s+ORDER BY started_at DESC LIMIT \$2`).
		WithArgs("verification_cycle", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "job_name", "scope", "status", "started_at", "finished_at", "processed_count", "details", "error"}).
			AddRow(id, "verification_cycle", GlobalScope, JobRunStatusSuccess, now, now, 12, JSONMap{}, nil))

	rows, err := s.ListRecent(context.Background(), "verification_cycle", 5)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != id {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
