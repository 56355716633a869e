package httpapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHandleListExportsReturnsCSVFilesOnly(t *testing.T) {
	svc, _ := newTestService(t)
	if err := os.WriteFile(filepath.Join(svc.exportDir, "daily_2026-07-31.csv"), []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(svc.exportDir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/exports", nil)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "daily_2026-07-31.csv") {
		t.Fatalf("expected listing to contain the csv file, got %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "notes.txt") {
		t.Fatalf("expected listing to exclude non-csv files, got %s", rec.Body.String())
	}
}

func TestHandleExportPlatformRequiresAuth(t *testing.T) {
	svc, _ := newTestService(t)

	req := httptest.NewRequest(http.MethodPost, "/export/google_places", nil)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandleDownloadExportRejectsPathTraversal(t *testing.T) {
	svc, _ := newTestService(t)

	req := httptest.NewRequest(http.MethodGet, "/exports/..%2Fsecrets/file", nil)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		t.Fatalf("expected traversal attempt to be rejected, got 200")
	}
}

func TestHandleDownloadExportServesFile(t *testing.T) {
	svc, _ := newTestService(t)
	if err := os.WriteFile(filepath.Join(svc.exportDir, "daily_20260731.csv"), []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/exports/daily_20260731/file", nil)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "a,b\n1,2\n" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}
