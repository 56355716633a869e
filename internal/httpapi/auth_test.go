package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/5n10/domain-lead-pipeline/internal/config"
)

func newOKHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAPIKeyRejectsMissingKey(t *testing.T) {
	h := requireAPIKey(config.AuthConfig{APIKey: "secret", HeaderName: "X-API-Key"})(newOKHandler())

	req := httptest.NewRequest(http.MethodPost, "/automation/start", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAPIKeyAcceptsHeaderKey(t *testing.T) {
	h := requireAPIKey(config.AuthConfig{APIKey: "secret", HeaderName: "X-API-Key"})(newOKHandler())

	req := httptest.NewRequest(http.MethodPost, "/automation/start", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAPIKeyAcceptsBearerToken(t *testing.T) {
	h := requireAPIKey(config.AuthConfig{APIKey: "secret", HeaderName: "X-API-Key"})(newOKHandler())

	req := httptest.NewRequest(http.MethodPost, "/automation/start", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAPIKeyBypassesLoopback(t *testing.T) {
	h := requireAPIKey(config.AuthConfig{APIKey: "secret", BypassLoopback: true})(newOKHandler())

	req := httptest.NewRequest(http.MethodPost, "/automation/start", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAPIKeyRejectsWrongKey(t *testing.T) {
	h := requireAPIKey(config.AuthConfig{APIKey: "secret", HeaderName: "X-API-Key"})(newOKHandler())

	req := httptest.NewRequest(http.MethodPost, "/automation/start", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
