package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsHandlerExposesOwnRegistry(t *testing.T) {
	m := NewMetricsWithRegistry(prometheus.NewRegistry())
	m.RequestsTotal.WithLabelValues("GET", "/leads", "OK").Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "domain_lead_pipeline_http_requests_total") {
		t.Fatalf("expected metric name in output, got %s", rec.Body.String())
	}
}

func TestTwoMetricsInstancesDoNotCollide(t *testing.T) {
	NewMetrics()
	NewMetrics()
}
