package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors the dashboard API exposes, plus
// the registry they're registered against so Handler serves exactly these
// collectors rather than whatever else shares the process-wide default one.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	PipelineCyclesTotal  *prometheus.CounterVec
	VerifierBatchesTotal *prometheus.CounterVec
	BusinessesExported   prometheus.Counter
	LeadsScored          prometheus.Gauge
}

// NewMetrics builds a Metrics backed by its own registry, so one process can
// run more than one Service without colliding on the global default registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.NewRegistry())
}

// NewMetricsWithRegistry builds collectors against a caller-supplied registry.
func NewMetricsWithRegistry(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_lead_pipeline_http_requests_total",
			Help: "Total number of HTTP requests served by the dashboard API.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "domain_lead_pipeline_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		PipelineCyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_lead_pipeline_pipeline_cycles_total",
			Help: "Number of pipeline cycles triggered through the API, by outcome.",
		}, []string{"outcome"}),
		VerifierBatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_lead_pipeline_verifier_batches_total",
			Help: "Number of verifier batches triggered through the API, by source and outcome.",
		}, []string{"source", "outcome"}),
		BusinessesExported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "domain_lead_pipeline_businesses_exported_total",
			Help: "Total businesses written to a CSV export through the API.",
		}),
		LeadsScored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "domain_lead_pipeline_leads_scored",
			Help: "Total scored leads matching the most recent /leads query's min_score.",
		}),
	}
	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.PipelineCyclesTotal,
		m.VerifierBatchesTotal,
		m.BusinessesExported,
		m.LeadsScored,
	)
	return m
}

func (m *Metrics) observeRequest(method, route string, status int, start time.Time) {
	m.RequestsTotal.WithLabelValues(method, route, http.StatusText(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

// Handler exposes this Metrics' own registry on /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
