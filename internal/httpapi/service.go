// Package httpapi exposes the dashboard-facing HTTP surface: metrics, paged
// lead queries, automation start/stop/run-now/run-daily-target-now,
// per-source verifier triggers, per-platform export triggers, and export
// file listing/download. Every mutating route passes through the API-key
// gate; read-only routes do not.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/5n10/domain-lead-pipeline/internal/config"
	"github.com/5n10/domain-lead-pipeline/internal/logging"
	"github.com/5n10/domain-lead-pipeline/internal/schedule"
	"github.com/5n10/domain-lead-pipeline/internal/store"
)

// Service bundles the collaborators the HTTP surface depends on.
type Service struct {
	scheduler  *schedule.Scheduler
	businesses *store.BusinessStore
	exportDir  string
	auth       config.AuthConfig
	metrics    *Metrics
	log        *logging.Logger

	backgroundCtx context.Context
}

// NewService builds a Service. backgroundCtx outlives any single HTTP
// request; it is the context the scheduler's loops run under once started.
func NewService(backgroundCtx context.Context, scheduler *schedule.Scheduler, businesses *store.BusinessStore, exportDir string, auth config.AuthConfig, metrics *Metrics, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("httpapi")
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Service{
		scheduler:     scheduler,
		businesses:    businesses,
		exportDir:     exportDir,
		auth:          auth,
		metrics:       metrics,
		log:           log,
		backgroundCtx: backgroundCtx,
	}
}

// Router builds the chi router exposing every route.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(observeRequests(s.log, s.metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type", s.headerName()},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Get("/leads", s.handleListLeads)
	r.Get("/exports", s.handleListExports)
	r.Get("/exports/{platform}/file", s.handleDownloadExport)
	r.Get("/automation/verifiers", s.handleListVerifiers)

	r.Group(func(gated chi.Router) {
		gated.Use(requireAPIKey(s.auth))
		gated.Post("/automation/start", s.handleAutomationStart)
		gated.Post("/automation/stop", s.handleAutomationStop)
		gated.Post("/automation/run-now", s.handleRunNow)
		gated.Post("/automation/run-daily-target-now", s.handleRunDailyTargetNow)
		gated.Post("/verify/{source}", s.handleRunVerifier)
		gated.Post("/export/{platform}", s.handleExportPlatform)
	})

	return r
}

func (s *Service) headerName() string {
	if s.auth.HeaderName == "" {
		return "X-API-Key"
	}
	return s.auth.HeaderName
}
