package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Service) handleAutomationStart(w http.ResponseWriter, r *http.Request) {
	s.scheduler.Start(s.backgroundCtx)
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Service) handleAutomationStop(w http.ResponseWriter, r *http.Request) {
	s.scheduler.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Service) handleRunNow(w http.ResponseWriter, r *http.Request) {
	ran, err := s.scheduler.RunPipelineOnce(r.Context())
	if err != nil {
		if s.metrics != nil {
			s.metrics.PipelineCyclesTotal.WithLabelValues("error").Inc()
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ran {
		if s.metrics != nil {
			s.metrics.PipelineCyclesTotal.WithLabelValues("busy").Inc()
		}
		writeError(w, http.StatusConflict, errBusy)
		return
	}
	if s.metrics != nil {
		s.metrics.PipelineCyclesTotal.WithLabelValues("ok").Inc()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// handleRunDailyTargetNow triggers the daily-target export engine outside
// its own cron schedule, for a user-triggered "run now".
func (s *Service) handleRunDailyTargetNow(w http.ResponseWriter, r *http.Request) {
	result, ran, err := s.scheduler.RunDailyTargetNow(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ran {
		writeError(w, http.StatusConflict, errBusy)
		return
	}
	if s.metrics != nil {
		s.metrics.BusinessesExported.Add(float64(result.WrittenCount))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Service) handleListVerifiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sources": s.scheduler.VerifierSources()})
}

func (s *Service) handleRunVerifier(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	result, err := s.scheduler.RunVerifierNow(r.Context(), source)
	if err != nil {
		if s.metrics != nil {
			s.metrics.VerifierBatchesTotal.WithLabelValues(source, "error").Inc()
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.metrics != nil {
		s.metrics.VerifierBatchesTotal.WithLabelValues(source, "ok").Inc()
	}
	writeJSON(w, http.StatusOK, result)
}
