package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/5n10/domain-lead-pipeline/internal/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// observeRequests logs every request at info level and, when metrics is
// non-nil, records its outcome against the route pattern chi matched
// (not the raw path, which would blow up cardinality on path parameters).
func observeRequests(log *logging.Logger, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			if metrics != nil {
				metrics.observeRequest(r.Method, route, rec.status, start)
			}
			if log != nil {
				log.WithFields(map[string]any{
					"method":   r.Method,
					"route":    route,
					"status":   rec.status,
					"duration": time.Since(start).String(),
				}).Info("http request")
			}
		})
	}
}
