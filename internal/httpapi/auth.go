package httpapi

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/5n10/domain-lead-pipeline/internal/config"
)

// requireAPIKey gates every mutating route: a loopback caller passes when
// the config allows it, otherwise the caller must present the configured
// key, compared in constant time, via the configured header or as a bearer
// token in Authorization.
func requireAPIKey(cfg config.AuthConfig) func(http.Handler) http.Handler {
	headerName := cfg.HeaderName
	if headerName == "" {
		headerName = "X-API-Key"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.BypassLoopback && isLoopback(r.RemoteAddr) {
				next.ServeHTTP(w, r)
				return
			}
			presented := strings.TrimSpace(r.Header.Get(headerName))
			if presented == "" {
				auth := strings.TrimSpace(r.Header.Get("Authorization"))
				if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
					presented = strings.TrimSpace(auth[len("bearer "):])
				}
			}
			if presented == "" || cfg.APIKey == "" ||
				subtle.ConstantTimeCompare([]byte(presented), []byte(cfg.APIKey)) != 1 {
				writeError(w, http.StatusUnauthorized, errUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(strings.TrimSpace(host))
	return ip != nil && ip.IsLoopback()
}
