package middleware

import (
	"net/http"
	"strings"
)

// CORS applies cross-origin headers and answers preflight requests.
// When allowedHosts is empty any origin is accepted.
func CORS(allowedHosts []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := "*"
			if len(allowedHosts) > 0 {
				if o := r.Header.Get("Origin"); o != "" && IsHostAllowed(o, allowedHosts) {
					origin = o
				}
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IsHostAllowed reports whether host (optionally with scheme or port)
// matches one of the configured allowed hosts.
func IsHostAllowed(host string, allowedHosts []string) bool {
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	for _, allowed := range allowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}
