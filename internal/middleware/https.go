// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"net/http"
	"strings"
)

// ForceHTTPS returns a wrapper that, when enabled, issues a 308 Permanent
// Redirect for plain-HTTP requests to any host other than localhost.
// Requests already marked HTTPS by a TLS-terminating proxy
// (X-Forwarded-Proto) pass through.
func ForceHTTPS(enabled bool) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		if !enabled {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS != nil ||
				strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") ||
				stripPort(r.Host) == "localhost" {
				h.ServeHTTP(w, r)
				return
			}
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
		})
	}
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if i := strings.LastIndexByte(h, ':'); i != -1 && !strings.HasSuffix(h, "]") {
		return h[:i]
	}
	return h
}
