// ABOUTME: HTTP middleware for the gateway - CORS allow-list handling.
// ABOUTME: Origins are matched exactly; unlisted origins get no CORS headers.

package gateway

import "net/http"

// corsMiddleware applies the configured origin allow-list. Matching is an
// exact string comparison against the Origin header; requests from unlisted
// origins pass through without CORS headers and the browser enforces the
// refusal. Preflight OPTIONS requests are answered here and never reach
// the handlers.
func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-Client-Session")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
