// internal/middleware/security.go
//
// Security-header middleware.
//
// Injects standard headers on every admin API response:
//
//   - Strict-Transport-Security  (forces HTTPS, 2 years + preload)
//   - Content-Security-Policy    (nothing may load; the API serves JSON)
//   - X-Frame-Options            (click-jacking defence)
//   - X-Content-Type-Options     (MIME-sniffing defence)
//   - Referrer-Policy            (no Referer at all)
//   - Cache-Control              (config values must not be cached)
//
// Notes
// -----
//   - Headers are set before next.ServeHTTP, since anything added after the
//     first write is dropped.  Handlers may still override a value.
//   - Oxford commas, two spaces after periods.
package middleware

import "net/http"

var securityHeaders = [...][2]string{
	{"Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "no-referrer"},
	{"Cache-Control", "no-store"},
}

// Security sets security headers for every response.
func Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			if h.Get(kv[0]) == "" {
				h.Set(kv[0], kv[1])
			}
		}
		next.ServeHTTP(w, r)
	})
}
