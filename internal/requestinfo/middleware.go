// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *RequestInfo and writes
// one access-log line when the response is done.
//
/*
Context
--------
This handler sits after chi's RequestID and RealIP middleware and after
auth.TrustedHeader, but before permission checks.  For every request it:

  1. Extracts the left-most client IP from X-Forwarded-For or
     X-Real-IP, falling back to `r.RemoteAddr`.
  2. Stores a `*RequestInfo` value in `request.Context` under an
     unexported key.
  3. After the handler returns, logs method, path, status, bytes, user,
     and duration, and observes `admin_api_request_duration_seconds`.

Notes
-----
  • The user id comes from the incoming context, so mount Enrich after
    auth.TrustedHeader.
  • 5xx responses log at WARN, everything else at DEBUG.
  • Oxford commas, two spaces after periods.  No em dash.
*/
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/adept/internal/auth"
	"github.com/yanizio/adept/internal/metrics"
)

/*──────────────────────────── middleware ───────────────────────────────────*/

// Enrich wraps an http.Handler, attaches *RequestInfo, and logs the result.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &RequestInfo{
			IP:        clientIP(r),
			RequestID: chimw.GetReqID(r.Context()),
			Method:    r.Method,
			Path:      r.URL.Path,
			Timestamp: time.Now().UTC(),
		}

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		ctx := context.WithValue(r.Context(), ctxKey{}, info)
		r = r.WithContext(ctx)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := info.Since()
		metrics.APIRequestDuration.
			WithLabelValues(r.Method, strconv.Itoa(status)).
			Observe(elapsed.Seconds())

		fields := []any{
			"request_id", info.RequestID,
			"ip", info.IP.String(),
			"method", info.Method,
			"path", info.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
		}
		if uid, ok := auth.UserID(r.Context()); ok {
			fields = append(fields, "user_id", uid)
		}
		if status >= http.StatusInternalServerError {
			zap.S().Warnw("admin api request", fields...)
			return
		}
		zap.S().Debugw("admin api request", fields...)
	})
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// clientIP extracts the left-most address from X-Forwarded-For or
// X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(r.RemoteAddr)
}
