// internal/auth/context.go
//
// Acting-user identity carried on the request context.
//
// Context
// -------
// The CMS front end authenticates users; this service only needs the
// resulting numeric user id.  The admin API sits behind that front end,
// which forwards the id in a trusted header.  TrustedHeader copies it onto
// the context, and everything downstream (ACL middleware, the plugin
// Runtime Context) reads it back with UserID.
//
// Usage
// -----
//
//	ctx = auth.WithUser(ctx, 123)
//	id, ok := auth.UserID(ctx) // 123, true
//
// Notes
// -----
//   - A missing, empty, or non-numeric header leaves the request anonymous.
//   - Oxford commas, two spaces after periods.
package auth

import (
	"context"
	"net/http"
	"strconv"
)

// DefaultHeader is the header TrustedHeader reads when none is configured.
const DefaultHeader = "X-Adept-User-ID"

// userKey is unexported to avoid context-key collisions.
type userKey struct{}

// WithUser returns a new context carrying userID.
func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserID extracts the user id from ctx.  It returns (0, false) if no user is
// set.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userKey{}).(int64)
	return id, ok
}

// TrustedHeader attaches the user id found in header to the request.
func TrustedHeader(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := r.Header.Get(header); raw != "" {
				if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
					r = r.WithContext(WithUser(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
