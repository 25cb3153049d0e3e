// internal/acl/middleware.go
//
// Chi middleware that enforces RBAC on the admin API.
//
// Context
// -------
// RequirePermission guards whole route groups by component and action.
// RequirePluginPermission guards routes that carry a {pluginID} and,
// optionally, a {siteID} URL parameter.  Both answer 401 when no identity
// is attached, 403 when the identity is denied, and 500 when the ACL
// store fails.
//
// Notes
// -----
//   - A {siteID} of 0 or a missing {siteID} checks the plugin-wide key.
//   - Oxford commas, two spaces after periods.
package acl

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RoleAuthorizer answers component/action questions.
type RoleAuthorizer interface {
	HasRolePermission(ctx context.Context, userID int64, component, action string) (bool, error)
}

// RequirePermission verifies that the user's roles allow component/action.
func RequirePermission(authz RoleAuthorizer, component, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := IdentityFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			allowed, err := authz.HasRolePermission(r.Context(), uid, component, action)
			if err != nil {
				zap.L().Error("acl role allowed", zap.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !allowed {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePluginPermission checks the {pluginID}/{siteID} route parameters
// against authz.
func RequirePluginPermission(authz Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := IdentityFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			pluginID := chi.URLParam(r, "pluginID")
			siteID := 0
			if raw := chi.URLParam(r, "siteID"); raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil || n < 0 {
					http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
					return
				}
				siteID = n
			}

			allowed, err := NewGate(pluginID, authz).Check(r.Context(), uid, siteID)
			if err != nil {
				zap.L().Error("acl plugin allowed",
					zap.Stringer("key", SiteKey(pluginID, siteID)),
					zap.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !allowed {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
