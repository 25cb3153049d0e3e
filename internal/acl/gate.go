// internal/acl/gate.go
//
// Plugin permission gate.
//
// Context
// -------
// Plugins ask one question: may the acting user use me, either at all or
// on a given site.  The Gate answers it through an Authorizer and never
// fails loudly.  A missing grant, an unknown user, or a collaborator error
// all read as "no"; errors are logged and counted.
//
// Notes
// -----
//   - Check is the strict form for callers that need the error.
//   - Oxford commas, two spaces after periods.
package acl

import (
	"context"

	"go.uber.org/zap"

	"github.com/yanizio/adept/internal/auth"
	"github.com/yanizio/adept/internal/metrics"
)

// Authorizer is the identity collaborator.
type Authorizer interface {
	HasPermission(ctx context.Context, userID int64, key Key) (bool, error)
}

// Gate checks permissions for one plugin.
type Gate struct {
	PluginID   string
	Authorizer Authorizer
}

// NewGate binds authz to pluginID.
func NewGate(pluginID string, authz Authorizer) *Gate {
	return &Gate{PluginID: pluginID, Authorizer: authz}
}

// Check returns the raw answer for userID on siteID (0 = plugin-wide).
func (g *Gate) Check(ctx context.Context, userID int64, siteID int) (bool, error) {
	if g == nil || g.Authorizer == nil {
		return false, nil
	}
	return g.Authorizer.HasPermission(ctx, userID, SiteKey(g.PluginID, siteID))
}

// IsAuthorized reports whether userID holds the plugin-wide permission.
func (g *Gate) IsAuthorized(ctx context.Context, userID int64) bool {
	return g.decide(ctx, userID, 0, "plugin")
}

// IsSiteAuthorized reports whether userID holds the permission for siteID.
func (g *Gate) IsSiteAuthorized(ctx context.Context, userID int64, siteID int) bool {
	return g.decide(ctx, userID, siteID, "site")
}

func (g *Gate) decide(ctx context.Context, userID int64, siteID int, scope string) bool {
	ok, err := g.Check(ctx, userID, siteID)
	switch {
	case err != nil:
		// Check only errors on a non-nil gate.
		zap.L().Warn("plugin permission check",
			zap.Stringer("key", SiteKey(g.PluginID, siteID)),
			zap.Int64("user_id", userID),
			zap.Error(err))
		metrics.PermissionChecksTotal.WithLabelValues(scope, "error").Inc()
		return false
	case ok:
		metrics.PermissionChecksTotal.WithLabelValues(scope, "granted").Inc()
		return true
	default:
		metrics.PermissionChecksTotal.WithLabelValues(scope, "denied").Inc()
		return false
	}
}

// IdentityFromContext returns the acting user id.  A missing identity
// reports false.
func IdentityFromContext(ctx context.Context) (int64, bool) {
	return auth.UserID(ctx)
}
