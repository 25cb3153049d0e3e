package pluginapi

import (
	"context"

	"github.com/yanizio/adept/internal/acl"
)

// IsAuthorized reports whether the acting user on ctx holds the
// plugin-wide permission.  Anonymous requests are denied.
func (c *Context) IsAuthorized(ctx context.Context) bool {
	uid, ok := acl.IdentityFromContext(ctx)
	if !ok {
		return false
	}
	return c.gate.IsAuthorized(ctx, uid)
}

// IsSiteAuthorized reports whether the acting user on ctx holds the
// permission for siteID.
func (c *Context) IsSiteAuthorized(ctx context.Context, siteID int) bool {
	uid, ok := acl.IdentityFromContext(ctx)
	if !ok {
		return false
	}
	return c.gate.IsSiteAuthorized(ctx, uid, siteID)
}

// Authorized checks an explicit user.  siteID 0 checks the plugin-wide
// permission.
func (c *Context) Authorized(ctx context.Context, userID int64, siteID int) bool {
	if siteID == 0 {
		return c.gate.IsAuthorized(ctx, userID)
	}
	return c.gate.IsSiteAuthorized(ctx, userID, siteID)
}
