package acl

import (
	"strconv"
)

// Key names one plugin permission.  SiteID 0 is the plugin-wide key; any
// other value scopes the permission to that site.  Distinct (PluginID,
// SiteID) pairs always produce distinct keys.
type Key struct {
	PluginID string
	SiteID   int
}

// PluginKey returns the plugin-wide key.
func PluginKey(pluginID string) Key { return Key{PluginID: pluginID} }

// SiteKey returns the key scoped to siteID.
func SiteKey(pluginID string, siteID int) Key { return Key{PluginID: pluginID, SiteID: siteID} }

// Scoped reports whether k targets a single site.
func (k Key) Scoped() bool { return k.SiteID != 0 }

// String renders the plugin-wide key as the quoted plugin id, for example
// "seo", and a site key with "@" and the site id appended, for example
// "seo"@12.  Quoting keeps ids that contain "@" unambiguous.
func (k Key) String() string {
	if !k.Scoped() {
		return strconv.Quote(k.PluginID)
	}
	return strconv.Quote(k.PluginID) + "@" + strconv.Itoa(k.SiteID)
}
