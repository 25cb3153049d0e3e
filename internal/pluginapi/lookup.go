// internal/pluginapi/lookup.go
//
// Site and content lookups, and URL builders.
//
// Context
// -------
// These are read-only pass-throughs.  A missing site, channel, or content
// item is an ordinary answer (nil, 0, or "") and is not recorded.  Any
// other collaborator error is recorded and reads the same way.
package pluginapi

import (
	"context"
	"errors"

	"github.com/yanizio/adept/internal/content"
	"github.com/yanizio/adept/internal/site"
)

// SiteIDs lists active site ids in directory order.
func (c *Context) SiteIDs(ctx context.Context) []int {
	if c.deps.Sites == nil {
		return nil
	}
	ids, err := c.deps.Sites.IDs(ctx)
	if err != nil {
		c.RecordError(err)
		return nil
	}
	return ids
}

// SiteInfo returns the site record, or nil.
func (c *Context) SiteInfo(ctx context.Context, siteID int) *site.Record {
	if siteID <= 0 || c.deps.Sites == nil {
		return nil
	}
	rec, err := c.deps.Sites.ByID(ctx, siteID)
	if err != nil {
		if !errors.Is(err, site.ErrNotFound) {
			c.RecordError(err)
		}
		return nil
	}
	return rec
}

// SiteIDByFilePath returns the id of the site owning path, or 0.
func (c *Context) SiteIDByFilePath(ctx context.Context, path string) int {
	if rec := c.siteByPath(ctx, path); rec != nil {
		return rec.ID
	}
	return 0
}

// SiteDirectoryPath returns the storage folder of the site, or "".
func (c *Context) SiteDirectoryPath(ctx context.Context, siteID int) string {
	rec := c.SiteInfo(ctx, siteID)
	if rec == nil {
		return ""
	}
	return c.deps.Paths.SiteDir(rec)
}

// NodeInfo returns a channel node, or nil.
func (c *Context) NodeInfo(ctx context.Context, siteID, channelID int) *content.Node {
	if c.deps.Content == nil {
		return nil
	}
	n, err := c.deps.Content.Node(ctx, siteID, channelID)
	if err != nil {
		if !errors.Is(err, content.ErrNotFound) {
			c.RecordError(err)
		}
		return nil
	}
	return n
}

// ContentInfo returns a content item, or nil.
func (c *Context) ContentInfo(ctx context.Context, siteID, channelID, contentID int) *content.Item {
	if c.deps.Content == nil {
		return nil
	}
	it, err := c.deps.Content.Item(ctx, siteID, channelID, contentID)
	if err != nil {
		if !errors.Is(err, content.ErrNotFound) {
			c.RecordError(err)
		}
		return nil
	}
	return it
}

// UploadFilePath returns where an upload named fileName is stored on
// siteID, or "" when the site is unknown.
func (c *Context) UploadFilePath(ctx context.Context, siteID int, fileName string) string {
	rec := c.SiteInfo(ctx, siteID)
	if rec == nil {
		return ""
	}
	return c.deps.Paths.UploadFilePath(rec, fileName)
}

// URLByFilePath maps a stored file to its public URL, or "".
func (c *Context) URLByFilePath(ctx context.Context, filePath string) string {
	rec := c.siteByPath(ctx, filePath)
	if rec == nil {
		return ""
	}
	return c.deps.Paths.URLByPhysicalPath(rec, filePath)
}

// PluginURL returns the static-files URL of this plugin on siteID.
func (c *Context) PluginURL(ctx context.Context, siteID int, rel string) string {
	rec := c.SiteInfo(ctx, siteID)
	if rec == nil {
		return ""
	}
	return c.deps.Paths.PluginURL(rec, c.meta.ID, rel)
}

// RestfulAPIURL returns this plugin's RESTful endpoint on siteID.  An empty
// name yields the plugin root; id is appended only when positive.
func (c *Context) RestfulAPIURL(ctx context.Context, siteID int, name string, id int) string {
	rec := c.SiteInfo(ctx, siteID)
	if rec == nil {
		return ""
	}
	return c.deps.Paths.RestfulAPIURL(rec, c.meta.ID, name, id)
}

// HTTPAPIURL returns this plugin's plain HTTP endpoint on siteID.
func (c *Context) HTTPAPIURL(ctx context.Context, siteID int, name string, id int) string {
	rec := c.SiteInfo(ctx, siteID)
	if rec == nil {
		return ""
	}
	return c.deps.Paths.HTTPAPIURL(rec, c.meta.ID, name, id)
}

func (c *Context) siteByPath(ctx context.Context, path string) *site.Record {
	if path == "" || c.deps.Sites == nil {
		return nil
	}
	rec, err := c.deps.Sites.ByPath(ctx, path)
	if err != nil {
		if !errors.Is(err, site.ErrNotFound) {
			c.RecordError(err)
		}
		return nil
	}
	return rec
}
