package pluginapi

import (
	"context"

	"github.com/yanizio/adept/internal/pluginconfig"
)

// Store exposes the strict config API.
func (c *Context) Store() *pluginconfig.Store { return c.store }

// SetConfig stores v for siteID.  A nil v removes the entry.
func (c *Context) SetConfig(ctx context.Context, siteID int, name string, v any) bool {
	return c.store.Set(ctx, siteID, name, v)
}

// LoadConfig decodes the entry into dst and reports whether it was found.
func (c *Context) LoadConfig(ctx context.Context, siteID int, name string, dst any) bool {
	return c.store.Load(ctx, siteID, name, dst)
}

// RemoveConfig deletes the entry.
func (c *Context) RemoveConfig(ctx context.Context, siteID int, name string) bool {
	return c.store.Remove(ctx, siteID, name)
}

// SetGlobalConfig is SetConfig for site 0.
func (c *Context) SetGlobalConfig(ctx context.Context, name string, v any) bool {
	return c.store.SetGlobal(ctx, name, v)
}

// LoadGlobalConfig is LoadConfig for site 0.
func (c *Context) LoadGlobalConfig(ctx context.Context, name string, dst any) bool {
	return c.store.LoadGlobal(ctx, name, dst)
}

// RemoveGlobalConfig is RemoveConfig for site 0.
func (c *Context) RemoveGlobalConfig(ctx context.Context, name string) bool {
	return c.store.RemoveGlobal(ctx, name)
}

// ConfigNames lists the entry names stored for siteID.
func (c *Context) ConfigNames(ctx context.Context, siteID int) []string {
	return c.store.Names(ctx, siteID)
}

// GetConfig returns the entry for siteID decoded as T, or the zero T.
func GetConfig[T any](ctx context.Context, c *Context, siteID int, name string) T {
	return pluginconfig.Get[T](ctx, c.store, siteID, name)
}

// GetGlobalConfig is GetConfig for site 0.
func GetGlobalConfig[T any](ctx context.Context, c *Context, name string) T {
	return pluginconfig.GetGlobal[T](ctx, c.store, name)
}
