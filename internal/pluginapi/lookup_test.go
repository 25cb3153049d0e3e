package pluginapi

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookups(t *testing.T) {
	h := newHarness(t, seoMeta(), nil)
	ctx := context.Background()

	assert.Equal(t, []int{1, 2}, h.ctx.SiteIDs(ctx))

	rec := h.ctx.SiteInfo(ctx, 2)
	if assert.NotNil(t, rec) {
		assert.Equal(t, "blog", rec.Dir)
	}
	assert.Nil(t, h.ctx.SiteInfo(ctx, 99))
	assert.Nil(t, h.ctx.SiteInfo(ctx, 0))

	blogFile := filepath.FromSlash("/srv/sites/blog/upload/a.png")
	assert.Equal(t, 2, h.ctx.SiteIDByFilePath(ctx, blogFile))
	assert.Equal(t, 1, h.ctx.SiteIDByFilePath(ctx, filepath.FromSlash("/srv/sites/upload/b.png")))
	assert.Equal(t, 0, h.ctx.SiteIDByFilePath(ctx, filepath.FromSlash("/etc/passwd")))
	assert.Equal(t, 0, h.ctx.SiteIDByFilePath(ctx, ""))

	assert.Equal(t, filepath.FromSlash("/srv/sites/blog"), h.ctx.SiteDirectoryPath(ctx, 2))
	assert.Equal(t, "", h.ctx.SiteDirectoryPath(ctx, 0))
	assert.Equal(t, "", h.ctx.SiteDirectoryPath(ctx, 99))

	if n := h.ctx.NodeInfo(ctx, 1, 10); assert.NotNil(t, n) {
		assert.Equal(t, "News", n.Name)
	}
	assert.Nil(t, h.ctx.NodeInfo(ctx, 1, 11))
	if it := h.ctx.ContentInfo(ctx, 1, 10, 100); assert.NotNil(t, it) {
		assert.Equal(t, "Hello", it.Title)
	}
	assert.Nil(t, h.ctx.ContentInfo(ctx, 1, 10, 101))

	// Not-found answers are not faults.
	assert.Equal(t, 0, h.rec.count())

	assert.Nil(t, h.ctx.NodeInfo(ctx, 1, -1))
	assert.Equal(t, 1, h.rec.count())
}

func TestLookups_DirectoryError(t *testing.T) {
	h := newHarness(t, seoMeta(), nil)
	h.ctx.deps.Sites.(*memSites).err = errors.New("db down")
	ctx := context.Background()

	assert.Nil(t, h.ctx.SiteIDs(ctx))
	assert.Nil(t, h.ctx.SiteInfo(ctx, 1))
	assert.Equal(t, 0, h.ctx.SiteIDByFilePath(ctx, "/srv/sites/x"))
	assert.Equal(t, 3, h.rec.count())
}

func TestURLs(t *testing.T) {
	h := newHarness(t, seoMeta(), nil)
	ctx := context.Background()

	assert.Equal(t,
		filepath.FromSlash("/srv/sites/blog/upload/images/2025/07/202507040908070042.png"),
		h.ctx.UploadFilePath(ctx, 2, "photo.PNG"))
	assert.Equal(t, "", h.ctx.UploadFilePath(ctx, 99, "photo.png"))

	assert.Equal(t, "https://blog.example.com/upload/a.png",
		h.ctx.URLByFilePath(ctx, filepath.FromSlash("/srv/sites/blog/upload/a.png")))
	assert.Equal(t, "", h.ctx.URLByFilePath(ctx, filepath.FromSlash("/elsewhere/a.png")))

	assert.Equal(t, "https://api.example.com/sitefiles/plugins/seo/css/app.css",
		h.ctx.PluginURL(ctx, 2, "css/app.css"))
	assert.Equal(t, "https://www.example.com/api/sitefiles/plugins/seo",
		h.ctx.PluginURL(ctx, 1, ""))

	assert.Equal(t, "https://api.example.com/plugins/seo/restful/items/7",
		h.ctx.RestfulAPIURL(ctx, 2, "items", 7))
	assert.Equal(t, "https://api.example.com/plugins/seo/restful",
		h.ctx.RestfulAPIURL(ctx, 2, "", 7))
	assert.Equal(t, "https://www.example.com/api/plugins/seo/http/ping",
		h.ctx.HTTPAPIURL(ctx, 1, "ping", 0))
	assert.Equal(t, "", h.ctx.HTTPAPIURL(ctx, 99, "ping", 0))
}
