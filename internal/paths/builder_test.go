package paths

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yanizio/adept/internal/site"
)

func fixedBuilder() *Builder {
	b := New(filepath.FromSlash("/srv/sites"))
	b.Now = func() time.Time { return time.Date(2025, 7, 4, 9, 8, 7, 0, time.UTC) }
	b.Suffix = func() string { return "0042" }
	return b
}

func TestUploadFilePath(t *testing.T) {
	b := fixedBuilder()
	s := &site.Record{ID: 1, Dir: "blog"}

	got := b.UploadFilePath(s, "Holiday.JPG")
	want := filepath.FromSlash("/srv/sites/blog/upload/images/2025/07/202507040908070042.jpg")
	assert.Equal(t, want, got)

	got = b.UploadFilePath(s, "clip.mp4")
	assert.Contains(t, got, filepath.FromSlash("upload/videos/2025/07"))

	got = b.UploadFilePath(s, "report.pdf")
	assert.Contains(t, got, filepath.FromSlash("upload/files/2025/07"))
}

func TestUploadFileName_KeepName(t *testing.T) {
	b := fixedBuilder()
	s := &site.Record{ID: 1, KeepFileName: true}
	assert.Equal(t, "annual-report-2024.pdf", b.UploadFileName(s, "Annual Report (2024).PDF"))
}

func TestURLByPhysicalPath(t *testing.T) {
	b := fixedBuilder()
	s := &site.Record{ID: 2, Host: "blog.example.com", Dir: "blog"}

	assert.Equal(t, "https://blog.example.com/upload/a.png",
		b.URLByPhysicalPath(s, filepath.FromSlash("/srv/sites/blog/upload/a.png")))
	assert.Equal(t, "", b.URLByPhysicalPath(s, filepath.FromSlash("/srv/sites/shop/a.png")))
}

func TestPluginURLs(t *testing.T) {
	b := fixedBuilder()
	s := &site.Record{ID: 1, Host: "cms.example.com", APIURL: "https://api.example.com/"}

	assert.Equal(t, "https://api.example.com/sitefiles/plugins/sitemap/assets/x.js",
		b.PluginURL(s, "sitemap", "/assets/x.js"))
	assert.Equal(t, "https://api.example.com/sitefiles/plugins/sitemap",
		b.PluginURL(s, "sitemap", ""))
	assert.Equal(t, "https://api.example.com/plugins/sitemap/restful/items/9",
		b.RestfulAPIURL(s, "sitemap", "items", 9))
	assert.Equal(t, "https://api.example.com/plugins/sitemap/http",
		b.HTTPAPIURL(s, "sitemap", "", 9))

	noAPI := &site.Record{ID: 3, Host: "shop.example.com"}
	assert.Equal(t, "https://shop.example.com/api/plugins/p/http/ping",
		b.HTTPAPIURL(noAPI, "p", "ping", 0))
}

func TestMakeSlug(t *testing.T) {
	cases := map[string]string{
		"Hello, World!": "hello-world",
		"  --  ":        "file",
		"Ünïcode 2025":  "n-code-2025",
	}
	for in, want := range cases {
		assert.Equal(t, want, MakeSlug(in), in)
	}
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "/", JoinURL(""))
	assert.Equal(t, "/a/b", JoinURL("", "a", "/b/"))
	assert.Equal(t, "https://x/a", JoinURL("https://x/", "", "a"))
}
