// internal/paths/builder.go
//
// Upload paths and outward-facing URLs.
//
// Context
// -------
// Everything here is a pure function of a site record, the storage root,
// and the input strings.  Clock and random suffix are injectable so tests
// get stable names.
//
// Layout
// ------
//
//	<site_root>/<site.Dir>/upload/<images|videos|files>/<yyyy>/<mm>/<name>
//	<api>/sitefiles/plugins/<pluginID>/<rel>
//	<api>/plugins/<pluginID>/restful[/<name>[/<id>]]
//	<api>/plugins/<pluginID>/http[/<name>[/<id>]]
//
// Notes
// -----
//   - Upload names are `yyyyMMddHHmmss` + random digits + extension unless
//     the site keeps original names, in which case the slugged base name is
//     used.
//   - Oxford commas, two spaces after periods.
package paths

import (
	"crypto/rand"
	"math/big"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yanizio/adept/internal/site"
)

// UploadDirName is the per-site upload folder.
const UploadDirName = "upload"

var (
	imageExts = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".svg": {}, ".bmp": {},
	}
	videoExts = map[string]struct{}{
		".mp4": {}, ".webm": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".flv": {},
	}
)

// Builder formats paths and URLs.  Zero value is usable with the real
// clock and an empty site root.
type Builder struct {
	SiteRoot string
	Now      func() time.Time
	Suffix   func() string
}

// New returns a Builder rooted at siteRoot.
func New(siteRoot string) *Builder {
	return &Builder{SiteRoot: siteRoot}
}

// SiteDir returns the absolute storage folder for s.
func (b *Builder) SiteDir(s *site.Record) string {
	return filepath.Join(b.SiteRoot, filepath.FromSlash(s.Dir))
}

// UploadDir returns the dated upload folder for a file extension.
func (b *Builder) UploadDir(s *site.Record, ext string) string {
	now := b.now()
	return filepath.Join(
		b.SiteDir(s),
		UploadDirName,
		uploadKind(ext),
		now.Format("2006"),
		now.Format("01"),
	)
}

// UploadFileName returns the stored name for fileName.
func (b *Builder) UploadFileName(s *site.Record, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if s.KeepFileName {
		return MakeSlug(strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))) + ext
	}
	return b.now().Format("20060102150405") + b.suffix() + ext
}

// UploadFilePath combines UploadDir and UploadFileName.
func (b *Builder) UploadFilePath(s *site.Record, fileName string) string {
	return filepath.Join(b.UploadDir(s, filepath.Ext(fileName)), b.UploadFileName(s, fileName))
}

// SiteURL returns the public base URL for s.
func (b *Builder) SiteURL(s *site.Record) string {
	if s.Host == "" {
		return "/"
	}
	return "https://" + s.Host
}

// URLByPhysicalPath maps a file under the site folder to its public URL.
// Paths outside the site folder yield "".
func (b *Builder) URLByPhysicalPath(s *site.Record, path string) string {
	rel, err := filepath.Rel(b.SiteDir(s), filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return JoinURL(b.SiteURL(s), filepath.ToSlash(rel))
}

// APIURL returns the outward-facing API base for s.
func (b *Builder) APIURL(s *site.Record) string {
	if s.APIURL != "" {
		return strings.TrimRight(s.APIURL, "/")
	}
	return JoinURL(b.SiteURL(s), "api")
}

// PluginURL returns the static-files URL of a plugin.
func (b *Builder) PluginURL(s *site.Record, pluginID, rel string) string {
	return JoinURL(b.APIURL(s), "sitefiles", "plugins", pluginID, rel)
}

// RestfulAPIURL returns the RESTful endpoint of a plugin.
func (b *Builder) RestfulAPIURL(s *site.Record, pluginID, name string, id int) string {
	return pluginEndpoint(b.APIURL(s), pluginID, "restful", name, id)
}

// HTTPAPIURL returns the plain HTTP endpoint of a plugin.
func (b *Builder) HTTPAPIURL(s *site.Record, pluginID, name string, id int) string {
	return pluginEndpoint(b.APIURL(s), pluginID, "http", name, id)
}

func pluginEndpoint(api, pluginID, kind, name string, id int) string {
	parts := []string{"plugins", pluginID, kind}
	if name != "" {
		parts = append(parts, name)
		if id > 0 {
			parts = append(parts, strconv.Itoa(id))
		}
	}
	return JoinURL(api, parts...)
}

func uploadKind(ext string) string {
	ext = strings.ToLower(ext)
	if _, ok := imageExts[ext]; ok {
		return "images"
	}
	if _, ok := videoExts[ext]; ok {
		return "videos"
	}
	return "files"
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Builder) suffix() string {
	if b.Suffix != nil {
		return b.Suffix()
	}
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "0000"
	}
	return leftPad(n.String(), 4)
}

func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}
