// internal/files/mover.go
//
// Relocating site resources.
//
// Context
// -------
// Plugins that copy content between sites also need the attached files to
// follow.  References arrive as site-relative URLs such as
// `@/upload/images/2025/07/a.png` or `upload/files/x.pdf`.  FSMover moves
// the file from the source site's folder to the same relative location
// under the target site's folder.
//
// Rules
// -----
//   - Absolute or protocol URLs (`https://…`, `//cdn…`, `data:…`) are never
//     touched; callers filter them with IsProtocolURL.
//   - A reference that escapes the site folder is rejected.
//   - A missing source file is reported as ErrSourceMissing so callers can
//     skip it.
//   - Rename is tried first; across devices the file is copied and the
//     source removed.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/yanizio/adept/internal/site"
)

var (
	// ErrProtocolURL marks references that point outside site storage.
	ErrProtocolURL = errors.New("files: absolute or protocol url")
	// ErrEscapes marks references that climb out of the site folder.
	ErrEscapes = errors.New("files: path escapes site folder")
	// ErrSourceMissing marks references whose source file does not exist.
	ErrSourceMissing = errors.New("files: source file missing")
)

// Mover relocates one site-relative resource.
type Mover interface {
	Move(ctx context.Context, src, dst *site.Record, rel string) error
}

// SiteDirFunc maps a site to its storage folder.  *paths.Builder.SiteDir
// satisfies it.
type SiteDirFunc func(*site.Record) string

// FSMover implements Mover on the local filesystem.
type FSMover struct {
	SiteDir SiteDirFunc
}

// NewFSMover returns a mover using dir to locate site folders.
func NewFSMover(dir SiteDirFunc) *FSMover { return &FSMover{SiteDir: dir} }

// IsProtocolURL reports whether ref has a scheme or is protocol-relative.
func IsProtocolURL(ref string) bool {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "//") {
		return true
	}
	u, err := url.Parse(ref)
	if err != nil {
		// Unparseable references are never relocated.
		return true
	}
	return u.Scheme != ""
}

// Move relocates rel from src to dst.
func (m *FSMover) Move(ctx context.Context, src, dst *site.Record, rel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if IsProtocolURL(rel) {
		return ErrProtocolURL
	}

	clean, err := cleanRel(rel)
	if err != nil {
		return err
	}
	from := filepath.Join(m.SiteDir(src), clean)
	to := filepath.Join(m.SiteDir(dst), clean)

	if _, err := os.Stat(from); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, rel)
		}
		return fmt.Errorf("files: stat %s: %w", from, err)
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("files: mkdir %s: %w", filepath.Dir(to), err)
	}
	if err := os.Rename(from, to); err == nil {
		return nil
	}
	return copyAndRemove(from, to)
}

// cleanRel strips site markers and rejects escaping paths.
func cleanRel(rel string) (string, error) {
	if i := strings.IndexAny(rel, "?#"); i >= 0 {
		rel = rel[:i]
	}
	rel = strings.TrimLeft(rel, "@~")
	rel = strings.TrimLeft(filepath.ToSlash(rel), "/")
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrEscapes, rel)
	}
	return clean, nil
}

func copyAndRemove(from, to string) error {
	in, err := os.Open(from)
	if err != nil {
		return fmt.Errorf("files: open %s: %w", from, err)
	}
	defer in.Close()

	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("files: create %s: %w", to, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(to)
		return fmt.Errorf("files: copy %s: %w", from, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("files: close %s: %w", to, err)
	}
	in.Close()
	if err := os.Remove(from); err != nil {
		return fmt.Errorf("files: remove %s: %w", from, err)
	}
	return nil
}
