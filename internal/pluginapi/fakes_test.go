package pluginapi

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yanizio/adept/internal/acl"
	"github.com/yanizio/adept/internal/content"
	"github.com/yanizio/adept/internal/diagnostics"
	"github.com/yanizio/adept/internal/site"
)

// memSites is a fixed site.Directory.
type memSites struct {
	root  string
	sites []site.Record
	err   error
}

func (m *memSites) ByID(_ context.Context, id int) (*site.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.sites {
		if m.sites[i].ID == id {
			rec := m.sites[i]
			return &rec, nil
		}
	}
	return nil, site.ErrNotFound
}

func (m *memSites) ByPath(_ context.Context, path string) (*site.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	if rec := site.MatchPath(m.sites, m.root, path); rec != nil {
		return rec, nil
	}
	return nil, site.ErrNotFound
}

func (m *memSites) IDs(context.Context) ([]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]int, 0, len(m.sites))
	for _, s := range m.sites {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// memContent serves one node and one item.
type memContent struct{}

func (memContent) Node(_ context.Context, siteID, channelID int) (*content.Node, error) {
	if siteID == 1 && channelID == 10 {
		return &content.Node{ID: 10, SiteID: 1, Name: "News"}, nil
	}
	if channelID < 0 {
		return nil, errors.New("bad channel")
	}
	return nil, content.ErrNotFound
}

func (memContent) Item(_ context.Context, siteID, channelID, contentID int) (*content.Item, error) {
	if siteID == 1 && channelID == 10 && contentID == 100 {
		return &content.Item{ID: 100, SiteID: 1, ChannelID: 10, Title: "Hello"}, nil
	}
	return nil, content.ErrNotFound
}

// recMover records Move calls and fails refs that contain "fail".
type recMover struct {
	mu    sync.Mutex
	moved []string
}

func (m *recMover) Move(_ context.Context, _, _ *site.Record, rel string) error {
	if strings.Contains(rel, "fail") {
		return errors.New("disk full")
	}
	m.mu.Lock()
	m.moved = append(m.moved, rel)
	m.mu.Unlock()
	return nil
}

// recRecorder collects recorded errors.
type recRecorder struct {
	mu   sync.Mutex
	srcs []diagnostics.Source
	errs []error
}

func (r *recRecorder) RecordError(src diagnostics.Source, err error) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.srcs = append(r.srcs, src)
	r.errs = append(r.errs, err)
	return "err-id"
}

func (r *recRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

// allowList grants the listed keys to user 1 only.
type allowList map[acl.Key]bool

func (a allowList) HasPermission(_ context.Context, uid int64, k acl.Key) (bool, error) {
	return uid == 1 && a[k], nil
}

// flakySecrets fails the first `fails` calls, then strips an "x:" prefix.
type flakySecrets struct {
	mu    sync.Mutex
	fails int
	calls int
}

func (f *flakySecrets) Resolve(raw string, protected bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if !protected {
		return raw, nil
	}
	if f.fails > 0 {
		f.fails--
		return "", errors.New("bad ciphertext")
	}
	return strings.TrimPrefix(raw, "x:"), nil
}

func testSites() *memSites {
	root := filepath.FromSlash("/srv/sites")
	return &memSites{
		root: root,
		sites: []site.Record{
			{ID: 1, Host: "www.example.com", Dir: ""},
			{ID: 2, Host: "blog.example.com", Dir: "blog", APIURL: "https://api.example.com/"},
		},
	}
}
