package pluginapi

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/adept/internal/acl"
	"github.com/yanizio/adept/internal/auth"
	"github.com/yanizio/adept/internal/database"
	"github.com/yanizio/adept/internal/paths"
	"github.com/yanizio/adept/internal/plugin"
	"github.com/yanizio/adept/internal/pluginconfig"
	"github.com/yanizio/adept/internal/tenant"
)

type harness struct {
	ctx   *Context
	repo  *pluginconfig.MemoryRepository
	rec   *recRecorder
	mover *recMover
	deps  *Deps
}

func newHarness(t *testing.T, meta plugin.Metadata, mutate func(*Deps)) *harness {
	t.Helper()
	b := paths.New(filepath.FromSlash("/srv/sites"))
	b.Now = func() time.Time { return time.Date(2025, 7, 4, 9, 8, 7, 0, time.UTC) }
	b.Suffix = func() string { return "0042" }

	h := &harness{
		repo:  pluginconfig.NewMemoryRepository(),
		rec:   &recRecorder{},
		mover: &recMover{},
	}
	deps := Deps{
		Defaults:    tenant.Defaults{DatabaseType: "mysql", ConnectionString: "root@/cms"},
		ConfigRepo:  h.repo,
		Authorizer:  allowList{acl.PluginKey("seo"): true, acl.SiteKey("seo", 2): true},
		Sites:       testSites(),
		Content:     memContent{},
		Paths:       b,
		Mover:       h.mover,
		Diagnostics: h.rec,
	}
	if mutate != nil {
		mutate(&deps)
	}
	h.deps = &deps
	h.ctx = New(&meta, deps)
	return h
}

func seoMeta() plugin.Metadata {
	return plugin.Metadata{ID: "seo", Name: "SEO Toolkit"}
}

func TestContext_TenantDefaultsAndMemo(t *testing.T) {
	h := newHarness(t, seoMeta(), nil)

	dbType, err := h.ctx.DatabaseType()
	require.NoError(t, err)
	assert.Equal(t, "mysql", dbType)

	// Mutating the caller's Deps afterwards changes nothing.
	h.deps.Defaults.DatabaseType = "postgres"
	h.deps.Defaults.ConnectionString = "changed"

	dbType, _ = h.ctx.DatabaseType()
	conn, _ := h.ctx.ConnectionString()
	assert.Equal(t, "mysql", dbType)
	assert.Equal(t, "root@/cms", conn)
}

func TestContext_ProtectedOverrides(t *testing.T) {
	secrets := &flakySecrets{fails: 1}
	meta := seoMeta()
	meta.DatabaseType = "x:PostgreSQL"
	meta.ConnectionString = "x:host=pg dbname=seo"

	h := newHarness(t, meta, func(d *Deps) {
		d.Defaults.ProtectData = true
		d.Secrets = secrets
	})

	// First decrypt fails and is not cached.
	_, err := h.ctx.Driver()
	require.Error(t, err)

	d, err := h.ctx.Driver()
	require.NoError(t, err)
	assert.Equal(t, database.Postgres, d.Type)

	conn, err := h.ctx.ConnectionString()
	require.NoError(t, err)
	assert.Equal(t, "host=pg dbname=seo", conn)

	calls := secrets.calls
	_, _ = h.ctx.DatabaseType()
	_, _ = h.ctx.ConnectionString()
	assert.Equal(t, calls, secrets.calls, "memoized values were recomputed")
}

func TestContext_DriverFallsBack(t *testing.T) {
	meta := seoMeta()
	meta.DatabaseType = "oracle"
	h := newHarness(t, meta, nil)

	d, err := h.ctx.Driver()
	require.NoError(t, err)
	assert.Equal(t, database.MySQL, d.Type)
}

func TestContext_DBOpensOnce(t *testing.T) {
	var opens atomic.Int32
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	h := newHarness(t, seoMeta(), func(d *Deps) {
		d.OpenDB = func(_ context.Context, drv database.Driver, dsn string, opts database.Options) (*sqlx.DB, error) {
			opens.Add(1)
			assert.Equal(t, "root@/cms", dsn)
			assert.Equal(t, database.PluginOptions, opts)
			return sqlx.NewDb(mockDB, drv.DriverName), nil
		}
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			db, err := h.ctx.DB(context.Background())
			assert.NoError(t, err)
			assert.NotNil(t, db)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, opens.Load())

	require.NoError(t, h.ctx.Close())
	require.NoError(t, h.ctx.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContext_DBAfterCloseDoesNotReopen(t *testing.T) {
	var opens atomic.Int32
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	h := newHarness(t, seoMeta(), func(d *Deps) {
		d.OpenDB = func(_ context.Context, drv database.Driver, _ string, _ database.Options) (*sqlx.DB, error) {
			opens.Add(1)
			return sqlx.NewDb(mockDB, drv.DriverName), nil
		}
	})

	_, err = h.ctx.DB(context.Background())
	require.NoError(t, err)
	require.NoError(t, h.ctx.Close())

	db, err := h.ctx.DB(context.Background())
	assert.Nil(t, db)
	assert.ErrorIs(t, err, ErrClosed)
	assert.EqualValues(t, 1, opens.Load())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContext_DBOpenFailureNotCached(t *testing.T) {
	var opens atomic.Int32
	h := newHarness(t, seoMeta(), func(d *Deps) {
		d.OpenDB = func(context.Context, database.Driver, string, database.Options) (*sqlx.DB, error) {
			opens.Add(1)
			return nil, errors.New("refused")
		}
	})
	_, err := h.ctx.DB(context.Background())
	require.Error(t, err)
	_, err = h.ctx.DB(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 2, opens.Load())
}

func TestContext_ConfigRoundTrip(t *testing.T) {
	h := newHarness(t, seoMeta(), nil)
	ctx := context.Background()

	type opts struct {
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
		Extra *string  `json:"extra"`
	}
	in := opts{Title: "t", Tags: []string{"a", "b"}}
	require.True(t, h.ctx.SetConfig(ctx, 2, "opts", in))
	assert.Equal(t, in, GetConfig[opts](ctx, h.ctx, 2, "opts"))

	var out opts
	assert.True(t, h.ctx.LoadConfig(ctx, 2, "opts", &out))
	assert.Equal(t, in, out)
	assert.Equal(t, []string{"opts"}, h.ctx.ConfigNames(ctx, 2))

	// set(nil) behaves like remove.
	require.True(t, h.ctx.SetConfig(ctx, 2, "opts", nil))
	assert.Equal(t, opts{}, GetConfig[opts](ctx, h.ctx, 2, "opts"))

	// Empty names never touch storage.
	assert.False(t, h.ctx.SetConfig(ctx, 2, "", in))
	assert.False(t, h.ctx.RemoveConfig(ctx, 2, ""))
	assert.Equal(t, 0, h.repo.Len())
}

func TestContext_GlobalConfigIsSiteZero(t *testing.T) {
	h := newHarness(t, seoMeta(), nil)
	ctx := context.Background()

	require.True(t, h.ctx.SetGlobalConfig(ctx, "cfgA", map[string]int{"n": 1}))
	assert.Equal(t, map[string]int{"n": 1}, GetConfig[map[string]int](ctx, h.ctx, 0, "cfgA"))
	assert.Equal(t, map[string]int{"n": 1}, GetGlobalConfig[map[string]int](ctx, h.ctx, "cfgA"))

	var n map[string]int
	assert.True(t, h.ctx.LoadGlobalConfig(ctx, "cfgA", &n))
	assert.True(t, h.ctx.RemoveGlobalConfig(ctx, "cfgA"))
	assert.Nil(t, GetGlobalConfig[map[string]int](ctx, h.ctx, "cfgA"))

	_, err := h.ctx.Store().LoadE(ctx, 0, "", &n)
	assert.ErrorIs(t, err, pluginconfig.ErrEmptyName)
}

func TestContext_Permissions(t *testing.T) {
	h := newHarness(t, seoMeta(), nil)
	anon := context.Background()
	user1 := auth.WithUser(anon, 1)
	user2 := auth.WithUser(anon, 2)

	assert.False(t, h.ctx.IsAuthorized(anon))
	assert.True(t, h.ctx.IsAuthorized(user1))
	assert.False(t, h.ctx.IsAuthorized(user2))

	assert.True(t, h.ctx.IsSiteAuthorized(user1, 2))
	assert.False(t, h.ctx.IsSiteAuthorized(user1, 3))
	assert.False(t, h.ctx.IsSiteAuthorized(anon, 2))

	assert.True(t, h.ctx.Authorized(anon, 1, 0))
	assert.True(t, h.ctx.Authorized(anon, 1, 2))
	assert.False(t, h.ctx.Authorized(anon, 2, 2))
}

func TestContext_NoGrantForOtherPlugin(t *testing.T) {
	h := newHarness(t, plugin.Metadata{ID: "forms"}, nil)
	assert.False(t, h.ctx.IsAuthorized(auth.WithUser(context.Background(), 1)))
}

func TestContext_RecordErrorTagsPlugin(t *testing.T) {
	h := newHarness(t, seoMeta(), nil)
	id := h.ctx.RecordError(errors.New("boom"))
	assert.Equal(t, "err-id", id)
	require.Equal(t, 1, h.rec.count())
	assert.Equal(t, "seo", h.rec.srcs[0].PluginID)
	assert.Equal(t, "SEO Toolkit", h.rec.srcs[0].PluginName)
}
