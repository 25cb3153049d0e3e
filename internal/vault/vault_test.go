package vault

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	cases := []struct {
		in       string
		path     string
		key      string
		isRef    bool
		wantsErr bool
	}{
		{"plain-value", "", "", false, false},
		{"vault:secret/adept/app#secret_key", "secret/adept/app", "secret_key", true, false},
		{"vault:kv/a/b/c#k", "kv/a/b/c", "k", true, false},
		{"vault:secret/adept", "", "", true, true},
		{"vault:secret#k", "", "", true, true},
		{"vault:secret/x#", "", "", true, true},
	}
	for _, tc := range cases {
		p, k, ok, err := ParseRef(tc.in)
		if ok != tc.isRef || (err != nil) != tc.wantsErr || p != tc.path || k != tc.key {
			t.Errorf("ParseRef(%q) = %q, %q, %v, %v", tc.in, p, k, ok, err)
		}
		if tc.wantsErr && !errors.Is(err, ErrBadRef) {
			t.Errorf("ParseRef(%q) error %v is not ErrBadRef", tc.in, err)
		}
	}
}

// fakeKV serves fixed secrets and counts reads.
type fakeKV struct {
	secrets map[string]map[string]any // "<mount>|<rel>"
	reads   atomic.Int32
	gate    chan struct{}
}

func (f *fakeKV) read(_ context.Context, mount, rel string) (map[string]any, error) {
	f.reads.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	d, ok := f.secrets[mount+"|"+rel]
	if !ok {
		return nil, errors.New("404")
	}
	return d, nil
}

func newFake() *fakeKV {
	return &fakeKV{secrets: map[string]map[string]any{
		"secret|adept/app": {"secret_key": "s3cr3t", "port": 5432},
	}}
}

func TestResolve_PlainPassThrough(t *testing.T) {
	kv := newFake()
	c := newClient(kv)
	got, err := c.Resolve(context.Background(), "literal")
	require.NoError(t, err)
	assert.Equal(t, "literal", got)
	assert.Zero(t, kv.reads.Load())
}

func TestResolve_BadRef(t *testing.T) {
	_, err := newClient(newFake()).Resolve(context.Background(), "vault:nokey")
	assert.ErrorIs(t, err, ErrBadRef)
}

func TestLookup_CachesUntilTTL(t *testing.T) {
	kv := newFake()
	c := newClient(kv)
	now := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		got, err := c.Resolve(context.Background(), "vault:secret/adept/app#secret_key")
		require.NoError(t, err)
		assert.Equal(t, "s3cr3t", got)
	}
	assert.Equal(t, int32(1), kv.reads.Load())

	now = now.Add(RefTTL)
	_, err := c.Lookup(context.Background(), "secret/adept/app", "secret_key")
	require.NoError(t, err)
	assert.Equal(t, int32(2), kv.reads.Load())
}

func TestLookup_Errors(t *testing.T) {
	c := newClient(newFake())
	ctx := context.Background()

	_, err := c.Lookup(ctx, "secret/adept/app", "absent")
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = c.Lookup(ctx, "secret/adept/app", "port")
	assert.ErrorIs(t, err, ErrMissingKey, "non-string values are rejected")

	_, err = c.Lookup(ctx, "secret/other", "k")
	assert.ErrorContains(t, err, "secret/other")
}

func TestLookup_ConcurrentMissesShareRead(t *testing.T) {
	kv := newFake()
	kv.gate = make(chan struct{})
	c := newClient(kv)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Lookup(context.Background(), "secret/adept/app", "secret_key")
			assert.NoError(t, err)
			assert.Equal(t, "s3cr3t", v)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(kv.gate)
	wg.Wait()
	assert.Equal(t, int32(1), kv.reads.Load())
}
