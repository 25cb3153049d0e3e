// internal/vault/vault.go
//
// Vault references for process configuration.
//
// Context
// -------
// Secrets that must not sit in conf/global.yaml (the process secret key,
// the control-plane DSN, and the plugin default DSN) can be written as
//
//	vault:<mount>/<path>#<key>
//
// and are swapped for the KV-v2 value at boot by config.ResolveRefs.  The
// Client keeps its token alive in the background for as long as the boot
// context lives.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx)                       // during boot.
//  2. err = cfg.ResolveRefs(ctx, cli)                  // config package.
//  3. v, err := cli.Lookup(ctx, "secret/adept", "dsn")  // ad hoc.
//
// Notes
// -----
//   - Lookups are cached for RefTTL and concurrent misses for the same
//     secret share one request.
//   - VAULT_ADDR and VAULT_TOKEN are read by the SDK; ~/.vault-token is the
//     SDK's fallback.
//   - Oxford commas, two spaces after periods.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RefPrefix marks a config value as a Vault reference.
const RefPrefix = "vault:"

// RefTTL is how long a looked-up secret stays cached.
const RefTTL = 5 * time.Minute

var (
	// ErrBadRef is returned for malformed references.
	ErrBadRef = errors.New("vault: malformed reference")

	// ErrMissingKey is returned when the secret exists but lacks the key
	// or holds a non-string value under it.
	ErrMissingKey = errors.New("vault: key not present")
)

// reader fetches the data map of one KV-v2 secret.
type reader interface {
	read(ctx context.Context, mount, rel string) (map[string]any, error)
}

type kvv2 struct{ api *vault.Client }

func (k kvv2) read(ctx context.Context, mount, rel string) (map[string]any, error) {
	sec, err := k.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return nil, err
	}
	return sec.Data, nil
}

// Client resolves references.  Safe for concurrent use.
type Client struct {
	kv  reader
	now func() time.Time
	sf  singleflight.Group

	mu    sync.RWMutex
	cache map[string]entry // "<mount>/<path>#<key>"
}

type entry struct {
	val string
	exp time.Time
}

// New builds a client from the VAULT_* environment and starts token
// renewal bound to ctx.
func New(ctx context.Context) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault: read environment: %w", err)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault: client: %w", err)
	}
	go renew(ctx, api, zap.L().Named("vault"))
	return newClient(kvv2{api: api}), nil
}

func newClient(kv reader) *Client {
	return &Client{kv: kv, now: time.Now, cache: make(map[string]entry)}
}

// ParseRef splits `vault:<mount>/<path>#<key>` into its secret path and key.
// ok is false when s is not a reference at all.
func ParseRef(s string) (secretPath, key string, ok bool, err error) {
	body, isRef := strings.CutPrefix(s, RefPrefix)
	if !isRef {
		return "", "", false, nil
	}
	i := strings.LastIndex(body, "#")
	if i <= 0 || i == len(body)-1 || !strings.Contains(body[:i], "/") {
		return "", "", true, fmt.Errorf("%w: %q", ErrBadRef, s)
	}
	return body[:i], body[i+1:], true, nil
}

// Resolve returns s unchanged unless it is a reference, in which case the
// referenced value is returned.
func (c *Client) Resolve(ctx context.Context, s string) (string, error) {
	p, key, ok, err := ParseRef(s)
	if !ok || err != nil {
		return s, err
	}
	return c.Lookup(ctx, p, key)
}

// Lookup returns key from the KV-v2 secret at secretPath ("<mount>/<rel>").
func (c *Client) Lookup(ctx context.Context, secretPath, key string) (string, error) {
	id := secretPath + "#" + key
	if v, ok := c.hit(id); ok {
		return v, nil
	}

	v, err, _ := c.sf.Do(id, func() (any, error) {
		mount, rel, _ := strings.Cut(secretPath, "/")
		data, err := c.kv.read(ctx, mount, rel)
		if err != nil {
			return "", fmt.Errorf("vault: read %s: %w", secretPath, err)
		}
		s, ok := data[key].(string)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrMissingKey, id)
		}
		c.put(id, s)
		return s, nil
	})
	return v.(string), err
}

func (c *Client) hit(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.cache[id]
	if !ok || !c.now().Before(e.exp) {
		return "", false
	}
	return e.val, true
}

func (c *Client) put(id, val string) {
	c.mu.Lock()
	c.cache[id] = entry{val: val, exp: c.now().Add(RefTTL)}
	c.mu.Unlock()
}

//
// Token renewal
//

// renew keeps the client token alive until ctx ends.  A non-renewable
// token is re-probed hourly in case it was replaced.
func renew(ctx context.Context, api *vault.Client, log *zap.Logger) {
	for ctx.Err() == nil {
		sec, err := api.Auth().Token().RenewSelfWithContext(ctx, 0)
		switch {
		case err != nil:
			log.Warn("token renew failed", zap.Error(err))
			sleep(ctx, 30*time.Second)
		case sec == nil || sec.Auth == nil || !sec.Auth.Renewable:
			log.Info("token not renewable")
			sleep(ctx, time.Hour)
		default:
			watch(ctx, api, sec, log)
			sleep(ctx, 15*time.Second)
		}
	}
}

// watch runs one lifetime watcher until it stops or ctx ends.
func watch(ctx context.Context, api *vault.Client, sec *vault.Secret, log *zap.Logger) {
	w, err := api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{Secret: sec})
	if err != nil {
		log.Warn("lifetime watcher", zap.Error(err))
		return
	}
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.DoneCh():
			if err != nil {
				log.Warn("token renewal stopped", zap.Error(err))
			}
			return
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				log.Debug("token renewed", zap.Int("ttl_seconds", ev.Secret.Auth.LeaseDuration))
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
