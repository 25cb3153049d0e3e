// Package commands holds the pluginctl subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/yanizio/adept/internal/diagnostics"
	"github.com/yanizio/adept/internal/plugin"
	"github.com/yanizio/adept/internal/pluginconfig"
	"github.com/yanizio/adept/internal/secret"
)

// Env is what the commands need from the process.  Open and Secrets are
// called lazily so commands that need neither stay offline.
type Env struct {
	Out     io.Writer
	Open    func(ctx context.Context) (*Session, error)
	Secrets func() (*secret.Resolver, error)
}

// Session is an opened connection to the plugin host's state.
type Session struct {
	Registry *plugin.Registry
	Repo     pluginconfig.Repository
	close    func()
}

// NewSession wraps reg and repo.  closeFn may be nil.
func NewSession(reg *plugin.Registry, repo pluginconfig.Repository, closeFn func()) *Session {
	return &Session{Registry: reg, Repo: repo, close: closeFn}
}

// Close releases the session.
func (s *Session) Close() {
	if s.close != nil {
		s.close()
	}
}

// Store returns the config store of a registered plugin.
func (s *Session) Store(pluginID string) (*pluginconfig.Store, error) {
	meta, err := s.Registry.Get(pluginID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, pluginID)
	}
	src := diagnostics.Source{PluginID: meta.ID, PluginName: meta.DisplayName()}
	st := pluginconfig.NewStore(src, s.Repo, pluginconfig.JSONCodec{}, diagnostics.NewZapRecorder(zap.L()))
	return st.WithSchemas(meta.Schemas), nil
}

func parseSiteID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid site id %q", s)
	}
	return id, nil
}
