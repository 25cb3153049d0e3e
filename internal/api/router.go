// internal/api/router.go
//
// Admin HTTP surface.
//
// Context
// -------
// Operators and the CMS admin UI manage plugin config over a small JSON
// API.  Every route resolves the plugin's shared Runtime Context from the
// host cache and goes through the strict config API, so the API sees real
// errors where plugins see false.
//
// Routes
// ------
//
//	GET    /healthz
//	GET    /metrics
//	GET    /api/plugins
//	GET    /api/plugins/{pluginID}/sites/{siteID}/config
//	GET    /api/plugins/{pluginID}/sites/{siteID}/config/{name}
//	PUT    /api/plugins/{pluginID}/sites/{siteID}/config/{name}
//	DELETE /api/plugins/{pluginID}/sites/{siteID}/config/{name}
//	POST   /api/plugins/{pluginID}/resources/move
//
// Notes
// -----
//   - Identity comes from the trusted header set by the CMS front end.
//   - requestinfo.Enrich writes one access-log line per /api request.
//   - Plugin routes are guarded by acl.RequirePluginPermission; the plugin
//     listing needs the plugins/view role permission.
//   - Oxford commas, two spaces after periods.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/adept/internal/acl"
	"github.com/yanizio/adept/internal/auth"
	"github.com/yanizio/adept/internal/host"
	"github.com/yanizio/adept/internal/middleware"
	"github.com/yanizio/adept/internal/plugin"
	"github.com/yanizio/adept/internal/requestinfo"
)

// Authorizer answers both plugin and role questions.  *acl.SQLAuthorizer
// satisfies it.
type Authorizer interface {
	acl.Authorizer
	acl.RoleAuthorizer
}

// Server holds the handler dependencies.
type Server struct {
	Contexts   *host.Cache
	Registry   *plugin.Registry
	Authz      Authorizer
	UserHeader string
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Security)
		r.Use(auth.TrustedHeader(s.UserHeader))
		r.Use(requestinfo.Enrich)

		r.With(acl.RequirePermission(s.Authz, "plugins", "view")).
			Get("/plugins", s.listPlugins)

		r.Route("/plugins/{pluginID}", func(r chi.Router) {
			guard := acl.RequirePluginPermission(s.Authz)

			// The guard sits inside the site route so {siteID} is bound.
			r.Route("/sites/{siteID}/config", func(r chi.Router) {
				r.Use(guard)
				r.Get("/", s.listConfig)
				r.Get("/{name}", s.getConfig)
				r.Put("/{name}", s.putConfig)
				r.Delete("/{name}", s.deleteConfig)
			})
			r.With(guard).Post("/resources/move", s.moveResources)
		})
	})
	return r
}
