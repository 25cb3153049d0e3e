// cmd/web/main.go
//
// Adept plugin host – HTTP entry point.
//
// Start-up sequence
// -----------------
//
// Env vars are loaded in init (jail-wide file → .env fallback), then main:
//
//  1. Loads conf/global.yaml with env overrides.
//
//  2. Starts the daily rotating logger (tees to console in a TTY).
//
//  3. Wires the plugin runtime: `vault:` refs, control-plane DB, secret
//     resolver, plugin registry, and the Runtime Context cache.
//
//  4. Builds the admin API router (config store, permission-guarded
//     resource moves, /healthz, and /metrics) and wraps it with ForceHTTPS.
//
//  5. Serves until SIGINT or SIGTERM, then drains and closes the cache.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/yanizio/adept/internal/api"
	"github.com/yanizio/adept/internal/bootstrap"
	"github.com/yanizio/adept/internal/config"
	"github.com/yanizio/adept/internal/logger"
	"github.com/yanizio/adept/internal/middleware"
	"github.com/yanizio/adept/internal/server"
)

const serverEnvPath = "/usr/local/etc/adept/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Config ─────────────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	//
	// ── 2.  Logger ─────────────────────────────────────────────────────
	//
	logOut, err := logger.New(cfg.Paths.Root, cfg.Log.Level, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 3.  Plugin runtime (DB, secrets, registry, context cache) ─────
	//
	rt, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		logOut.Fatalw("plugin runtime", "err", err)
	}
	defer rt.Close()

	var active int
	_ = rt.DB.GetContext(ctx, &active, rt.Driver.Rebind(`
	    SELECT COUNT(*) FROM site
	    WHERE suspended_at IS NULL AND deleted_at IS NULL`))
	logOut.Infow("global DB online", "active_sites", active)

	//
	// ── 4.  Router, wrapped with HTTPS enforcement (skip localhost) ───
	//
	srv := &api.Server{
		Contexts:   rt.Contexts,
		Registry:   rt.Registry,
		Authz:      rt.Authz,
		UserHeader: cfg.HTTP.UserHeader,
	}
	handler := middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS, srv.Router())

	//
	// ── 5.  Serve until signalled ──────────────────────────────────────
	//
	logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
	if err := server.Run(ctx, server.New(cfg.HTTP.ListenAddr, handler)); err != nil {
		logOut.Errorw("http server", "err", err)
	}
	logOut.Info("shutdown complete")
}
