// cmd/web/main.go
//
// Orderform – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Load the jail-wide env file when present (before config, so its
//     ORDERFORM_ variables take part in the env layer).
//
//  2. Load layered config (defaults → conf/.env → conf/app.yaml → env).
//
//  3. Start the daily rotating logger (tees to console in a TTY).
//
//  4. Build the session store, the view engine, and the router with every
//     blank-imported component mounted.
//
//  5. Serve, prune idle sessions once a minute, and shut down gracefully on
//     SIGINT/SIGTERM.  The three loops share one errgroup.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/orderform/internal/catalog"
	"github.com/yanizio/orderform/internal/component"
	"github.com/yanizio/orderform/internal/config"
	"github.com/yanizio/orderform/internal/form"
	"github.com/yanizio/orderform/internal/logger"
	"github.com/yanizio/orderform/internal/router"
	"github.com/yanizio/orderform/internal/server"
	"github.com/yanizio/orderform/internal/session"
	"github.com/yanizio/orderform/internal/view"

	_ "github.com/yanizio/orderform/components/card"
	_ "github.com/yanizio/orderform/components/orderform"
	_ "github.com/yanizio/orderform/components/search"
)

const (
	serverEnvPath = "/usr/local/etc/orderform/global.env"
	pruneEvery    = time.Minute
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logDir := cfg.Log.Dir
	if !filepath.IsAbs(logDir) {
		logDir = filepath.Join(cfg.Paths.Root, logDir)
	}
	logOut, err := logger.New(logDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	if err := run(cfg); err != nil {
		logOut.Fatalw("server stopped", "err", err)
	}
	logOut.Info("server stopped cleanly")
}

func run(cfg *config.Config) error {
	//
	// ── 1.  Shared resources ────────────────────────────────────────────
	//
	sessions := session.New(session.Options{
		Capacity:   cfg.Session.Capacity,
		IdleTTL:    cfg.Session.IdleTTL,
		CookieName: cfg.Session.CookieName,
	})
	policy := view.CacheDefault
	if cfg.View.Reload {
		policy = view.CacheSkip
	}
	views := view.New(view.Options{ThemeDir: cfg.View.ThemeDir, Theme: cfg.View.Theme, Policy: policy})

	handler, err := router.New(component.Deps{
		Config:   cfg,
		View:     views,
		Sessions: sessions,
		Catalog:  catalog.Default(),
		CSRF:     form.DefaultCSRF(),
	})
	if err != nil {
		return err
	}
	srv := server.New(cfg.HTTP, handler)

	//
	// ── 2.  Serve, prune, and wait for a signal ─────────────────────────
	//
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.S().Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		t := time.NewTicker(pruneEvery)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				if n := sessions.Prune(); n > 0 {
					zap.S().Debugw("idle sessions pruned", "count", n, "live", sessions.Len())
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		zap.S().Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
