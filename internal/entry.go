// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/media"
	"github.com/starford/folio/internal/normalize"
	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/snapshot"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/store"
)

// openSite makes sure the site root exists and returns its provider.
func openSite(cfg *Config) (*storage.FS, error) {
	if err := os.MkdirAll(cfg.Site.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create site dir: %w", err)
	}
	fs, err := storage.NewFS(cfg.Site.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return fs, nil
}

// newCatalog builds the snapshot loader the viewer reads from.
func newCatalog(cfg *Config, fs *storage.FS) *snapshot.Loader {
	norm := normalize.New(normalize.WithAssets(fs))
	if cfg.Site.SnapshotURL != "" {
		return snapshot.NewLoader(snapshot.HTTPSource{
			URL:    cfg.Site.SnapshotURL,
			Client: &http.Client{Timeout: 15 * time.Second},
		}, norm)
	}
	return snapshot.NewLoader(snapshot.FileSource{Store: fs, Path: cfg.Site.SnapshotPath}, norm)
}

// Run serves the site, its API and catalog update events until a signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stdout, opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("site_root", cfg.Site.Root),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("session_backend", cfg.Session.Backend),
		slog.String("log_level", cfg.App.LogLevel.String()))

	fs, err := openSite(cfg)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	sessions, closeSessions, err := openSessions(cfg.Session, db)
	if err != nil {
		return fmt.Errorf("init sessions: %w", err)
	}
	defer closeSessions()

	loader := newCatalog(cfg, fs)
	if _, err := loader.Load(ctx); err != nil {
		logger.Warn("initial snapshot load failed", slog.String("error", err.Error()))
	}

	fetcher := media.NewSiteFetcher(fs, nil)
	registry := site.NewRegistry(func(id string) *site.Viewer {
		return site.NewViewer(id, site.Deps{
			Catalog:   loader,
			Sessions:  sessions,
			Fetcher:   fetcher,
			LocalHash: cfg.Gate.PasswordHash,
			Logger:    logger,
		})
	}, sessions, cfg.Session.Idle, logger)

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(api.RouterConfig{
		Registry:      registry,
		Runs:          db,
		Events:        broker,
		AuthEnabled:   cfg.Auth.AuthEnabled(),
		AuthToken:     cfg.Auth.Token,
		SecureCookies: cfg.App.HTTP.SecureCookies,
		Logger:        logger,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"store unavailable"}`))
			return
		}
		if _, err := loader.Load(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"snapshot unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)
	r.Get("/"+cfg.Site.SnapshotPath, snapshotHandler(fs, cfg.Site.SnapshotPath, logger))
	r.Handle("/*", guardArtifact(http.FileServer(http.Dir(cfg.Site.Root)), cfg.Site.SnapshotPath))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the catalog when sync replaces the artifact.
	if cfg.Site.SnapshotURL == "" {
		absPath, err := fs.Abs(cfg.Site.SnapshotPath)
		if err != nil {
			return fmt.Errorf("resolve snapshot path: %w", err)
		}
		g.Go(func() error {
			return snapshot.Watch(gCtx, absPath, logger, func() {
				loader.Invalidate()
				registry.Refresh()
				snap, err := loader.Load(gCtx)
				if err != nil {
					logger.Warn("snapshot reload failed", slog.String("error", err.Error()))
					return
				}
				logger.Info("snapshot reloaded", slog.String("last_updated", snap.LastUpdated))
				broker.PublishCatalog(snap.LastUpdated)
			})
		})
	}

	g.Go(func() error {
		registry.RunSweeper(gCtx, time.Minute)
		return nil
	})

	if cfg.Session.Backend == SessionBackendSQLite {
		g.Go(func() error {
			purgeSessions(gCtx, db, cfg.Session.TTL, time.Hour, logger)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		broker.Close()
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
