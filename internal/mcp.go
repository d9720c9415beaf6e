package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/store"
)

// ServeMCP exposes the catalog to LLM clients over stdio. Logs go to stderr
// since stdout carries the protocol.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	fs, err := openSite(cfg)
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	loader := newCatalog(cfg, fs)
	if _, err := loader.Load(ctx); err != nil {
		logger.Warn("mcp: snapshot not loaded yet", slog.String("error", err.Error()))
	}

	logger.Info("mcp: serving on stdio", slog.String("site_root", cfg.Site.Root))
	return mcpserver.New(loader, db).ServeStdio()
}
