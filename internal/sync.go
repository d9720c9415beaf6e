package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/normalize"
	"github.com/starford/folio/internal/notion"
	"github.com/starford/folio/internal/snapshot"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/store"
)

const lockName = ".folio.lock"

// lockSite takes the site-wide writer lock. Only one sync or relink may
// rewrite the artifact at a time.
func lockSite(root string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(root, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return nil, apperr.ErrSyncRunning
	}
	return lock, nil
}

// Sync runs one full extraction and replaces the snapshot. Collections that
// fail are written empty and reported; the run itself still succeeds.
func Sync(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stdout, opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	if err := cfg.Notion.ValidateSync(); err != nil {
		return err
	}

	fs, err := openSite(cfg)
	if err != nil {
		return err
	}
	lock, err := lockSite(cfg.Site.Root)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	client, err := notion.New(cfg.Notion.Token,
		notion.WithBaseURL(cfg.Notion.BaseURL),
		notion.WithAPIVersion(cfg.Notion.APIVersion),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrConfig, err)
	}

	norm := normalize.New(normalize.WithAssets(fs))
	extractor := catalog.New(client, cfg.Notion.CatalogConfig(), norm, logger)

	logger.Info("sync: extracting")
	snap, report := extractor.Extract(ctx)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sync cancelled: %w", err)
	}

	run, err := writeSnapshot(fs, cfg.Site.SnapshotPath, snap)
	if err != nil {
		return err
	}
	run.StartedAt, run.FinishedAt = report.StartedAt, report.FinishedAt
	for c, n := range report.Counts {
		run.Counts[string(c)] = n
	}
	for c, msg := range report.Failures {
		run.Failures[string(c)] = msg
	}
	if _, err := db.RecordRun(ctx, run); err != nil {
		logger.Warn("sync: record run failed", slog.String("error", err.Error()))
	}

	for c, msg := range report.Failures {
		logger.Warn("sync: collection degraded to empty",
			slog.String("collection", string(c)),
			slog.String("error", msg))
	}
	logger.Info("sync: done",
		slog.Int("projects", len(snap.Projects)),
		slog.Int("about", len(snap.About)),
		slog.Int("vault", len(snap.Vault)),
		slog.Int("settings", len(snap.Settings)),
		slog.String("checksum", run.Checksum),
		slog.Duration("took", run.Duration()))
	fmt.Fprintf(app.out, "wrote %s (%d projects, %d about, %d vault, %d settings)\n",
		cfg.Site.SnapshotPath, len(snap.Projects), len(snap.About), len(snap.Vault), len(snap.Settings))
	return nil
}

// writeSnapshot writes snap and returns a run row carrying the checksum of
// the bytes now on disk.
func writeSnapshot(fs storage.Provider, path string, snap models.Snapshot) (store.RunRow, error) {
	w := snapshot.NewWriter(fs, path)
	if err := w.Write(snap); err != nil {
		return store.RunRow{}, fmt.Errorf("write snapshot: %w", err)
	}
	data, err := fs.Read(w.Path())
	if err != nil {
		return store.RunRow{}, fmt.Errorf("read back snapshot: %w", err)
	}
	return store.RunRow{
		Counts:   map[string]int{},
		Failures: map[string]string{},
		Checksum: checksum.Sum(data),
	}, nil
}

// Relink rescans the local project asset folders and rewrites the image
// lists of the existing snapshot without contacting the remote store.
func Relink(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stdout, opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	fs, err := openSite(cfg)
	if err != nil {
		return err
	}
	lock, err := lockSite(cfg.Site.Root)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	data, err := snapshot.FileSource{Store: fs, Path: cfg.Site.SnapshotPath}.Fetch(ctx)
	if err != nil {
		return err
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("snapshot: %w: %v", apperr.ErrDecode, err)
	}

	changed := RelinkProjects(&snap, normalize.ImageResolver{Folders: normalize.DefaultFolders, Lister: fs})
	if changed == 0 {
		logger.Info("relink: nothing to do")
		fmt.Fprintln(app.out, "all project images already match local folders")
		return nil
	}
	if _, err := writeSnapshot(fs, cfg.Site.SnapshotPath, snap); err != nil {
		return err
	}
	logger.Info("relink: snapshot rewritten", slog.Int("projects", changed))
	fmt.Fprintf(app.out, "relinked %d projects\n", changed)
	return nil
}

// RelinkProjects replaces project image lists with local folder contents and
// returns how many projects changed.
func RelinkProjects(snap *models.Snapshot, resolver normalize.ImageResolver) int {
	if snap == nil {
		return 0
	}
	n := 0
	for i := range snap.Projects {
		p := &snap.Projects[i]
		if images, ok := resolver.Relink(p.Number, p.Images); ok {
			p.Images = images
			n++
		}
	}
	return n
}
