// Package catalog extracts the four content collections into one snapshot.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/normalize"
	"github.com/starford/folio/internal/notion"
)

// Collection names one of the four extracted collections.
type Collection string

const (
	Projects Collection = "projects"
	About    Collection = "about"
	Vault    Collection = "vault"
	Settings Collection = "settings"
)

// Querier is the part of the remote store the extractor needs.
type Querier interface {
	Database(ctx context.Context, id string) (*notion.Database, error)
	Query(ctx context.Context, id string, req notion.QueryRequest) ([]notion.Page, error)
}

// Source identifies a remote database and an optional status filter.
type Source struct {
	DatabaseID     string
	StatusProperty string
	StatusEquals   string
}

// Config lists the sources of all four collections.
type Config struct {
	Projects      Source
	About         Source
	Vault         Source
	Settings      Source
	SortDirection string // ascending or descending; empty means descending
}

// Report summarizes one extraction run.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Counts     map[Collection]int
	Failures   map[Collection]string
}

// Failed reports whether any collection degraded to empty.
func (r Report) Failed() bool { return len(r.Failures) > 0 }

// Extractor runs full re-extractions.
type Extractor struct {
	q      Querier
	cfg    Config
	norm   *normalize.Normalizer
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Extractor. A nil normalizer uses normalize.New().
func New(q Querier, cfg Config, norm *normalize.Normalizer, logger *slog.Logger) *Extractor {
	if norm == nil {
		norm = normalize.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{q: q, cfg: cfg, norm: norm, logger: logger, now: time.Now}
}

// run holds state scoped to one Extract call.
type run struct {
	mu       sync.Mutex
	sorts    map[Collection][]notion.Sort
	failures map[Collection]string
}

func (r *run) fail(c Collection, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[c] = err.Error()
}

// Extract queries all four collections concurrently and assembles a snapshot.
// A failing collection is logged and left empty; it never aborts the others.
func (e *Extractor) Extract(ctx context.Context) (models.Snapshot, Report) {
	r := &run{
		sorts:    make(map[Collection][]notion.Sort),
		failures: make(map[Collection]string),
	}
	report := Report{StartedAt: e.now()}

	var (
		projects []models.Project
		about    []models.AboutEntry
		vault    []models.VaultItem
		settings models.Settings
	)

	var g errgroup.Group
	g.Go(func() error {
		projects = e.extractProjects(ctx, r)
		return nil
	})
	g.Go(func() error {
		about = e.extractAbout(ctx, r)
		return nil
	})
	g.Go(func() error {
		vault = e.extractVault(ctx, r)
		return nil
	})
	g.Go(func() error {
		settings = e.extractSettings(ctx, r)
		return nil
	})
	_ = g.Wait()

	report.FinishedAt = e.now()
	report.Failures = r.failures
	report.Counts = map[Collection]int{
		Projects: len(projects),
		About:    len(about),
		Vault:    len(vault),
		Settings: len(settings),
	}

	return models.Snapshot{
		Projects:    projects,
		About:       about,
		Vault:       vault,
		Settings:    settings,
		LastUpdated: report.FinishedAt.UTC().Format(models.TimestampLayout),
	}, report
}

func (e *Extractor) extractProjects(ctx context.Context, r *run) []models.Project {
	recs, err := e.records(ctx, r, Projects, e.cfg.Projects)
	if err != nil {
		return []models.Project{}
	}
	out := make([]models.Project, 0, len(recs))
	for _, rec := range recs {
		out = append(out, e.norm.Project(rec))
	}
	for _, id := range normalize.UniqueProjectIDs(out) {
		e.logger.Warn("extract: duplicate project id renamed", slog.String("id", id))
	}
	normalize.SortProjects(out)
	return out
}

func (e *Extractor) extractAbout(ctx context.Context, r *run) []models.AboutEntry {
	recs, err := e.records(ctx, r, About, e.cfg.About)
	if err != nil {
		return []models.AboutEntry{}
	}
	out := make([]models.AboutEntry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, e.norm.About(rec))
	}
	return out
}

func (e *Extractor) extractVault(ctx context.Context, r *run) []models.VaultItem {
	recs, err := e.records(ctx, r, Vault, e.cfg.Vault)
	if err != nil {
		return []models.VaultItem{}
	}
	out := make([]models.VaultItem, 0, len(recs))
	for _, rec := range recs {
		out = append(out, e.norm.Vault(rec))
	}
	normalize.SortVault(out)
	return out
}

func (e *Extractor) extractSettings(ctx context.Context, r *run) models.Settings {
	recs, err := e.records(ctx, r, Settings, e.cfg.Settings)
	if err != nil {
		return models.Settings{}
	}
	if len(recs) == 0 {
		e.logger.Warn("extract: settings collection is empty")
	}
	return e.norm.Settings(recs)
}

// records queries one collection and decodes every page. Errors are logged
// and recorded on the run before being returned.
func (e *Extractor) records(ctx context.Context, r *run, c Collection, src Source) ([]normalize.Record, error) {
	logger := e.logger.With(slog.String("collection", string(c)))
	logger.Debug("extract: querying")

	recs, err := e.query(ctx, r, c, src, logger)
	if err != nil {
		logger.Error("extract: collection failed", slog.String("error", err.Error()))
		r.fail(c, err)
		return nil, err
	}
	logger.Info("extract: collection loaded", slog.Int("records", len(recs)))
	return recs, nil
}

func (e *Extractor) query(ctx context.Context, r *run, c Collection, src Source, logger *slog.Logger) ([]normalize.Record, error) {
	if src.DatabaseID == "" {
		return nil, errors.New("no database id configured")
	}
	db, err := e.q.Database(ctx, src.DatabaseID)
	if err != nil {
		return nil, err
	}

	req := notion.QueryRequest{Sorts: e.sortFor(r, c, db)}
	if src.StatusProperty != "" && src.StatusEquals != "" {
		filter, err := statusFilter(db, src)
		if err != nil {
			return nil, err
		}
		req.Filter = filter
	}

	pages, err := e.q.Query(ctx, src.DatabaseID, req)
	if err != nil {
		return nil, err
	}
	recs := make([]normalize.Record, 0, len(pages))
	for _, page := range pages {
		recs = append(recs, notion.DecodeProperties(page.Properties, logger.With(slog.String("page", page.ID))))
	}
	return recs, nil
}

// sortFor resolves the remote sort of a collection once per run. Remote order
// is advisory only; the local sort after normalization is authoritative.
func (e *Extractor) sortFor(r *run, c Collection, db *notion.Database) []notion.Sort {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sorts[c]; ok {
		return s
	}
	var sorts []notion.Sort
	for _, name := range slices.Sorted(maps.Keys(db.Properties)) {
		if strings.EqualFold(name, "order") {
			sorts = []notion.Sort{{Property: name, Direction: e.direction()}}
			break
		}
	}
	r.sorts[c] = sorts
	return sorts
}

func (e *Extractor) direction() string {
	if strings.EqualFold(e.cfg.SortDirection, notion.Ascending) {
		return notion.Ascending
	}
	return notion.Descending
}

// statusFilter builds an equality filter whose payload key matches the
// property's type in the schema.
func statusFilter(db *notion.Database, src Source) (map[string]any, error) {
	prop, ok := db.Properties[src.StatusProperty]
	if !ok {
		return nil, fmt.Errorf("status property %q not in schema", src.StatusProperty)
	}
	key := string(notion.KindSelect)
	if prop.Type == notion.KindStatus {
		key = string(notion.KindStatus)
	}
	return map[string]any{
		"property": src.StatusProperty,
		key:        map[string]any{"equals": src.StatusEquals},
	}, nil
}
