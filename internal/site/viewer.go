// Package site is the per-session runtime that consumes the snapshot: it
// renders collections, routes locked content through the gates and streams
// project media.
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/gate"
	"github.com/starford/folio/internal/media"
	"github.com/starford/folio/internal/models"
)

// Catalog is the read side of the snapshot. *snapshot.Loader satisfies it.
type Catalog interface {
	Projects(ctx context.Context) ([]models.Project, error)
	Project(ctx context.Context, id string) (models.Project, error)
	About(ctx context.Context) ([]models.AboutEntry, error)
	Vault(ctx context.Context) ([]models.VaultItem, error)
	Settings(ctx context.Context) (models.Settings, error)
}

// Deps are shared by every viewer of a process.
type Deps struct {
	Catalog   Catalog
	Sessions  gate.SessionStore
	Fetcher   media.Fetcher
	LocalHash string
	Digest    gate.DigestFunc
	Logger    *slog.Logger
}

// Viewer holds the state of one browsing session. It is created at session
// start and closed at session end.
type Viewer struct {
	id        string
	catalog   Catalog
	sessions  gate.SessionStore
	localHash string
	logger    *slog.Logger

	projectGate *gate.Gate
	vaultGate   *gate.Gate
	media       *media.Loader

	mu         sync.Mutex
	configured bool
}

// NewViewer creates the viewer of session id.
func NewViewer(id string, deps Deps) *Viewer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("session", id))
	digest := deps.Digest
	if digest == nil {
		digest = gate.MD5Hex
	}

	gateOpts := []gate.Option{gate.WithDigest(digest), gate.WithLogger(logger)}
	if deps.Sessions != nil {
		gateOpts = append(gateOpts, gate.WithSessionStore(deps.Sessions, id))
	}
	return &Viewer{
		id:          id,
		catalog:     deps.Catalog,
		sessions:    deps.Sessions,
		localHash:   deps.LocalHash,
		logger:      logger,
		projectGate: gate.New(gate.KindProject, gateOpts...),
		vaultGate:   gate.New(gate.KindVault, gateOpts...),
		media:       media.NewLoader(deps.Fetcher, logger),
	}
}

// ID returns the session id.
func (v *Viewer) ID() string { return v.id }

// Init loads the settings and configures both gates. It is cheap after the
// first success. An unavailable gate is not an error here; it fails closed
// on every unlock attempt.
func (v *Viewer) Init(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.configured {
		return nil
	}
	settings, err := v.catalog.Settings(ctx)
	if err != nil {
		return fmt.Errorf("viewer init: %w", err)
	}
	_ = v.projectGate.Configure(ctx, v.localHash, settings)
	_ = v.vaultGate.Configure(ctx, v.localHash, settings)
	v.configured = true
	return nil
}

// Refresh makes the next Init re-read the settings of a new snapshot.
// Authorization already granted is kept.
func (v *Viewer) Refresh() {
	v.mu.Lock()
	v.configured = false
	v.mu.Unlock()
}

func (v *Viewer) gateFor(kind gate.Kind) *gate.Gate {
	if kind == gate.KindVault {
		return v.vaultGate
	}
	return v.projectGate
}

// GateStatus describes one gate to clients.
type GateStatus struct {
	Kind      gate.Kind `json:"kind"`
	State     string    `json:"state"`
	Available bool      `json:"available"`
}

// Gate reports the state of a gate.
func (v *Viewer) Gate(ctx context.Context, kind gate.Kind) (GateStatus, error) {
	if err := v.Init(ctx); err != nil {
		return GateStatus{}, err
	}
	g := v.gateFor(kind)
	return GateStatus{Kind: kind, State: g.State().String(), Available: g.Available()}, nil
}

// Unlock checks candidate against a gate.
func (v *Viewer) Unlock(ctx context.Context, kind gate.Kind, candidate string) error {
	if err := v.Init(ctx); err != nil {
		return err
	}
	return v.gateFor(kind).Check(ctx, candidate)
}

// Projects returns the project list in display order.
func (v *Viewer) Projects(ctx context.Context) ([]ProjectRow, error) {
	projects, err := v.catalog.Projects(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]ProjectRow, len(projects))
	for i, p := range projects {
		rows[i] = projectRow(p)
	}
	return rows, nil
}

// ProjectDetail returns one project, or apperr.ErrLocked while it sits
// behind an unopened gate.
func (v *Viewer) ProjectDetail(ctx context.Context, id string) (ProjectDetail, error) {
	if err := v.Init(ctx); err != nil {
		return ProjectDetail{}, err
	}
	p, err := v.catalog.Project(ctx, id)
	if err != nil {
		return ProjectDetail{}, err
	}
	if p.Locked() && !v.projectGate.Authorized() {
		return ProjectDetail{}, fmt.Errorf("project %s: %w", id, apperr.ErrLocked)
	}
	return projectDetail(p), nil
}

// OpenProject streams the media of a project. A later call in the same
// session supersedes this one.
func (v *Viewer) OpenProject(ctx context.Context, id string, onProgress media.ProgressFunc) ([]media.Item, error) {
	detail, err := v.ProjectDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := v.media.Load(ctx, detail.Images, onProgress)
	if err != nil {
		if !errors.Is(err, apperr.ErrSuperseded) {
			v.logger.Warn("viewer: media load failed", slog.String("project", id), slog.String("error", err.Error()))
		}
		return nil, err
	}
	return items, nil
}

// CloseProject stops any media load in flight.
func (v *Viewer) CloseProject() {
	v.media.Cancel()
}

// About returns the grouped about page.
func (v *Viewer) About(ctx context.Context) (AboutPage, error) {
	entries, err := v.catalog.About(ctx)
	if err != nil {
		return AboutPage{}, err
	}
	settings, err := v.catalog.Settings(ctx)
	if err != nil {
		return AboutPage{}, err
	}
	projects, err := v.catalog.Projects(ctx)
	if err != nil {
		return AboutPage{}, err
	}
	return AboutPage{
		Sections:      GroupAbout(entries),
		ProjectsCount: projectsCount(settings, len(projects)),
	}, nil
}

// Vault returns the gallery, or apperr.ErrLocked until the vault gate opens.
func (v *Viewer) Vault(ctx context.Context) ([]VaultTile, error) {
	if err := v.Init(ctx); err != nil {
		return nil, err
	}
	if !v.vaultGate.Authorized() {
		return nil, apperr.ErrLocked
	}
	items, err := v.catalog.Vault(ctx)
	if err != nil {
		return nil, err
	}
	tiles := make([]VaultTile, len(items))
	for i, it := range items {
		tiles[i] = VaultTile{ID: it.ID, ThumbnailImage: it.ThumbnailImage, FullImage: it.FullImage}
	}
	return tiles, nil
}

// Close ends the session: media loads stop and persisted flags are cleared.
func (v *Viewer) Close(ctx context.Context) error {
	v.media.Cancel()
	if v.sessions == nil {
		return nil
	}
	return v.sessions.Clear(ctx, v.id)
}
