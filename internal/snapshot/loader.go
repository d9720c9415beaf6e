package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/normalize"
	"github.com/starford/folio/internal/storage"
)

const maxSnapshotBytes = 32 << 20

// Source fetches the raw artifact bytes.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTPSource fetches the artifact with a single GET.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// Fetch implements Source. A non-2xx answer yields *apperr.LoadError.
func (s HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: new request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot: get %s: %w: %v", s.URL, apperr.ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperr.LoadError{URL: s.URL, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("snapshot: read body: %w: %v", apperr.ErrTransport, err)
	}
	return data, nil
}

// FileSource reads the artifact from the site directory.
type FileSource struct {
	Store storage.Provider
	Path  string
}

// Fetch implements Source.
func (s FileSource) Fetch(_ context.Context) ([]byte, error) {
	path := s.Path
	if path == "" {
		path = DefaultPath
	}
	data, err := s.Store.Read(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	return data, nil
}

// Loader caches the snapshot for the lifetime of a viewer process. Concurrent
// first calls share one fetch.
type Loader struct {
	src  Source
	norm *normalize.Normalizer

	group singleflight.Group

	mu     sync.Mutex
	cached *models.Snapshot
	gen    uint64
}

// NewLoader creates a Loader. A nil normalizer uses normalize.New().
func NewLoader(src Source, norm *normalize.Normalizer) *Loader {
	if norm == nil {
		norm = normalize.New()
	}
	return &Loader{src: src, norm: norm}
}

// rawSnapshot is the artifact read as loose records, so snapshots written
// before records were pre-normalized still decode.
type rawSnapshot struct {
	Projects    []normalize.Record `json:"projects"`
	About       []normalize.Record `json:"about"`
	Vault       []normalize.Record `json:"vault"`
	Settings    map[string]any     `json:"settings"`
	LastUpdated string             `json:"lastUpdated"`
}

// Load returns the cached snapshot, fetching it once if needed. A caller
// that gives up does not cancel the fetch shared with other callers.
func (l *Loader) Load(ctx context.Context) (models.Snapshot, error) {
	l.mu.Lock()
	if l.cached != nil {
		snap := *l.cached
		l.mu.Unlock()
		return snap, nil
	}
	gen := l.gen
	l.mu.Unlock()

	fetchCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(fmt.Sprintf("snapshot-%d", gen), func() (any, error) {
		data, err := l.src.Fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		snap, err := l.decode(data)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		if l.gen == gen {
			l.cached = &snap
		}
		l.mu.Unlock()
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return models.Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.Snapshot{}, res.Err
		}
		return res.Val.(models.Snapshot), nil
	}
}

func (l *Loader) decode(data []byte) (models.Snapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Snapshot{}, fmt.Errorf("snapshot: %w: %v", apperr.ErrDecode, err)
	}
	snap := models.Snapshot{
		Projects:    make([]models.Project, len(raw.Projects)),
		About:       make([]models.AboutEntry, len(raw.About)),
		Vault:       make([]models.VaultItem, len(raw.Vault)),
		Settings:    normalize.SettingsOf(raw.Settings),
		LastUpdated: raw.LastUpdated,
	}
	for i, rec := range raw.Projects {
		snap.Projects[i] = l.norm.Project(rec)
	}
	normalize.UniqueProjectIDs(snap.Projects)
	for i, rec := range raw.About {
		snap.About[i] = l.norm.About(rec)
	}
	for i, rec := range raw.Vault {
		snap.Vault[i] = l.norm.Vault(rec)
	}
	return snap, nil
}

// Invalidate drops the cached snapshot. A fetch already in flight still
// answers its callers but is not cached.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
	l.gen++
}

// Projects returns the projects in ascending order.
func (l *Loader) Projects(ctx context.Context) ([]models.Project, error) {
	snap, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(snap.Projects)
	normalize.SortProjects(out)
	return out, nil
}

// Project returns one normalized project by id.
func (l *Loader) Project(ctx context.Context, id string) (models.Project, error) {
	projects, err := l.Projects(ctx)
	if err != nil {
		return models.Project{}, err
	}
	for _, p := range projects {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Project{}, fmt.Errorf("project %q: %w", id, apperr.ErrNotFound)
}

// About returns the about entries in snapshot order.
func (l *Loader) About(ctx context.Context) ([]models.AboutEntry, error) {
	snap, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(snap.About), nil
}

// Vault returns the vault items in ascending order.
func (l *Loader) Vault(ctx context.Context) ([]models.VaultItem, error) {
	snap, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(snap.Vault)
	normalize.SortVault(out)
	return out, nil
}

// Settings returns a copy of the settings map.
func (l *Loader) Settings(ctx context.Context) (models.Settings, error) {
	snap, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return normalize.NormalizeSettings(snap.Settings), nil
}
