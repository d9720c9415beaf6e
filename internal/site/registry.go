package site

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/folio/internal/gate"
)

// Registry owns the viewers of all live sessions.
type Registry struct {
	newViewer func(id string) *Viewer
	sessions  gate.SessionStore
	idle      time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	viewers map[string]*entry
}

type entry struct {
	viewer   *Viewer
	lastSeen time.Time
}

// NewRegistry creates a Registry. Viewers unused for idle are expired by Sweep.
// sessions may be nil when flags are not persisted.
func NewRegistry(factory func(id string) *Viewer, sessions gate.SessionStore, idle time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		newViewer: factory,
		sessions:  sessions,
		idle:      idle,
		logger:    logger,
		now:       time.Now,
		viewers:   make(map[string]*entry),
	}
}

// Get returns the viewer of id, creating it on first use.
func (r *Registry) Get(id string) *Viewer {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.viewers[id]
	if !ok {
		e = &entry{viewer: r.newViewer(id)}
		r.viewers[id] = e
	}
	e.lastSeen = r.now()
	return e.viewer
}

// End closes and forgets the viewer of id. Flags of a session with no live
// viewer are cleared from the store directly.
func (r *Registry) End(ctx context.Context, id string) error {
	r.mu.Lock()
	e, ok := r.viewers[id]
	delete(r.viewers, id)
	r.mu.Unlock()
	if ok {
		return e.viewer.Close(ctx)
	}
	if r.sessions == nil {
		return nil
	}
	return r.sessions.Clear(ctx, id)
}

// Sweep expires idle viewers and returns how many were closed.
func (r *Registry) Sweep(ctx context.Context) int {
	if r.idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	var expired []*Viewer
	for id, e := range r.viewers {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.viewer)
			delete(r.viewers, id)
		}
	}
	r.mu.Unlock()

	for _, v := range expired {
		if err := v.Close(ctx); err != nil {
			r.logger.Warn("registry: close viewer failed", slog.String("session", v.ID()), slog.String("error", err.Error()))
		}
	}
	return len(expired)
}

// Refresh tells every viewer a new snapshot landed.
func (r *Registry) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.viewers {
		e.viewer.Refresh()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.viewers)
}

// RunSweeper calls Sweep every interval until ctx ends.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(ctx); n > 0 {
				r.logger.Debug("registry: expired sessions", slog.Int("count", n))
			}
		}
	}
}
