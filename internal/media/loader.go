// Package media loads the ordered media of an authorized project.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/starford/folio/internal/apperr"
)

// Resource is one loaded media file.
type Resource struct {
	Ref         string `json:"ref"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Checksum    string `json:"checksum"`
}

// Item pairs a loaded resource with the reference it was requested by.
type Item struct {
	Resource Resource `json:"resource"`
	Ref      string   `json:"ref"`
}

// Fetcher loads a single reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (Resource, error)
}

// ProgressFunc receives completion percentages in [0, 100].
type ProgressFunc func(percent int)

// Loader runs one media load at a time. Starting a new load supersedes the
// previous one, which stops at its next check without further callbacks.
type Loader struct {
	fetcher Fetcher
	logger  *slog.Logger
	gen     atomic.Uint64
}

// NewLoader creates a Loader.
func NewLoader(f Fetcher, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{fetcher: f, logger: logger}
}

// Cancel supersedes any load in flight.
func (l *Loader) Cancel() {
	l.gen.Add(1)
}

// Load fetches refs strictly in order. Failed refs are skipped. Progress is
// reported after every attempt. It returns apperr.ErrSuperseded when a newer
// load started or ctx ended, and apperr.ErrNoMedia when nothing loaded.
func (l *Loader) Load(ctx context.Context, refs []string, onProgress ProgressFunc) ([]Item, error) {
	token := l.gen.Add(1)
	stale := func() error {
		if l.gen.Load() != token {
			return apperr.ErrSuperseded
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrSuperseded, err)
		}
		return nil
	}

	total := len(refs)
	items := make([]Item, 0, total)
	for i, ref := range refs {
		if err := stale(); err != nil {
			return nil, err
		}
		res, err := l.fetcher.Fetch(ctx, ref)
		if serr := stale(); serr != nil {
			return nil, serr
		}
		if err != nil {
			l.logger.Warn("media: skipped",
				slog.String("ref", ref),
				slog.String("error", fmt.Errorf("%w: %v", apperr.ErrMediaLoad, err).Error()))
		} else {
			items = append(items, Item{Resource: res, Ref: ref})
		}
		if onProgress != nil {
			onProgress(percent(i+1, total))
		}
	}

	if err := stale(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.ErrNoMedia
	}
	return items, nil
}

func percent(done, total int) int {
	return int(math.Round(float64(done) / float64(total) * 100))
}
