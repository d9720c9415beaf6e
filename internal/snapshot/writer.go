// Package snapshot persists the catalog artifact and serves it back to viewers.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
)

// DefaultPath is the artifact location relative to the site root.
const DefaultPath = "data/notion-data.json"

// Writer serializes snapshots into the site directory.
type Writer struct {
	store storage.Provider
	path  string
	now   func() time.Time
}

// NewWriter creates a Writer. An empty path uses DefaultPath.
func NewWriter(store storage.Provider, path string) *Writer {
	if path == "" {
		path = DefaultPath
	}
	return &Writer{store: store, path: path, now: time.Now}
}

// Path returns the site-relative artifact path.
func (w *Writer) Path() string { return w.path }

// Write replaces the artifact atomically. A snapshot without lastUpdated is
// stamped with the current time.
func (w *Writer) Write(snap models.Snapshot) error {
	if snap.LastUpdated == "" {
		snap.LastUpdated = w.now().UTC().Format(models.TimestampLayout)
	}
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := w.store.Write(w.path, data); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", w.path, err)
	}
	return nil
}

// Encode renders a snapshot with two-space indentation. Absent collections are
// written as empty arrays and an empty object, never null.
func Encode(snap models.Snapshot) ([]byte, error) {
	if snap.Projects == nil {
		snap.Projects = []models.Project{}
	}
	if snap.About == nil {
		snap.About = []models.AboutEntry{}
	}
	if snap.Vault == nil {
		snap.Vault = []models.VaultItem{}
	}
	if snap.Settings == nil {
		snap.Settings = models.Settings{}
	}
	for i := range snap.Projects {
		if snap.Projects[i].Tags == nil {
			snap.Projects[i].Tags = []string{}
		}
		if snap.Projects[i].Images == nil {
			snap.Projects[i].Images = []string{}
		}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return append(data, '\n'), nil
}
