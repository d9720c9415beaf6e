// Package testutil provides shared test helpers for site directories, databases and snapshots.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/snapshot"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "folio-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestSite creates a temporary site directory with a storage.FS.
func TestSite(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// WriteSnapshot writes snap to the default artifact path of fs.
func WriteSnapshot(t *testing.T, fs *storage.FS, snap models.Snapshot) {
	t.Helper()
	if err := snapshot.NewWriter(fs, "").Write(snap); err != nil {
		t.Fatal(err)
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
