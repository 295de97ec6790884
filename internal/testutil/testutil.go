// Package testutil provides shared test helpers for setting up document
// stores, registries, and databases.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/registry"
	"github.com/starford/raido/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary document store directory with a storage.Provider.
func TestStore(t *testing.T) (string, storage.Provider) {
	t.Helper()
	storeDir := t.TempDir()
	store, err := storage.NewFS(storeDir)
	if err != nil {
		t.Fatal(err)
	}
	return storeDir, store
}

// TestRegistry creates a temporary registry pre-seeded with the given projects.
func TestRegistry(t *testing.T, projects ...string) *registry.Store {
	t.Helper()
	reg, err := registry.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := func() time.Time { return time.Date(2025, 12, 3, 10, 0, 0, 0, time.UTC) }
	for _, name := range projects {
		if _, err := reg.AddProject(name, now); err != nil {
			t.Fatal(err)
		}
	}
	return reg
}
