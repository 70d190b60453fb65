// Package testutil provides shared test helpers for setting up task
// documents and index databases.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/starford/orgtasks/internal/document"
	"github.com/starford/orgtasks/internal/index"
	"github.com/starford/orgtasks/internal/storage"
)

// DocName is the file name TestDocument writes.
const DocName = "tasks.org"

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "orgtasks-test-*.db")
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

// TestDocument writes content to a temporary tasks.org and returns a
// handle to it plus the storage root.
func TestDocument(t *testing.T, content string) (*document.Document, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Write(DocName, []byte(content)); err != nil {
		t.Fatal(err)
	}
	return document.New(store, DocName), dir
}

// Clock returns a fixed time source. The reference instant is Friday
// 2026-02-20 09:30 local time.
func Clock() func() time.Time {
	ref := time.Date(2026, 2, 20, 9, 30, 0, 0, time.Local)
	return func() time.Time { return ref }
}
