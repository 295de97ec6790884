package index

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/mutate"
	"github.com/starford/raido/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRows(docID, path, project string) (DocRow, []ItemRow) {
	now := time.Date(2025, 12, 3, 10, 0, 0, 0, time.UTC)
	doc := DocRow{
		Path:      path,
		DocID:     docID,
		Title:     project + " request log",
		ProjectID: project,
		ItemCount: 1,
		Tags:      []string{"server"},
		Checksum:  "cs-" + docID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	items := []ItemRow{{
		ItemID:    docID + "-01",
		DocPath:   path,
		DocID:     docID,
		Title:     "login fails on refresh",
		Type:      "bug",
		Domain:    "api",
		Context:   "web",
		Priority:  "high",
		Status:    "open",
		Tags:      []string{"auth"},
		Notes:     "token not renewed after expiry",
		CreatedAt: now,
	}}
	return doc, items
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM items`).Scan(&count); err != nil {
		t.Fatalf("items table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	doc, items := sampleRows("REQ-20251203-alpha", "alpha/REQ-20251203-alpha.md", "alpha")
	if err := db.UpsertDoc(doc, items); err != nil {
		t.Fatalf("UpsertDoc: %v", err)
	}
	cs, err := db.GetChecksum(doc.Path)
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != doc.Checksum {
		t.Errorf("checksum = %q, want %q", cs, doc.Checksum)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestResolvePath(t *testing.T) {
	db := testDB(t)
	doc, items := sampleRows("REQ-20251203-alpha", "alpha/REQ-20251203-alpha.md", "alpha")
	if err := db.UpsertDoc(doc, items); err != nil {
		t.Fatal(err)
	}

	path, err := db.ResolvePath("REQ-20251203-alpha")
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if path != doc.Path {
		t.Errorf("path = %q, want %q", path, doc.Path)
	}

	_, err = db.ResolvePath("REQ-20251203-missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteDoc(t *testing.T) {
	db := testDB(t)
	doc, items := sampleRows("REQ-20251203-alpha", "alpha/REQ-20251203-alpha.md", "alpha")
	_ = db.UpsertDoc(doc, items)

	if err := db.DeleteDoc(doc.Path); err != nil {
		t.Fatalf("DeleteDoc: %v", err)
	}
	cs, _ := db.GetChecksum(doc.Path)
	if cs != "" {
		t.Errorf("deleted document still has checksum %q", cs)
	}
	var count int
	_ = db.conn.QueryRow(`SELECT count(*) FROM items WHERE doc_path = ?`, doc.Path).Scan(&count)
	if count != 0 {
		t.Errorf("expected 0 item rows after delete, got %d", count)
	}
}

func TestUpsertReplacesItems(t *testing.T) {
	db := testDB(t)
	doc, items := sampleRows("REQ-20251203-alpha", "alpha/REQ-20251203-alpha.md", "alpha")
	_ = db.UpsertDoc(doc, items)

	items[0].Title = "renamed"
	extra := items[0]
	extra.ItemID = doc.DocID + "-02"
	extra.Type = "enhancement"
	doc.ItemCount = 2
	doc.Checksum = "cs-v2"
	if err := db.UpsertDoc(doc, append(items, extra)); err != nil {
		t.Fatalf("second UpsertDoc: %v", err)
	}

	cs, _ := db.GetChecksum(doc.Path)
	if cs != "cs-v2" {
		t.Errorf("checksum = %q, want cs-v2", cs)
	}
	var count int
	_ = db.conn.QueryRow(`SELECT count(*) FROM items WHERE doc_path = ?`, doc.Path).Scan(&count)
	if count != 2 {
		t.Errorf("expected 2 item rows, got %d", count)
	}
	var title string
	_ = db.conn.QueryRow(`SELECT title FROM items WHERE doc_path = ? AND item_id = ?`, doc.Path, doc.DocID+"-01").Scan(&title)
	if title != "renamed" {
		t.Errorf("item title = %q, want renamed", title)
	}
}

func TestListDocs_Filters(t *testing.T) {
	db := testDB(t)

	a, aItems := sampleRows("REQ-20251201-alpha", "alpha/REQ-20251201-alpha.md", "alpha")
	a.Tags = []string{"server"}
	b, bItems := sampleRows("REQ-20251202-beta", "beta/REQ-20251202-beta.md", "beta")
	b.Tags = []string{"ui"}
	bItems[0].Type = "enhancement"
	for _, pair := range []struct {
		doc   DocRow
		items []ItemRow
	}{{a, aItems}, {b, bItems}} {
		if err := db.UpsertDoc(pair.doc, pair.items); err != nil {
			t.Fatal(err)
		}
	}

	docs, total, err := db.ListDocs(ListQuery{Project: "alpha"})
	if err != nil {
		t.Fatalf("ListDocs by project: %v", err)
	}
	if total != 1 || len(docs) != 1 || docs[0].DocID != "REQ-20251201-alpha" {
		t.Errorf("project filter: total=%d docs=%+v", total, docs)
	}

	docs, total, err = db.ListDocs(ListQuery{Tag: "ui"})
	if err != nil {
		t.Fatalf("ListDocs by tag: %v", err)
	}
	if total != 1 || docs[0].DocID != "REQ-20251202-beta" {
		t.Errorf("tag filter: total=%d docs=%+v", total, docs)
	}

	docs, total, err = db.ListDocs(ListQuery{Type: "enhancement"})
	if err != nil {
		t.Fatalf("ListDocs by type: %v", err)
	}
	if total != 1 || docs[0].DocID != "REQ-20251202-beta" {
		t.Errorf("type filter: total=%d docs=%+v", total, docs)
	}
}

func TestListDocs_SortAndPagination(t *testing.T) {
	db := testDB(t)
	base := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"alpha", "beta", "gamma"} {
		doc, items := sampleRows("REQ-2025120"+string(rune('1'+i))+"-"+name, name+".md", name)
		doc.UpdatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := db.UpsertDoc(doc, items); err != nil {
			t.Fatal(err)
		}
	}

	docs, total, err := db.ListDocs(ListQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if docs[0].ProjectID != "gamma" {
		t.Errorf("default sort should be updated_at DESC, got first=%s", docs[0].ProjectID)
	}

	docs, total, err = db.ListDocs(ListQuery{Sort: "title", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Errorf("paginated total = %d, want 3", total)
	}
	if len(docs) != 2 || docs[0].ProjectID != "beta" {
		t.Errorf("pagination: docs=%+v", docs)
	}

	if _, _, err := db.ListDocs(ListQuery{Sort: "checksum"}); err == nil {
		t.Error("unknown sort field accepted")
	}
}

func TestAllPathsAndChecksums(t *testing.T) {
	db := testDB(t)
	a, aItems := sampleRows("REQ-20251201-alpha", "a.md", "alpha")
	b, bItems := sampleRows("REQ-20251202-beta", "b.md", "beta")
	_ = db.UpsertDoc(a, aItems)
	_ = db.UpsertDoc(b, bItems)

	paths, err := db.AllPaths()
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Errorf("paths = %v", paths)
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		t.Fatal(err)
	}
	if checksums["a.md"] != a.Checksum || checksums["b.md"] != b.Checksum {
		t.Errorf("checksums = %v", checksums)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	doc, items := sampleRows("REQ-20251203-alpha", "alpha.md", "alpha")
	items[0].Notes = "uniqueword appears here"
	_ = db.UpsertDoc(doc, items)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ItemID != doc.DocID+"-01" {
		t.Errorf("search results = %+v, want 1 hit for %s-01", results, doc.DocID)
	}
}

// --- Sync tests ---

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fixedNow() time.Time {
	return time.Date(2025, 12, 3, 10, 0, 0, 0, time.UTC)
}

// docBytes builds a serialized document with one item for sync tests.
func docBytes(t *testing.T, project string) []byte {
	t.Helper()
	doc, err := mutate.NewDocument(project, "", fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	doc, err = mutate.ApplyAppend(doc, models.ItemDraft{
		Title: "first request", Type: "bug", Domain: "api", Context: "web",
		Priority: "high", Status: "open", Notes: "searchable body text",
	}, fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	return frontmatter.Serialize(doc)
}

func TestSync_IndexesAndRemovesStale(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Write("alpha/doc.md", docBytes(t, "alpha")); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	cs, _ := db.GetChecksum("alpha/doc.md")
	if cs == "" {
		t.Fatal("document not indexed by sync")
	}
	if _, err := db.ResolvePath("REQ-20251203-alpha"); err != nil {
		t.Errorf("doc_id not resolvable after sync: %v", err)
	}

	if err := store.Delete("alpha/doc.md"); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatal(err)
	}
	cs, _ = db.GetChecksum("alpha/doc.md")
	if cs != "" {
		t.Error("stale entry not removed by sync")
	}
}

func TestSync_SkipsCorruptFiles(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Write("good.md", docBytes(t, "alpha")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.md"), []byte("not a document"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync should not fail on corrupt files: %v", err)
	}
	if cs, _ := db.GetChecksum("good.md"); cs == "" {
		t.Error("good document not indexed")
	}
	if cs, _ := db.GetChecksum("bad.md"); cs != "" {
		t.Error("corrupt file should not be indexed")
	}
}
