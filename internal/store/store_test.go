package store

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/veleda/ansuz/internal/apperr"
	"github.com/veleda/ansuz/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "ansuz-test-*.db")
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

func mustCreate(t *testing.T, db *DB, n models.Note) *models.Note {
	t.Helper()
	created, err := db.CreateNote(n)
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	return created
}

func TestDefaultFolderSeeded(t *testing.T) {
	db := testDB(t)
	f, err := db.GetFolderByName(DefaultFolderName)
	if err != nil {
		t.Fatalf("default folder missing: %v", err)
	}
	if f.Name != DefaultFolderName {
		t.Errorf("name = %q", f.Name)
	}

	// Reopening must not seed a second default folder.
	folders, err := db.ListFolders()
	if err != nil {
		t.Fatal(err)
	}
	if len(folders) != 1 {
		t.Errorf("got %d folders, want 1", len(folders))
	}
}

func TestCreateNoteDerivesTitle(t *testing.T) {
	db := testDB(t)
	n := mustCreate(t, db, models.Note{Content: "<h1>Shopping</h1><p>milk</p>"})
	if n.Title != "Shopping" {
		t.Errorf("title = %q, want %q", n.Title, "Shopping")
	}
	if n.ID == "" {
		t.Error("id not assigned")
	}

	empty := mustCreate(t, db, models.Note{})
	if empty.Title != "Untitled" {
		t.Errorf("empty note title = %q, want Untitled", empty.Title)
	}
}

func TestListNotesOrdering(t *testing.T) {
	db := testDB(t)
	old := mustCreate(t, db, models.Note{Title: "old"})
	time.Sleep(5 * time.Millisecond)
	pinned := mustCreate(t, db, models.Note{Title: "pinned"})
	time.Sleep(5 * time.Millisecond)
	recent := mustCreate(t, db, models.Note{Title: "recent"})

	if _, err := db.TogglePin(pinned.ID); err != nil {
		t.Fatalf("TogglePin: %v", err)
	}

	notes, err := db.ListNotes()
	if err != nil {
		t.Fatal(err)
	}
	got := []string{notes[0].ID, notes[1].ID, notes[2].ID}
	want := []string{pinned.ID, recent.ID, old.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestUpdateNoteBumpsTimestamp(t *testing.T) {
	db := testDB(t)
	n := mustCreate(t, db, models.Note{Title: "before", Content: "x"})
	before := n.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	n.Content = "y"
	updated, err := db.UpdateNote(*n)
	if err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if !updated.UpdatedAt.After(before) {
		t.Errorf("updated_at not bumped: %v -> %v", before, updated.UpdatedAt)
	}

	_, err = db.UpdateNote(models.Note{ID: "missing", Content: "z"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteNoteCascadesEmbedding(t *testing.T) {
	db := testDB(t)
	n := mustCreate(t, db, models.Note{Title: "doomed"})
	if err := db.PutEmbedding(n.ID, []float32{1, 2, 3}); err != nil {
		t.Fatalf("PutEmbedding: %v", err)
	}
	if err := db.DeleteNote(n.ID); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := db.GetNote(n.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("note still present: %v", err)
	}
	if _, err := db.GetEmbedding(n.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("embedding survived delete: %v", err)
	}
}

func TestSearchNotes(t *testing.T) {
	db := testDB(t)
	mustCreate(t, db, models.Note{Title: "Budget 2024", Content: "quarterly review"})
	mustCreate(t, db, models.Note{Title: "Recipes", Content: "pasta"})

	hits, err := db.SearchNotes("BUDGET")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Title != "Budget 2024" {
		t.Errorf("got %v", hits)
	}

	hits, err = db.SearchNotes("pasta")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Title != "Recipes" {
		t.Errorf("content search failed: %v", hits)
	}
}

func TestDeleteFolderReassignsNotes(t *testing.T) {
	db := testDB(t)
	def, _ := db.GetFolderByName(DefaultFolderName)
	f, err := db.CreateFolder(models.Folder{Name: "Work"})
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	n := mustCreate(t, db, models.Note{Title: "task", FolderID: f.ID})

	if err := db.DeleteFolder(f.ID); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}
	moved, err := db.GetNote(n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if moved.FolderID != def.ID {
		t.Errorf("folder_id = %q, want default %q", moved.FolderID, def.ID)
	}

	if err := db.DeleteFolder(def.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("deleting default folder: %v", err)
	}
}

func TestEmbeddingRoundTrip(t *testing.T) {
	db := testDB(t)
	n := mustCreate(t, db, models.Note{Title: "vec"})

	if err := db.PutEmbedding(n.ID, []float32{0.1, 0.2}); err != nil {
		t.Fatal(err)
	}
	e, err := db.GetEmbedding(n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(e.Vector) != 2 || e.Vector[1] != 0.2 {
		t.Errorf("vector = %v", e.Vector)
	}

	// Upsert overwrites.
	if err := db.PutEmbedding(n.ID, []float32{9}); err != nil {
		t.Fatal(err)
	}
	e, _ = db.GetEmbedding(n.ID)
	if len(e.Vector) != 1 || e.Vector[0] != 9 {
		t.Errorf("upsert did not overwrite: %v", e.Vector)
	}

	// Deleting twice is fine.
	if err := db.DeleteEmbedding(n.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteEmbedding(n.ID); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestMissingEmbeddingsIncludesStale(t *testing.T) {
	db := testDB(t)
	fresh := mustCreate(t, db, models.Note{Title: "fresh"})
	stale := mustCreate(t, db, models.Note{Title: "stale", Content: "v1"})
	bare := mustCreate(t, db, models.Note{Title: "bare"})

	if err := db.PutEmbedding(stale.ID, []float32{1}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	stale.Content = "v2"
	if _, err := db.UpdateNote(*stale); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := db.PutEmbedding(fresh.ID, []float32{1}); err != nil {
		t.Fatal(err)
	}

	missing, err := db.MissingEmbeddings()
	if err != nil {
		t.Fatal(err)
	}
	ids := map[string]bool{}
	for _, n := range missing {
		ids[n.ID] = true
	}
	if !ids[stale.ID] {
		t.Error("stale embedding not reported as missing")
	}
	if !ids[bare.ID] {
		t.Error("unembedded note not reported as missing")
	}
	if ids[fresh.ID] {
		t.Error("fresh embedding reported as missing")
	}

	stats, err := db.EmbeddingStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalNotes != 3 || stats.EmbeddedNotes != 1 || stats.MissingNotes != 2 {
		t.Errorf("stats = %+v", stats)
	}
}
