package retrieval

import (
	"context"
	"fmt"
	"testing"

	"github.com/veleda/ansuz/internal/apperr"
	"github.com/veleda/ansuz/internal/models"
)

type fakeSource struct {
	notes      []models.Note
	embeddings []models.Embedding
}

func (f *fakeSource) ListNotes() ([]models.Note, error) { return f.notes, nil }

func (f *fakeSource) GetNote(id string) (*models.Note, error) {
	for i := range f.notes {
		if f.notes[i].ID == id {
			return &f.notes[i], nil
		}
	}
	return nil, fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
}

func (f *fakeSource) AllEmbeddings() ([]models.Embedding, error) { return f.embeddings, nil }

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vec, f.err
}

func TestKeywordTitleWeighting(t *testing.T) {
	src := &fakeSource{notes: []models.Note{
		{ID: "a", Title: "meeting agenda", Content: "sprint planning"},
		{ID: "b", Title: "groceries", Content: "weekly meeting follow-up"},
		{ID: "c", Title: "recipes", Content: "pasta"},
	}}
	r := NewKeywordRetriever(src)

	results, err := r.FindRelevant(context.Background(), "meeting notes project", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Note.ID != "a" {
		t.Errorf("title match should rank first, got %s", results[0].Note.ID)
	}
	// One title hit at weight 3 against one content hit at weight 1,
	// both normalized by three keywords.
	if results[0].Score != 3*results[1].Score {
		t.Errorf("scores %v and %v, want 3x ratio", results[0].Score, results[1].Score)
	}
}

func TestKeywordRecencyFallback(t *testing.T) {
	src := &fakeSource{notes: []models.Note{
		{ID: "a", Title: "alpha"},
		{ID: "b", Title: "beta"},
		{ID: "c", Title: "gamma"},
	}}
	r := NewKeywordRetriever(src)

	results, err := r.FindRelevant(context.Background(), "zzz unmatched query", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want all 3 notes", len(results))
	}
	for i, res := range results {
		if res.Score != 0.5 {
			t.Errorf("result %d score = %v, want 0.5", i, res.Score)
		}
		if res.Note.ID != src.notes[i].ID {
			t.Errorf("fallback order changed: got %s at %d", res.Note.ID, i)
		}
	}
}

func TestKeywordEmptyStore(t *testing.T) {
	r := NewKeywordRetriever(&fakeSource{})
	results, err := r.FindRelevant(context.Background(), "anything", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("got %v, want empty", results)
	}
}

func TestKeywordShortTokensIgnored(t *testing.T) {
	src := &fakeSource{notes: []models.Note{
		{ID: "a", Title: "go is ok", Content: "it"},
	}}
	r := NewKeywordRetriever(src)

	// Every token is two characters or less, so no keyword survives and
	// the fallback kicks in.
	results, err := r.FindRelevant(context.Background(), "go is it", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Score != 0.5 {
		t.Errorf("got %v, want single fallback result", results)
	}
}

func TestKeywordMaxResults(t *testing.T) {
	var notes []models.Note
	for i := 0; i < 10; i++ {
		notes = append(notes, models.Note{ID: fmt.Sprintf("n%d", i), Title: "budget", Content: "budget"})
	}
	r := NewKeywordRetriever(&fakeSource{notes: notes})

	results, err := r.FindRelevant(context.Background(), "budget", 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Errorf("got %d results, want 4", len(results))
	}
}

func TestSemanticRanking(t *testing.T) {
	src := &fakeSource{
		notes: []models.Note{
			{ID: "a", Title: "aligned"},
			{ID: "b", Title: "orthogonal"},
		},
		embeddings: []models.Embedding{
			{NoteID: "a", Vector: []float32{1, 0}},
			{NoteID: "b", Vector: []float32{0, 1}},
		},
	}
	r := NewSemanticRetriever(src, &fakeEmbedder{vec: []float32{1, 0}})

	results, err := r.FindRelevant(context.Background(), "q", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Note.ID != "a" || results[0].Score <= results[1].Score {
		t.Errorf("ranking wrong: %+v", results)
	}
}

func TestSemanticOrphanAndMismatchDropped(t *testing.T) {
	src := &fakeSource{
		notes: []models.Note{{ID: "a", Title: "kept"}},
		embeddings: []models.Embedding{
			{NoteID: "a", Vector: []float32{1, 0}},
			{NoteID: "gone", Vector: []float32{1, 0}},
			{NoteID: "a", Vector: []float32{1, 0, 0}},
		},
	}
	r := NewSemanticRetriever(src, &fakeEmbedder{vec: []float32{1, 0}})

	results, err := r.FindRelevant(context.Background(), "q", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Note.ID != "a" {
		t.Errorf("got %+v, want just note a", results)
	}
}

func TestSemanticUnembeddableQuery(t *testing.T) {
	src := &fakeSource{
		notes:      []models.Note{{ID: "a"}},
		embeddings: []models.Embedding{{NoteID: "a", Vector: []float32{1}}},
	}
	r := NewSemanticRetriever(src, &fakeEmbedder{vec: nil})

	results, err := r.FindRelevant(context.Background(), "", 5)
	if err != nil {
		t.Fatal(err)
	}
	if results != nil {
		t.Errorf("got %v, want nil for unembeddable query", results)
	}
}

func TestSemanticEmptyIndex(t *testing.T) {
	r := NewSemanticRetriever(&fakeSource{notes: []models.Note{{ID: "a"}}}, &fakeEmbedder{vec: []float32{1}})
	results, err := r.FindRelevant(context.Background(), "q", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("got %v", results)
	}
}
