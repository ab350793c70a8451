package retrieval

import (
	"context"
	"errors"

	"github.com/veleda/ansuz/internal/apperr"
	"github.com/veleda/ansuz/internal/models"
	"github.com/veleda/ansuz/internal/vectormath"
)

// Embedder turns text into a vector. A nil vector with a nil error
// means the text is unembeddable, which is not a failure.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SemanticRetriever scores notes by cosine similarity between the query
// embedding and each note's stored embedding.
type SemanticRetriever struct {
	notes    NoteSource
	embedder Embedder
}

// NewSemanticRetriever returns a retriever over src using e for query
// embeddings.
func NewSemanticRetriever(src NoteSource, e Embedder) *SemanticRetriever {
	return &SemanticRetriever{notes: src, embedder: e}
}

// FindRelevant embeds the query and ranks stored embeddings by cosine
// similarity. An unembeddable query or an empty embedding store yields
// an empty result, not an error. Embeddings whose note no longer exists
// are dropped, as are vectors whose dimension does not match the query.
func (r *SemanticRetriever) FindRelevant(ctx context.Context, query string, maxResults int) ([]models.RetrievalResult, error) {
	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if queryVec == nil {
		return nil, nil
	}

	embeddings, err := r.notes.AllEmbeddings()
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, nil
	}

	var candidates []models.RetrievalResult
	var scores []float64
	for _, e := range embeddings {
		note, err := r.notes.GetNote(e.NoteID)
		if errors.Is(err, apperr.ErrNotFound) {
			continue // orphan embedding, note was deleted
		}
		if err != nil {
			return nil, err
		}
		score, err := vectormath.CosineSimilarity(queryVec, e.Vector)
		if errors.Is(err, apperr.ErrDimensionMismatch) {
			continue // stored under a different model, skip
		}
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, models.RetrievalResult{Note: note, Score: score})
		scores = append(scores, score)
	}

	results := make([]models.RetrievalResult, 0, min(maxResults, len(candidates)))
	for _, i := range vectormath.TopKIndices(scores, maxResults) {
		results = append(results, candidates[i])
	}
	return results, nil
}
