// Package retrieval ranks notes by relevance to a query. Two strategies
// are provided: keyword scoring, which needs no model and is the
// default, and semantic scoring over stored embeddings.
package retrieval

import (
	"context"

	"github.com/veleda/ansuz/internal/models"
)

// Retriever finds the notes most relevant to a query, best first, at
// most maxResults of them.
type Retriever interface {
	FindRelevant(ctx context.Context, query string, maxResults int) ([]models.RetrievalResult, error)
}

// NoteSource is the slice of the store the retrievers read from.
type NoteSource interface {
	ListNotes() ([]models.Note, error)
	GetNote(id string) (*models.Note, error)
	AllEmbeddings() ([]models.Embedding, error)
}
