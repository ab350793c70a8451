// Package chat orchestrates retrieval-augmented answering over the
// note store.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/veleda/ansuz/internal/ai"
	"github.com/veleda/ansuz/internal/apperr"
	"github.com/veleda/ansuz/internal/models"
	"github.com/veleda/ansuz/internal/prompt"
	"github.com/veleda/ansuz/internal/retrieval"
	"github.com/veleda/ansuz/internal/textutil"
)

// Store is the persistence surface the engine needs.
type Store interface {
	GetNote(id string) (*models.Note, error)
	MissingEmbeddings() ([]models.Note, error)
	PutEmbedding(noteID string, vector []float32) error
	EmbeddingStats() (*models.EmbeddingStats, error)
}

// Completer produces text for a prompt and vectors for note content.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts ai.CompletionOptions) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config tunes the engine.
type Config struct {
	MaxContextNotes int
	MaxTokens       int
	Temperature     float64
}

// Engine ties a retriever, the store, and a completion backend into the
// question-answering flow.
type Engine struct {
	store     Store
	retriever retrieval.Retriever
	ai        Completer
	cfg       Config
	log       *slog.Logger

	// seq orders overlapping Ask calls so a slow early answer cannot
	// overwrite a later one.
	seq atomic.Int64
}

// NewEngine builds an engine. MaxContextNotes defaults to 5.
func NewEngine(store Store, retriever retrieval.Retriever, completer Completer, cfg Config, log *slog.Logger) *Engine {
	if cfg.MaxContextNotes <= 0 {
		cfg.MaxContextNotes = 5
	}
	return &Engine{
		store:     store,
		retriever: retriever,
		ai:        completer,
		cfg:       cfg,
		log:       log,
	}
}

// Query retrieves relevant notes and assembles the completion prompt.
// It never calls the completion backend, so it stays cheap and
// deterministic for a given store state.
func (e *Engine) Query(ctx context.Context, question string) (*models.QueryResult, error) {
	results, err := e.retriever.FindRelevant(ctx, question, e.cfg.MaxContextNotes)
	if err != nil {
		return nil, fmt.Errorf("chat: retrieve: %w", err)
	}
	if len(results) == 0 {
		return &models.QueryResult{
			Prompt:        prompt.CreateNoNotes(question),
			Context:       "",
			RelevantNotes: []models.RetrievalResult{},
			Question:      question,
			NoNotesFound:  true,
		}, nil
	}

	contextBlock := prompt.BuildContext(results)
	return &models.QueryResult{
		Prompt:        prompt.Create(question, contextBlock),
		Context:       contextBlock,
		RelevantNotes: results,
		Question:      question,
	}, nil
}

// Ask runs Query and sends the prompt to the completion backend. When
// Ask calls overlap, only the most recently issued one may return an
// answer; earlier calls finish with ErrSuperseded.
func (e *Engine) Ask(ctx context.Context, question string) (*models.ChatAnswer, error) {
	seq := e.seq.Add(1)

	qr, err := e.Query(ctx, question)
	if err != nil {
		return nil, err
	}

	answer, err := e.ai.Complete(ctx, qr.Prompt, ai.CompletionOptions{
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: complete: %w", err)
	}

	if e.seq.Load() != seq {
		return nil, apperr.ErrSuperseded
	}

	return &models.ChatAnswer{
		Question:      question,
		Answer:        answer,
		RelevantNotes: qr.RelevantNotes,
		AnsweredAt:    time.Now().UTC(),
	}, nil
}

// EmbedNote computes and stores the embedding for one note. A note with
// no embeddable text is skipped without error; the return value reports
// whether a vector was stored.
func (e *Engine) EmbedNote(ctx context.Context, noteID string) (bool, error) {
	note, err := e.store.GetNote(noteID)
	if err != nil {
		return false, err
	}
	vec, err := e.ai.Embed(ctx, embeddingText(note))
	if err != nil {
		return false, fmt.Errorf("chat: embed note %s: %w", noteID, err)
	}
	if vec == nil {
		return false, nil
	}
	if err := e.store.PutEmbedding(noteID, vec); err != nil {
		return false, err
	}
	return true, nil
}

// EmbedMissing embeds every note whose vector is absent or stale, one
// at a time to keep resource usage bounded when the model runs locally.
// It returns the number of vectors stored.
func (e *Engine) EmbedMissing(ctx context.Context) (int, error) {
	notes, err := e.store.MissingEmbeddings()
	if err != nil {
		return 0, err
	}
	stored := 0
	for _, n := range notes {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		ok, err := e.EmbedNote(ctx, n.ID)
		if err != nil {
			return stored, err
		}
		if ok {
			stored++
		}
	}
	if stored > 0 {
		e.log.Info("embedded notes",
			slog.Int("count", stored),
			slog.Int("candidates", len(notes)))
	}
	return stored, nil
}

// Stats reports embedding coverage.
func (e *Engine) Stats() (*models.EmbeddingStats, error) {
	return e.store.EmbeddingStats()
}

// embeddingText is what gets vectorized for a note: the title plus the
// stripped body, so both contribute to semantic matches.
func embeddingText(n *models.Note) string {
	body := textutil.StripHTML(n.Content)
	if body == "" {
		return n.Title
	}
	return n.Title + "\n\n" + body
}
