package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/veleda/ansuz/internal/models"
	"github.com/veleda/ansuz/internal/textutil"
)

const (
	titleWeight   = 3
	contentWeight = 1

	// fallbackScore marks results returned by the recency fallback, when
	// no keyword matched but notes exist.
	fallbackScore = 0.5
)

// KeywordRetriever scores notes by keyword occurrence counts. It works
// offline with no model dependency.
type KeywordRetriever struct {
	notes NoteSource
}

// NewKeywordRetriever returns a retriever reading notes from src.
func NewKeywordRetriever(src NoteSource) *KeywordRetriever {
	return &KeywordRetriever{notes: src}
}

// FindRelevant ranks notes by weighted keyword occurrences: title hits
// count three times as much as content hits, and the raw score is
// normalized by the keyword count. When nothing matches but notes
// exist, the most recent maxResults notes are returned at a sentinel
// score so the caller is never left without context.
func (r *KeywordRetriever) FindRelevant(_ context.Context, query string, maxResults int) ([]models.RetrievalResult, error) {
	notes, err := r.notes.ListNotes()
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, nil
	}

	keywords := tokenize(query)

	var results []models.RetrievalResult
	for i := range notes {
		n := &notes[i]
		score := scoreNote(n, keywords)
		if score > 0 {
			results = append(results, models.RetrievalResult{Note: n, Score: score})
		}
	}

	if len(results) == 0 {
		// Recency fallback: notes arrive pinned-first then most recently
		// updated, so the head of the list is the freshest context.
		n := min(maxResults, len(notes))
		results = make([]models.RetrievalResult, 0, n)
		for i := 0; i < n; i++ {
			results = append(results, models.RetrievalResult{Note: &notes[i], Score: fallbackScore})
		}
		return results, nil
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// tokenize lowercases the query, splits on whitespace, and drops tokens
// of length two or less.
func tokenize(query string) []string {
	var out []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(tok)) > 2 {
			out = append(out, tok)
		}
	}
	return out
}

func scoreNote(n *models.Note, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	title := strings.ToLower(n.Title)
	content := strings.ToLower(textutil.StripHTML(n.Content))

	var raw float64
	for _, kw := range keywords {
		raw += float64(strings.Count(title, kw) * titleWeight)
		raw += float64(strings.Count(content, kw) * contentWeight)
	}
	return raw / float64(len(keywords))
}
