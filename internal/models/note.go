// Package models defines the domain types for Ansuz.
package models

import "time"

// Note is a single user note. Content may contain Markdown or HTML
// fragments; retrieval and previews work on the stripped text.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	FolderID  string    `json:"folder_id,omitempty"`
	IsPinned  bool      `json:"is_pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Folder groups notes. ParentID is empty for top-level folders.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Embedding is the stored vector for a note. UpdatedAt records when the
// vector was computed; a note edited after that time has a stale embedding.
type Embedding struct {
	NoteID    string    `json:"note_id"`
	Vector    []float32 `json:"vector"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RetrievalResult pairs a note with its relevance score for a query.
// Score is in [0, 1] for semantic results; keyword scores are unbounded
// above zero.
type RetrievalResult struct {
	Note  *Note   `json:"note"`
	Score float64 `json:"score"`
}

// QueryResult is the assembled retrieval output, ready to send to a
// completion provider.
type QueryResult struct {
	Prompt        string            `json:"prompt"`
	Context       string            `json:"context"`
	RelevantNotes []RetrievalResult `json:"relevant_notes"`
	Question      string            `json:"question"`
	NoNotesFound  bool              `json:"no_notes_found"`
}

// ChatAnswer is a completed question round trip.
type ChatAnswer struct {
	Question      string            `json:"question"`
	Answer        string            `json:"answer"`
	RelevantNotes []RetrievalResult `json:"relevant_notes"`
	AnsweredAt    time.Time         `json:"answered_at"`
}

// EmbeddingStats summarizes index coverage.
type EmbeddingStats struct {
	TotalNotes    int `json:"total_notes"`
	EmbeddedNotes int `json:"embedded_notes"`
	MissingNotes  int `json:"missing_notes"`
}
