package api

import (
	"github.com/veleda/ansuz/internal/models"
	"github.com/veleda/ansuz/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title    string `json:"title" example:"Shopping list"`
	Content  string `json:"content" example:"<p>milk, eggs</p>" validate:"required"`
	FolderID string `json:"folder_id,omitempty"`
	IsPinned bool   `json:"is_pinned,omitempty"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content" validate:"required"`
	FolderID string `json:"folder_id,omitempty"`
}

// CreateFolderRequest is the request body for creating a folder.
type CreateFolderRequest struct {
	Name     string `json:"name" example:"Work" validate:"required"`
	ParentID string `json:"parent_id,omitempty"`
}

// AskRequest is the request body for the question endpoints.
type AskRequest struct {
	Question string `json:"question" example:"when is my flight?" validate:"required"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// FolderListResponse wraps folder listings.
type FolderListResponse struct {
	Folders []models.Folder `json:"folders" validate:"required"`
}

// AskResponse is the completed answer for a question.
type AskResponse struct {
	Answer        string                   `json:"answer" validate:"required"`
	RelevantNotes []models.RetrievalResult `json:"relevant_notes" validate:"required"`
}

// QueryResponse exposes the assembled retrieval output without calling
// the completion backend.
type QueryResponse = models.QueryResult

// EmbeddingStatsResponse reports embedding coverage.
type EmbeddingStatsResponse = models.EmbeddingStats

// RebuildResponse reports how many embeddings a rebuild stored.
type RebuildResponse struct {
	Embedded int `json:"embedded" example:"3" validate:"required"`
}
