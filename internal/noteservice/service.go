// Package noteservice coordinates store operations for the API and MCP
// surfaces.
package noteservice

import (
	"context"
	"time"

	"github.com/veleda/ansuz/internal/models"
	"github.com/veleda/ansuz/internal/store"
	"github.com/veleda/ansuz/internal/textutil"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	FolderID  string    `json:"folder_id,omitempty"`
	IsPinned  bool      `json:"is_pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response. Preview is the
// stripped, truncated body.
type NoteListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Preview   string    `json:"preview"`
	FolderID  string    `json:"folder_id,omitempty"`
	IsPinned  bool      `json:"is_pinned"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates store operations.
type Service struct {
	db *store.DB
}

// NewService creates a new note service.
func NewService(db *store.DB) *Service {
	return &Service{db: db}
}

// GetNote returns the full note.
func (s *Service) GetNote(_ context.Context, id string) (*NoteDetail, error) {
	n, err := s.db.GetNote(id)
	if err != nil {
		return nil, err
	}
	return detail(n), nil
}

// CreateNote persists a new note. With no folder given the note lands
// in the default folder; an explicit folder must exist.
func (s *Service) CreateNote(_ context.Context, title, content, folderID string, pinned bool) (*NoteDetail, error) {
	if folderID == "" {
		def, err := s.db.GetFolderByName(store.DefaultFolderName)
		if err != nil {
			return nil, err
		}
		folderID = def.ID
	} else if _, err := s.db.GetFolder(folderID); err != nil {
		return nil, err
	}
	n, err := s.db.CreateNote(models.Note{
		Title:    title,
		Content:  content,
		FolderID: folderID,
		IsPinned: pinned,
	})
	if err != nil {
		return nil, err
	}
	return detail(n), nil
}

// UpdateNote replaces a note's title, content, and folder.
func (s *Service) UpdateNote(_ context.Context, id, title, content, folderID string) (*NoteDetail, error) {
	existing, err := s.db.GetNote(id)
	if err != nil {
		return nil, err
	}
	existing.Title = title
	existing.Content = content
	if folderID != "" && folderID != existing.FolderID {
		if _, err := s.db.GetFolder(folderID); err != nil {
			return nil, err
		}
		existing.FolderID = folderID
	}
	n, err := s.db.UpdateNote(*existing)
	if err != nil {
		return nil, err
	}
	return detail(n), nil
}

// DeleteNote removes a note together with its embedding.
func (s *Service) DeleteNote(_ context.Context, id string) error {
	return s.db.DeleteNote(id)
}

// TogglePin flips a note's pinned flag.
func (s *Service) TogglePin(_ context.Context, id string) (*NoteDetail, error) {
	n, err := s.db.TogglePin(id)
	if err != nil {
		return nil, err
	}
	return detail(n), nil
}

// ListNotes returns all notes, optionally scoped to a folder,
// pinned-first then most recently updated.
func (s *Service) ListNotes(_ context.Context, folderID string) ([]NoteListItem, error) {
	var notes []models.Note
	var err error
	if folderID != "" {
		notes, err = s.db.ListNotesByFolder(folderID)
	} else {
		notes, err = s.db.ListNotes()
	}
	if err != nil {
		return nil, err
	}
	return listItems(notes), nil
}

// Search returns notes matching the query in title or content.
func (s *Service) Search(_ context.Context, query string) ([]NoteListItem, error) {
	notes, err := s.db.SearchNotes(query)
	if err != nil {
		return nil, err
	}
	return listItems(notes), nil
}

// ListFolders returns every folder.
func (s *Service) ListFolders(_ context.Context) ([]models.Folder, error) {
	folders, err := s.db.ListFolders()
	if err != nil {
		return nil, err
	}
	if folders == nil {
		folders = []models.Folder{}
	}
	return folders, nil
}

// CreateFolder adds a folder.
func (s *Service) CreateFolder(_ context.Context, name, parentID string) (*models.Folder, error) {
	return s.db.CreateFolder(models.Folder{Name: name, ParentID: parentID})
}

// DeleteFolder removes a folder, moving its notes to the default folder.
func (s *Service) DeleteFolder(_ context.Context, id string) error {
	return s.db.DeleteFolder(id)
}

func detail(n *models.Note) *NoteDetail {
	return &NoteDetail{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		FolderID:  n.FolderID,
		IsPinned:  n.IsPinned,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func listItems(notes []models.Note) []NoteListItem {
	items := make([]NoteListItem, len(notes))
	for i, n := range notes {
		items[i] = NoteListItem{
			ID:        n.ID,
			Title:     n.Title,
			Preview:   textutil.Preview(n.Content, 0),
			FolderID:  n.FolderID,
			IsPinned:  n.IsPinned,
			UpdatedAt: n.UpdatedAt,
		}
	}
	return items
}
