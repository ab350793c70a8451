package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veleda/ansuz/internal/apperr"
	"github.com/veleda/ansuz/internal/models"
	"github.com/veleda/ansuz/internal/textutil"
)

const noteColumns = `id, title, content, folder_id, is_pinned, created_at, updated_at`

// Notes are listed pinned-first, then most recently updated. The keyword
// retriever's recency fallback depends on this ordering.
const noteOrder = `ORDER BY is_pinned DESC, updated_at DESC`

// CreateNote inserts a new note. An empty ID is assigned a fresh UUID and
// an empty title is derived from the content. The persisted note is
// returned.
func (db *DB) CreateNote(n models.Note) (*models.Note, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Title == "" {
		n.Title = textutil.ExtractTitle(n.Content)
	}
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now

	_, err := db.conn.Exec(`
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.Title, n.Content, n.FolderID, boolToInt(n.IsPinned), n.CreatedAt, n.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, fmt.Errorf("store: note %s: %w", n.ID, apperr.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("store: create note: %w", err)
	}
	return &n, nil
}

// GetNote returns the note with the given id.
func (db *DB) GetNote(id string) (*models.Note, error) {
	row := db.conn.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get note: %w", err)
	}
	return n, nil
}

// ListNotes returns every note, pinned-first then by updated_at descending.
func (db *DB) ListNotes() ([]models.Note, error) {
	return db.queryNotes(`SELECT ` + noteColumns + ` FROM notes ` + noteOrder)
}

// ListNotesByFolder returns the notes in a folder with the standard ordering.
func (db *DB) ListNotesByFolder(folderID string) ([]models.Note, error) {
	return db.queryNotes(`SELECT `+noteColumns+` FROM notes WHERE folder_id = ? `+noteOrder, folderID)
}

// UpdateNote replaces a note's content, title, and folder, bumping
// updated_at. An empty title is re-derived from the new content.
func (db *DB) UpdateNote(n models.Note) (*models.Note, error) {
	if n.Title == "" {
		n.Title = textutil.ExtractTitle(n.Content)
	}
	n.UpdatedAt = time.Now().UTC()

	res, err := db.conn.Exec(`
		UPDATE notes SET title = ?, content = ?, folder_id = ?, is_pinned = ?, updated_at = ?
		WHERE id = ?
	`, n.Title, n.Content, n.FolderID, boolToInt(n.IsPinned), n.UpdatedAt, n.ID)
	if err != nil {
		return nil, fmt.Errorf("store: update note: %w", err)
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return nil, fmt.Errorf("store: note %s: %w", n.ID, apperr.ErrNotFound)
	}
	return db.GetNote(n.ID)
}

// DeleteNote removes a note and its embedding.
func (db *DB) DeleteNote(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete note: %w", err)
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	if _, err := tx.Exec(`DELETE FROM embeddings WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete embedding: %w", err)
	}
	return tx.Commit()
}

// TogglePin flips a note's pinned flag and returns the updated note.
// Pinning does not bump updated_at.
func (db *DB) TogglePin(id string) (*models.Note, error) {
	res, err := db.conn.Exec(`UPDATE notes SET is_pinned = 1 - is_pinned WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("store: toggle pin: %w", err)
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return nil, fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	return db.GetNote(id)
}

// SearchNotes returns notes whose title or content contains the query,
// case-insensitively, with the standard ordering.
func (db *DB) SearchNotes(query string) ([]models.Note, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	return db.queryNotes(`
		SELECT `+noteColumns+` FROM notes
		WHERE lower(title) LIKE ? OR lower(content) LIKE ?
		`+noteOrder, pattern, pattern)
}

func (db *DB) queryNotes(q string, args ...any) ([]models.Note, error) {
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	var n models.Note
	var pinned int
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.FolderID, &pinned, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	n.IsPinned = pinned != 0
	return &n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
