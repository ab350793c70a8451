package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/veleda/ansuz/internal/apperr"
	"github.com/veleda/ansuz/internal/models"
)

// PutEmbedding upserts a note's vector, stamping updated_at to now.
func (db *DB) PutEmbedding(noteID string, vector []float32) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("store: marshal vector: %w", err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO embeddings (note_id, vector, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(note_id) DO UPDATE SET
			vector     = excluded.vector,
			updated_at = excluded.updated_at
	`, noteID, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: put embedding: %w", err)
	}
	return nil
}

// GetEmbedding returns the stored vector for a note.
func (db *DB) GetEmbedding(noteID string) (*models.Embedding, error) {
	var e models.Embedding
	var data string
	err := db.conn.QueryRow(`
		SELECT note_id, vector, updated_at FROM embeddings WHERE note_id = ?
	`, noteID).Scan(&e.NoteID, &data, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: embedding %s: %w", noteID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get embedding: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &e.Vector); err != nil {
		return nil, fmt.Errorf("store: unmarshal vector: %w", err)
	}
	return &e, nil
}

// AllEmbeddings returns every stored embedding in insertion order.
func (db *DB) AllEmbeddings() ([]models.Embedding, error) {
	rows, err := db.conn.Query(`SELECT note_id, vector, updated_at FROM embeddings ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("store: query embeddings: %w", err)
	}
	defer rows.Close()

	var out []models.Embedding
	for rows.Next() {
		var e models.Embedding
		var data string
		if err := rows.Scan(&e.NoteID, &data, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan embedding: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &e.Vector); err != nil {
			return nil, fmt.Errorf("store: unmarshal vector: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteEmbedding removes a note's vector. Deleting an absent embedding
// is a no-op.
func (db *DB) DeleteEmbedding(noteID string) error {
	if _, err := db.conn.Exec(`DELETE FROM embeddings WHERE note_id = ?`, noteID); err != nil {
		return fmt.Errorf("store: delete embedding: %w", err)
	}
	return nil
}

// MissingEmbeddings returns the notes that have no stored embedding, or
// whose embedding is older than the note's last edit.
func (db *DB) MissingEmbeddings() ([]models.Note, error) {
	return db.queryNotes(`
		SELECT n.id, n.title, n.content, n.folder_id, n.is_pinned, n.created_at, n.updated_at
		FROM notes n
		LEFT JOIN embeddings e ON e.note_id = n.id
		WHERE e.note_id IS NULL OR e.updated_at < n.updated_at
		ORDER BY n.is_pinned DESC, n.updated_at DESC`)
}

// EmbeddingStats reports index coverage over the current notes.
func (db *DB) EmbeddingStats() (*models.EmbeddingStats, error) {
	var s models.EmbeddingStats
	err := db.conn.QueryRow(`
		SELECT COUNT(*),
		       COUNT(e.note_id)
		FROM notes n
		LEFT JOIN embeddings e ON e.note_id = n.id AND e.updated_at >= n.updated_at
	`).Scan(&s.TotalNotes, &s.EmbeddedNotes)
	if err != nil {
		return nil, fmt.Errorf("store: embedding stats: %w", err)
	}
	s.MissingNotes = s.TotalNotes - s.EmbeddedNotes
	return &s, nil
}
