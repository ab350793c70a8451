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
)

func (db *DB) seedDefaultFolder() error {
	var count int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM folders`).Scan(&count); err != nil {
		return fmt.Errorf("store: count folders: %w", err)
	}
	if count > 0 {
		return nil
	}
	_, err := db.CreateFolder(models.Folder{Name: DefaultFolderName})
	return err
}

// CreateFolder inserts a new folder. An empty ID is assigned a fresh UUID.
func (db *DB) CreateFolder(f models.Folder) (*models.Folder, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO folders (id, name, parent_id, created_at) VALUES (?, ?, ?, ?)
	`, f.ID, f.Name, f.ParentID, f.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, fmt.Errorf("store: folder %s: %w", f.ID, apperr.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("store: create folder: %w", err)
	}
	return &f, nil
}

// GetFolder returns the folder with the given id.
func (db *DB) GetFolder(id string) (*models.Folder, error) {
	var f models.Folder
	err := db.conn.QueryRow(`
		SELECT id, name, parent_id, created_at FROM folders WHERE id = ?
	`, id).Scan(&f.ID, &f.Name, &f.ParentID, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: folder %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get folder: %w", err)
	}
	return &f, nil
}

// GetFolderByName returns the first folder with the given name.
func (db *DB) GetFolderByName(name string) (*models.Folder, error) {
	var f models.Folder
	err := db.conn.QueryRow(`
		SELECT id, name, parent_id, created_at FROM folders WHERE name = ? ORDER BY created_at LIMIT 1
	`, name).Scan(&f.ID, &f.Name, &f.ParentID, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: folder %q: %w", name, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get folder by name: %w", err)
	}
	return &f, nil
}

// ListFolders returns every folder ordered by creation time.
func (db *DB) ListFolders() ([]models.Folder, error) {
	rows, err := db.conn.Query(`SELECT id, name, parent_id, created_at FROM folders ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("store: list folders: %w", err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		var f models.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.ParentID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// DeleteFolder removes a folder and moves its notes to the default folder.
func (db *DB) DeleteFolder(id string) error {
	def, err := db.GetFolderByName(DefaultFolderName)
	if err != nil {
		return err
	}
	if def.ID == id {
		return fmt.Errorf("store: cannot delete default folder: %w", apperr.ErrConflict)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete folder: %w", err)
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return fmt.Errorf("store: folder %s: %w", id, apperr.ErrNotFound)
	}
	if _, err := tx.Exec(`UPDATE notes SET folder_id = ? WHERE folder_id = ?`, def.ID, id); err != nil {
		return fmt.Errorf("store: reassign notes: %w", err)
	}
	return tx.Commit()
}
