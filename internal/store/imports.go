package store

import (
	"fmt"
)

// ImportRecord maps an imported file path to the note it produced.
type ImportRecord struct {
	Path     string
	NoteID   string
	Checksum string
}

// UpsertImport records or refreshes a path-to-note mapping.
func (db *DB) UpsertImport(rec ImportRecord) error {
	_, err := db.conn.Exec(`
		INSERT INTO imports (path, note_id, checksum)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			note_id  = excluded.note_id,
			checksum = excluded.checksum
	`, rec.Path, rec.NoteID, rec.Checksum)
	if err != nil {
		return fmt.Errorf("store: upsert import: %w", err)
	}
	return nil
}

// AllImports returns every import record keyed by path.
func (db *DB) AllImports() (map[string]ImportRecord, error) {
	rows, err := db.conn.Query(`SELECT path, note_id, checksum FROM imports`)
	if err != nil {
		return nil, fmt.Errorf("store: query imports: %w", err)
	}
	defer rows.Close()

	out := make(map[string]ImportRecord)
	for rows.Next() {
		var rec ImportRecord
		if err := rows.Scan(&rec.Path, &rec.NoteID, &rec.Checksum); err != nil {
			return nil, fmt.Errorf("store: scan import: %w", err)
		}
		out[rec.Path] = rec
	}
	return out, rows.Err()
}

// DeleteImport removes a path mapping. Idempotent.
func (db *DB) DeleteImport(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM imports WHERE path = ?`, path); err != nil {
		return fmt.Errorf("store: delete import: %w", err)
	}
	return nil
}
