// Package importer mirrors a directory of Markdown files into the note
// store. Files may carry YAML frontmatter with title, folder, and
// pinned keys; changes are detected by checksum so repeated syncs are
// cheap.
package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/veleda/ansuz/internal/apperr"
	"github.com/veleda/ansuz/internal/models"
	"github.com/veleda/ansuz/internal/store"
)

// checksum returns the hex-encoded SHA-256 digest of a file's bytes; it
// is what import records compare to detect changed files.
func checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Importer syncs a directory tree of .md files into the store.
type Importer struct {
	db   *store.DB
	root string
	log  *slog.Logger
}

// New creates an importer rooted at dir.
func New(db *store.DB, dir string, log *slog.Logger) *Importer {
	return &Importer{db: db, root: dir, log: log}
}

// Sync walks the import directory and brings the store up to date:
//   - new and changed files are parsed and upserted as notes
//   - files removed from disk have their notes deleted
func (im *Importer) Sync() error {
	records, err := im.db.AllImports()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{})
	walkErr := filepath.WalkDir(im.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, err := filepath.Rel(im.root, path)
		if err != nil {
			return nil
		}
		disk[rel] = struct{}{}

		data, err := os.ReadFile(path)
		if err != nil {
			im.log.Warn("import: read failed", slog.String("path", rel), slog.String("error", err.Error()))
			return nil
		}
		cs := checksum(data)
		if rec, ok := records[rel]; ok && rec.Checksum == cs {
			return nil
		}
		if err := im.importFile(rel, data, cs, records[rel]); err != nil {
			im.log.Warn("import: failed", slog.String("path", rel), slog.String("error", err.Error()))
		} else {
			im.log.Debug("import: synced", slog.String("path", rel))
		}
		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	// Remove notes whose source file is gone.
	for path, rec := range records {
		if _, ok := disk[path]; ok {
			continue
		}
		if err := im.db.DeleteNote(rec.NoteID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			im.log.Warn("import: delete note failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		if err := im.db.DeleteImport(path); err != nil {
			im.log.Warn("import: delete record failed", slog.String("path", path), slog.String("error", err.Error()))
		} else {
			im.log.Debug("import: removed stale", slog.String("path", path))
		}
	}
	return nil
}

func (im *Importer) importFile(rel string, data []byte, cs string, existing store.ImportRecord) error {
	fm, body := splitFrontmatter(data)

	folderID, err := im.resolveFolder(fm.Folder)
	if err != nil {
		return err
	}

	note := models.Note{
		Title:    deriveTitle(fm, body),
		Content:  body,
		FolderID: folderID,
		IsPinned: fm.Pinned,
	}

	if existing.NoteID != "" {
		note.ID = existing.NoteID
		if _, err := im.db.UpdateNote(note); err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				return err
			}
			// Note was deleted out from under the record; recreate it.
			if _, err := im.db.CreateNote(note); err != nil {
				return err
			}
		}
		return im.db.UpsertImport(store.ImportRecord{Path: rel, NoteID: note.ID, Checksum: cs})
	}

	created, err := im.db.CreateNote(note)
	if err != nil {
		return err
	}
	return im.db.UpsertImport(store.ImportRecord{Path: rel, NoteID: created.ID, Checksum: cs})
}

// resolveFolder maps a frontmatter folder name to an id, creating the
// folder on first use. An empty name lands in the default folder.
func (im *Importer) resolveFolder(name string) (string, error) {
	if name == "" {
		name = store.DefaultFolderName
	}
	f, err := im.db.GetFolderByName(name)
	if err == nil {
		return f.ID, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return "", err
	}
	created, err := im.db.CreateFolder(models.Folder{Name: name})
	if err != nil {
		return "", err
	}
	return created.ID, nil
}
