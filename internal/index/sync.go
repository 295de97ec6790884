package index

import (
	"log/slog"

	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/storage"
)

// Sync walks the store and brings the catalog up to date:
//   - new/changed documents are parsed and upserted
//   - documents removed from disk are deleted from the catalog
//
// Files that fail to parse are logged and skipped; a corrupt document never
// aborts the sync.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDoc(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data as a document and upserts it into the catalog.
func indexFile(db *DB, path string, data []byte) error {
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return err
	}

	row := DocRow{
		Path:      path,
		DocID:     doc.DocID,
		Title:     doc.Title,
		ProjectID: doc.ProjectID,
		ItemCount: doc.ItemCount,
		Tags:      doc.Tags,
		Checksum:  checksum.Sum(data),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}

	items := make([]ItemRow, 0, len(doc.Items))
	for _, it := range doc.Items {
		items = append(items, ItemRow{
			ItemID:    it.ID,
			DocPath:   path,
			DocID:     doc.DocID,
			Title:     it.Title,
			Type:      it.Type,
			Domain:    it.Domain,
			Context:   it.Context,
			Priority:  it.Priority,
			Status:    it.Status,
			Tags:      it.Tags,
			Notes:     it.Notes,
			CreatedAt: it.CreatedAt,
		})
	}

	return db.UpsertDoc(row, items)
}
