package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/raido/internal/apperr"
)

// DocRow represents a row in the documents table.
type DocRow struct {
	Path      string
	DocID     string
	Title     string
	ProjectID string
	ItemCount int
	Tags      []string
	Checksum  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItemRow represents a row in the items table.
type ItemRow struct {
	ItemID    string
	DocPath   string
	DocID     string
	Title     string
	Type      string
	Domain    string
	Context   string
	Priority  string
	Status    string
	Tags      []string
	Notes     string
	CreatedAt time.Time
}

// SearchResult represents one search hit (an item within a document).
type SearchResult struct {
	ItemID  string `json:"item_id"`
	DocID   string `json:"doc_id"`
	DocPath string `json:"doc_path"`
	Title   string `json:"title"`
	Type    string `json:"type"`
	Snippet string `json:"snippet"`
}

// ListQuery narrows and orders a document listing.
type ListQuery struct {
	Project string // exact project_id match
	Tag     string // documents carrying this tag
	Type    string // documents holding at least one item of this type
	Sort    string // updated_at (default), created_at, title, path
	Limit   int
	Offset  int
}

// UpsertDoc replaces a document row and all of its item rows within one
// transaction, keeping the FTS table in step.
func (db *DB) UpsertDoc(doc DocRow, items []ItemRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(doc.Tags)

	_, err = tx.Exec(`
		INSERT INTO documents (path, doc_id, title, project_id, item_count, tags, checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			doc_id     = excluded.doc_id,
			title      = excluded.title,
			project_id = excluded.project_id,
			item_count = excluded.item_count,
			tags       = excluded.tags,
			checksum   = excluded.checksum,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, doc.Path, doc.DocID, doc.Title, doc.ProjectID, doc.ItemCount, string(tagsJSON),
		doc.Checksum, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// Replace item rows: delete old then bulk insert.
	if _, err := tx.Exec(`DELETE FROM items WHERE doc_path = ?`, doc.Path); err != nil {
		return fmt.Errorf("index: clear items: %w", err)
	}
	ftsDelete(tx, doc.Path)

	if len(items) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO items (item_id, doc_path, doc_id, title, type, domain, context, priority, status, tags, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare item insert: %w", err)
		}
		defer stmt.Close()
		for _, it := range items {
			itemTags, _ := json.Marshal(it.Tags)
			if _, err := stmt.Exec(it.ItemID, doc.Path, it.DocID, it.Title, it.Type, it.Domain,
				it.Context, it.Priority, it.Status, string(itemTags), it.Notes, it.CreatedAt); err != nil {
				return fmt.Errorf("index: insert item: %w", err)
			}
			if err := ftsUpsert(tx, it.ItemID, doc.Path, it.Title, it.Notes, it.Tags); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteDoc removes a document, its item rows, and its FTS entries.
func (db *DB) DeleteDoc(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM items WHERE doc_path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// ResolvePath maps a document ID to its store path.
func (db *DB) ResolvePath(docID string) (string, error) {
	var path string
	err := db.conn.QueryRow(`SELECT path FROM documents WHERE doc_id = ?`, docID).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("index: document %s: %w", docID, apperr.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("index: resolve %s: %w", docID, err)
	}
	return path, nil
}

// ListDocs returns document rows matching q plus the total match count
// before pagination.
func (db *DB) ListDocs(q ListQuery) ([]DocRow, int, error) {
	where := []string{"1=1"}
	var args []any

	if q.Project != "" {
		where = append(where, "project_id = ?")
		args = append(args, q.Project)
	}
	if q.Tag != "" {
		// Tags are stored as a JSON string array; match the quoted element.
		where = append(where, "tags LIKE ?")
		args = append(args, `%"`+q.Tag+`"%`)
	}
	if q.Type != "" {
		where = append(where, "EXISTS (SELECT 1 FROM items i WHERE i.doc_path = documents.path AND i.type = ?)")
		args = append(args, q.Type)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	order := "updated_at DESC"
	switch q.Sort {
	case "", "updated_at":
	case "created_at":
		order = "created_at DESC"
	case "title":
		order = "title ASC"
	case "path":
		order = "path ASC"
	default:
		return nil, 0, fmt.Errorf("index: unknown sort field %q", q.Sort)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.Query(`
		SELECT path, doc_id, title, project_id, item_count, tags, checksum, created_at, updated_at
		FROM documents
		WHERE `+cond+`
		ORDER BY `+order+`
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocRow
	for rows.Next() {
		var r DocRow
		var tagsJSON string
		if err := rows.Scan(&r.Path, &r.DocID, &r.Title, &r.ProjectID, &r.ItemCount,
			&tagsJSON, &r.Checksum, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &r.Tags)
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// AllPaths returns every indexed document path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
