//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
			item_id UNINDEXED,
			doc_path UNINDEXED,
			title,
			notes,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, itemID, docPath, title, notes string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM items_fts WHERE item_id = ? AND doc_path = ?`, itemID, docPath)
	_, err := tx.Exec(`INSERT INTO items_fts (item_id, doc_path, title, notes, tags) VALUES (?, ?, ?, ?, ?)`,
		itemID, docPath, title, notes, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, docPath string) {
	_, _ = tx.Exec(`DELETE FROM items_fts WHERE doc_path = ?`, docPath)
}

// Search performs an FTS5 full-text search over item titles, notes, and
// tags and returns matching items with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.item_id,
		       i.doc_id,
		       f.doc_path,
		       f.title,
		       i.type,
		       snippet(items_fts, 3, '<b>', '</b>', '...', 64)
		FROM items_fts f
		JOIN items i ON i.item_id = f.item_id AND i.doc_path = f.doc_path
		WHERE items_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ItemID, &r.DocID, &r.DocPath, &r.Title, &r.Type, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
