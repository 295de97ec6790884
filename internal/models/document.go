// Package models defines the domain types for Raido.
package models

import "time"

// Clock supplies the current time. The core packages never read the system
// clock directly; callers inject time.Now (or a fixed clock in tests).
type Clock func() time.Time

// Document is one project-scoped request log, persisted as a single
// Markdown file with a frontmatter block.
type Document struct {
	DocID      string       `json:"doc_id"`
	Title      string       `json:"title"`
	ProjectID  string       `json:"project_id"`
	Items      []Item       `json:"items"`
	ItemsIndex []IndexEntry `json:"items_index"`
	Tags       []string     `json:"tags"`
	ItemCount  int          `json:"item_count"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Item is one captured request (bug, enhancement, ...) inside a document.
// Items are append-only: once written they are never edited in place.
type Item struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Domain    string    `json:"domain"`
	Context   string    `json:"context"`
	Priority  string    `json:"priority"`
	Status    string    `json:"status"`
	Tags      []string  `json:"tags"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// IndexEntry is a lightweight projection of an Item, kept positionally in
// lockstep with Document.Items so summary views can skip full item bodies.
type IndexEntry struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// ItemDraft is the caller-supplied shape of a new item before the mutation
// engine assigns its ID and creation timestamp.
type ItemDraft struct {
	Title    string   `json:"title"`
	Type     string   `json:"type"`
	Domain   string   `json:"domain"`
	Context  string   `json:"context"`
	Priority string   `json:"priority"`
	Status   string   `json:"status"`
	Tags     []string `json:"tags"`
	Notes    string   `json:"notes"`
}

// DocMeta is a lightweight representation returned by list operations.
type DocMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
