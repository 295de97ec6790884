// Package storage defines the document store file-system abstraction.
//
// The store holds one Markdown file per request-log document, laid out as
// {project-slug}/{doc-id}.md under the store root. The provider serializes
// read-modify-write cycles per document path within this process; across
// processes the store is last-writer-wins.
package storage

import "github.com/starford/raido/internal/models"

// Provider is the interface for document store file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to the store root).
	List(dir string) ([]models.DocMeta, error)
	// Read returns the raw bytes of the file at path (relative to the store root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the store root).
	Write(path string, content []byte) error
	// Backup copies the file at path to a sibling path+".bak", replacing any
	// previous backup, and returns the backup path.
	Backup(path string) (string, error)
	// Append runs the full read → parse → append → serialize → backup → write
	// cycle for one document, serialized per path, and returns the new state.
	Append(path string, draft models.ItemDraft, now models.Clock) (models.Document, error)
	// Delete removes the file at path (relative to the store root).
	Delete(path string) error
}
