// Package docservice coordinates the storage, registry, and catalog layers
// behind the document operations exposed by the CLI, REST API, and MCP server.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/mutate"
	"github.com/starford/raido/internal/registry"
	"github.com/starford/raido/internal/reqid"
	"github.com/starford/raido/internal/storage"
)

// DocDetail is the full representation of a document.
type DocDetail struct {
	models.Document
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
}

// Service coordinates storage, registry, and catalog operations.
type Service struct {
	store storage.Provider
	db    index.Catalog
	reg   *registry.Store
	now   models.Clock
}

// NewService creates a new document service.
func NewService(store storage.Provider, db index.Catalog, reg *registry.Store, now models.Clock) *Service {
	return &Service{store: store, db: db, reg: reg, now: now}
}

// Clock exposes the service clock so callers share the same time source.
func (s *Service) Clock() models.Clock {
	return s.now
}

// docPath places a document under its project directory.
func docPath(projectID, docID string) string {
	return filepath.Join(projectID, docID+".md")
}

// CreateDocument creates the request log for a registered project dated by
// the service clock. The project must exist in the registry; creating the
// same day's document twice fails with apperr.ErrAlreadyExists.
func (s *Service) CreateDocument(_ context.Context, project, title string) (*DocDetail, error) {
	p, ok := s.reg.Project(project)
	if !ok {
		return nil, fmt.Errorf("docservice: project %q: %w", project, apperr.ErrNotFound)
	}

	doc, err := mutate.NewDocument(p.ID, title, s.now)
	if err != nil {
		return nil, err
	}

	path := docPath(p.ID, doc.DocID)
	if _, err := s.store.Read(path); err == nil {
		return nil, fmt.Errorf("docservice: document %s: %w", doc.DocID, apperr.ErrAlreadyExists)
	}

	data := frontmatter.Serialize(doc)
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, data); err != nil {
		return nil, err
	}
	return detail(path, data, doc), nil
}

// GetDocument resolves a document ID through the catalog and reads it from
// storage.
func (s *Service) GetDocument(_ context.Context, docID string) (*DocDetail, error) {
	path, err := s.db.ResolvePath(docID)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return nil, err
	}
	return detail(path, data, doc), nil
}

// AppendItem appends a draft to an existing document. Defaults from the
// registry fill empty enumeration fields before validation; the storage
// layer performs the parse/mutate/backup/write cycle under a per-file lock.
func (s *Service) AppendItem(_ context.Context, docID string, draft models.ItemDraft) (*DocDetail, error) {
	path, err := s.db.ResolvePath(docID)
	if err != nil {
		return nil, err
	}

	draft = s.reg.ApplyDefaults(draft)
	if err := s.reg.ValidateDraft(draft); err != nil {
		return nil, err
	}

	doc, err := s.store.Append(path, draft, s.now)
	if err != nil {
		return nil, err
	}

	data := frontmatter.Serialize(doc)
	if err := s.IndexFile(path, data); err != nil {
		return nil, err
	}
	return detail(path, data, doc), nil
}

// CaptureItem is the one-shot capture flow: append a draft to the project's
// document for the current date, creating the document first if it does not
// exist yet.
func (s *Service) CaptureItem(ctx context.Context, project string, draft models.ItemDraft) (*DocDetail, error) {
	p, ok := s.reg.Project(project)
	if !ok {
		return nil, fmt.Errorf("docservice: project %q: %w", project, apperr.ErrNotFound)
	}
	docID, err := reqid.GenerateDocID(p.ID, s.now())
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ResolvePath(docID); errors.Is(err, apperr.ErrNotFound) {
		if _, err := s.CreateDocument(ctx, p.ID, ""); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return s.AppendItem(ctx, docID, draft)
}

// DeleteDocument removes a document from storage and the catalog.
func (s *Service) DeleteDocument(_ context.Context, docID string) error {
	path, err := s.db.ResolvePath(docID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(path); err != nil {
		return err
	}
	return s.db.DeleteDoc(path)
}

// ListDocuments returns catalog rows matching the query plus the total count.
func (s *Service) ListDocuments(_ context.Context, q index.ListQuery) ([]index.DocRow, int, error) {
	return s.db.ListDocs(q)
}

// Search delegates full-text search over items to the catalog.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// IndexFile parses data and upserts it into the catalog.
// Exported so that sync and watcher paths can reuse it.
func (s *Service) IndexFile(path string, data []byte) error {
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return err
	}
	row := index.DocRow{
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
	items := make([]index.ItemRow, 0, len(doc.Items))
	for _, it := range doc.Items {
		items = append(items, index.ItemRow{
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
	return s.db.UpsertDoc(row, items)
}

func detail(path string, data []byte, doc models.Document) *DocDetail {
	return &DocDetail{
		Document: doc,
		Path:     path,
		Checksum: checksum.Sum(data),
	}
}
