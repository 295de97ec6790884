// Package mutate is the document mutation engine. Append is the only
// supported transition: it assigns the next item ID, keeps the summary index
// and tag union in lockstep, and bumps the counters and timestamps. Pure
// functions only; no I/O and no system clock.
package mutate

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/reqid"
)

// ErrDocumentFull is returned when an append would need an item number past
// the two-digit ceiling. It is a business condition ("this document is
// full"), distinct from codec validation errors, so callers can surface it
// as such.
var ErrDocumentFull = errors.New("mutate: document item sequence exhausted")

// NewDocument builds a fresh, empty document for a project. The document ID
// is generated from the project name and the injected clock; title defaults
// to a readable form when empty.
func NewDocument(project, title string, now models.Clock) (models.Document, error) {
	ts := stamp(now())
	docID, err := reqid.GenerateDocID(project, ts)
	if err != nil {
		return models.Document{}, err
	}
	ref, _ := reqid.ParseDocID(docID)
	if title == "" {
		title = ref.ProjectSlug + " request log"
	}
	return models.Document{
		DocID:      docID,
		Title:      title,
		ProjectID:  ref.ProjectSlug,
		Items:      []models.Item{},
		ItemsIndex: []models.IndexEntry{},
		Tags:       []string{},
		ItemCount:  0,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}, nil
}

// ApplyAppend returns the next document state with the draft appended as a
// new item. The input document is never modified; on error the returned
// document is the zero value.
func ApplyAppend(doc models.Document, draft models.ItemDraft, now models.Clock) (models.Document, error) {
	ids := make([]string, len(doc.Items))
	for i, it := range doc.Items {
		ids[i] = it.ID
	}
	next := reqid.NextItemNumber(ids)
	if next > reqid.MaxItemNumber {
		return models.Document{}, fmt.Errorf("%w: document %s holds item %02d",
			ErrDocumentFull, doc.DocID, reqid.MaxItemNumber)
	}

	id, err := reqid.GenerateItemID(doc.DocID, next)
	if err != nil {
		return models.Document{}, err
	}

	ts := stamp(now())
	item := models.Item{
		ID:        id,
		Title:     draft.Title,
		Type:      draft.Type,
		Domain:    draft.Domain,
		Context:   draft.Context,
		Priority:  draft.Priority,
		Status:    draft.Status,
		Tags:      append([]string{}, draft.Tags...),
		Notes:     draft.Notes,
		CreatedAt: ts,
	}

	out := doc
	out.Items = append(append([]models.Item{}, doc.Items...), item)
	out.ItemsIndex = append(append([]models.IndexEntry{}, doc.ItemsIndex...),
		models.IndexEntry{ID: item.ID, Type: item.Type, Title: item.Title})
	out.Tags = unionTags(doc.Tags, draft.Tags)
	out.ItemCount = len(doc.Items) + 1
	out.UpdatedAt = ts
	return out, nil
}

// unionTags merges two tag sets into a sorted, case-sensitively deduplicated
// slice. Always returns a fresh non-nil slice.
func unionTags(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range [][]string{a, b} {
		for _, t := range s {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// stamp normalizes a clock reading to what the serializer can represent:
// UTC with millisecond precision.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
