package frontmatter

import (
	"fmt"
	"strings"

	"github.com/starford/raido/internal/models"
)

// Serialize renders a document to its on-disk text. The output is a pure
// function of the input: equal documents produce byte-identical text, which
// keeps version-control diffs clean.
func Serialize(doc models.Document) []byte {
	var b strings.Builder

	b.WriteString(delimiter + "\n")
	writeScalar(&b, "doc_id", doc.DocID)
	writeScalar(&b, "title", doc.Title)
	writeScalar(&b, "project_id", doc.ProjectID)
	fmt.Fprintf(&b, "item_count: %d\n", doc.ItemCount)
	writeScalar(&b, "created_at", encodeTimestamp(doc.CreatedAt))
	writeScalar(&b, "updated_at", encodeTimestamp(doc.UpdatedAt))
	writeList(&b, "tags", doc.Tags)
	b.WriteString(delimiter + "\n")

	b.WriteString("\n" + sectionIndex + "\n")
	if len(doc.ItemsIndex) > 0 {
		b.WriteString("\n")
		for _, e := range doc.ItemsIndex {
			fmt.Fprintf(&b, "- %s [%s] %s\n", e.ID, e.Type, encodeScalar(e.Title))
		}
	}

	b.WriteString("\n" + sectionItems + "\n")
	for _, it := range doc.Items {
		b.WriteString("\n### " + it.ID + "\n\n")
		writeScalar(&b, "title", it.Title)
		writeScalar(&b, "type", it.Type)
		writeScalar(&b, "domain", it.Domain)
		writeScalar(&b, "context", it.Context)
		writeScalar(&b, "priority", it.Priority)
		writeScalar(&b, "status", it.Status)
		writeList(&b, "tags", it.Tags)
		writeScalar(&b, "created_at", encodeTimestamp(it.CreatedAt))
		writeNotes(&b, it.Notes)
	}

	return []byte(b.String())
}

func writeScalar(b *strings.Builder, key, value string) {
	if value == "" {
		b.WriteString(key + ":\n")
		return
	}
	b.WriteString(key + ": " + encodeScalar(value) + "\n")
}

func writeList(b *strings.Builder, key string, values []string) {
	b.WriteString(key + ":\n")
	for _, v := range values {
		b.WriteString("  - " + encodeScalar(v) + "\n")
	}
}

// writeNotes emits free text as a two-space-indented block under "notes:".
// The indent guarantees that no notes line, not even a literal "---" or a
// "### " heading, can be read back as a structural line.
func writeNotes(b *strings.Builder, notes string) {
	b.WriteString("notes:\n")
	if notes == "" {
		return
	}
	for _, line := range strings.Split(notes, "\n") {
		b.WriteString("  " + line + "\n")
	}
}
