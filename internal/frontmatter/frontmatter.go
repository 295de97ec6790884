// Package frontmatter encodes and decodes request-log documents to and from
// their on-disk Markdown form: a --- delimited frontmatter block with the
// document scalars and tags, an index section mirroring items_index, and one
// block per item.
//
// The grammar is owned by this package. It is deliberately not general YAML:
// it supports scalar strings, ISO-8601 millisecond UTC timestamps, string
// lists, and flat item blocks, nothing else. Serialize is deterministic;
// Parse(Serialize(d)) reproduces d field for field for every valid document
// (one whose timestamps are UTC with millisecond precision and whose index
// mirrors its items).
package frontmatter

import (
	"fmt"
	"strings"
)

const (
	delimiter    = "---"
	sectionIndex = "## Index"
	sectionItems = "## Items"

	// tsLayout pins timestamps to ISO-8601 with millisecond precision.
	// Serialized values are always UTC and end in Z.
	tsLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ParseError reports the section and field where decoding failed. The
// serializer never returns a partially populated document: the first
// violation aborts the whole parse.
type ParseError struct {
	Section string
	Field   string
	Msg     string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("frontmatter: ")
	if e.Section != "" {
		b.WriteString(e.Section)
		if e.Field != "" {
			b.WriteString(".")
		}
	}
	if e.Field != "" {
		b.WriteString(e.Field)
	}
	if e.Section != "" || e.Field != "" {
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	return b.String()
}

func parseErr(section, field, format string, args ...any) *ParseError {
	return &ParseError{Section: section, Field: field, Msg: fmt.Sprintf(format, args...)}
}
