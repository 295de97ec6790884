package frontmatter

import (
	"strconv"
	"strings"

	"github.com/starford/raido/internal/models"
)

// Parse decodes on-disk document text. Any structural violation (missing
// delimiter, missing required field, a bad timestamp, an index out of step
// with the item blocks) fails with a *ParseError naming the offending
// section and field. Unknown fields are ignored so files written by a newer
// version still load.
func Parse(data []byte) (models.Document, error) {
	p := &parser{lines: strings.Split(string(data), "\n")}

	doc, err := p.parseFrontmatter()
	if err != nil {
		return models.Document{}, err
	}

	indexIDs, err := p.parseIndexSection()
	if err != nil {
		return models.Document{}, err
	}

	items, err := p.parseItemsSection()
	if err != nil {
		return models.Document{}, err
	}

	// The index is stored redundantly; it must mirror the item blocks
	// one-to-one and in order.
	if len(indexIDs) != len(items) {
		return models.Document{}, parseErr("items_index", "",
			"index has %d entries but document has %d items", len(indexIDs), len(items))
	}
	for i, id := range indexIDs {
		if items[i].ID != id {
			return models.Document{}, parseErr("items_index", id,
				"index entry %d does not match item id %s", i, items[i].ID)
		}
	}
	if doc.ItemCount != len(items) {
		return models.Document{}, parseErr("frontmatter", "item_count",
			"declares %d but document has %d items", doc.ItemCount, len(items))
	}

	if items == nil {
		items = []models.Item{}
	}
	doc.Items = items
	doc.ItemsIndex = make([]models.IndexEntry, len(items))
	for i, it := range items {
		doc.ItemsIndex[i] = models.IndexEntry{ID: it.ID, Type: it.Type, Title: it.Title}
	}
	return doc, nil
}

type parser struct {
	lines []string
	pos   int
}

func (p *parser) eof() bool      { return p.pos >= len(p.lines) }
func (p *parser) peek() string   { return p.lines[p.pos] }
func (p *parser) next() string   { l := p.lines[p.pos]; p.pos++; return l }
func (p *parser) skipBlanks() {
	for !p.eof() && p.peek() == "" {
		p.pos++
	}
}

func (p *parser) parseFrontmatter() (models.Document, error) {
	var doc models.Document

	if p.eof() || p.next() != delimiter {
		return doc, parseErr("frontmatter", "", "missing opening %s delimiter", delimiter)
	}

	seen := map[string]bool{}
	closed := false
	for !p.eof() {
		line := p.next()
		if line == delimiter {
			closed = true
			break
		}

		key, value, isList := splitField(line)
		switch key {
		case "doc_id", "title", "project_id":
			s, err := decodeScalar(value)
			if err != nil {
				return doc, parseErr("frontmatter", key, "bad scalar: %v", err)
			}
			switch key {
			case "doc_id":
				doc.DocID = s
			case "title":
				doc.Title = s
			case "project_id":
				doc.ProjectID = s
			}
		case "item_count":
			n, err := strconv.Atoi(value)
			if err != nil {
				return doc, parseErr("frontmatter", key, "not an integer: %q", value)
			}
			doc.ItemCount = n
		case "created_at", "updated_at":
			t, err := decodeTimestamp(value)
			if err != nil {
				return doc, parseErr("frontmatter", key, "bad timestamp: %q", value)
			}
			if key == "created_at" {
				doc.CreatedAt = t
			} else {
				doc.UpdatedAt = t
			}
		case "tags":
			if !isList {
				return doc, parseErr("frontmatter", key, "expected a list")
			}
			tags, err := p.parseListItems("frontmatter")
			if err != nil {
				return doc, err
			}
			doc.Tags = tags
		default:
			// Unknown field: skip, including any list items under it.
			if isList {
				p.skipListItems()
			}
			continue
		}
		seen[key] = true
	}
	if !closed {
		return doc, parseErr("frontmatter", "", "missing closing %s delimiter", delimiter)
	}

	for _, key := range []string{"doc_id", "title", "project_id", "item_count", "created_at", "updated_at"} {
		if !seen[key] {
			return doc, parseErr("frontmatter", key, "required field missing")
		}
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	return doc, nil
}

func (p *parser) parseIndexSection() ([]string, error) {
	p.skipBlanks()
	if p.eof() || p.next() != sectionIndex {
		return nil, parseErr("items_index", "", "missing %q section", sectionIndex)
	}

	var ids []string
	for !p.eof() {
		line := p.peek()
		if line == "" {
			p.pos++
			continue
		}
		if !strings.HasPrefix(line, "- ") {
			break
		}
		p.pos++
		rest := line[2:]
		id := rest
		if i := strings.IndexByte(rest, ' '); i >= 0 {
			id = rest[:i]
		}
		if id == "" {
			return nil, parseErr("items_index", "", "empty index entry")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (p *parser) parseItemsSection() ([]models.Item, error) {
	p.skipBlanks()
	if p.eof() || p.next() != sectionItems {
		return nil, parseErr("items", "", "missing %q section", sectionItems)
	}

	var items []models.Item
	for {
		p.skipBlanks()
		if p.eof() {
			break
		}
		line := p.next()
		if !strings.HasPrefix(line, "### ") {
			return nil, parseErr("items", "", "expected item heading, got %q", line)
		}
		id := strings.TrimPrefix(line, "### ")
		if id == "" {
			return nil, parseErr("items", "", "empty item heading")
		}
		item, err := p.parseItemBlock(id)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// parseItemBlock reads one item's fields up to the next "### " heading or
// end of input.
func (p *parser) parseItemBlock(id string) (models.Item, error) {
	item := models.Item{ID: id}
	seen := map[string]bool{}

	for !p.eof() && !strings.HasPrefix(p.peek(), "### ") {
		line := p.next()
		if line == "" {
			continue
		}

		key, value, isList := splitField(line)
		switch key {
		case "title", "type", "domain", "context", "priority", "status":
			s, err := decodeScalar(value)
			if err != nil {
				return item, parseErr(id, key, "bad scalar: %v", err)
			}
			switch key {
			case "title":
				item.Title = s
			case "type":
				item.Type = s
			case "domain":
				item.Domain = s
			case "context":
				item.Context = s
			case "priority":
				item.Priority = s
			case "status":
				item.Status = s
			}
		case "created_at":
			t, err := decodeTimestamp(value)
			if err != nil {
				return item, parseErr(id, key, "bad timestamp: %q", value)
			}
			item.CreatedAt = t
		case "tags":
			if !isList {
				return item, parseErr(id, key, "expected a list")
			}
			tags, err := p.parseListItems(id)
			if err != nil {
				return item, err
			}
			item.Tags = tags
		case "notes":
			item.Notes = p.parseNotesBlock()
		default:
			if isList {
				p.skipListItems()
			}
			continue
		}
		seen[key] = true
	}

	for _, key := range []string{"title", "type", "domain", "context", "priority", "status", "created_at", "notes"} {
		if !seen[key] {
			return item, parseErr(id, key, "required field missing")
		}
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	return item, nil
}

// parseNotesBlock collects the two-space-indented lines following "notes:"
// and strips the indent. An empty block means empty notes.
func (p *parser) parseNotesBlock() string {
	var lines []string
	for !p.eof() && strings.HasPrefix(p.peek(), "  ") {
		lines = append(lines, p.next()[2:])
	}
	return strings.Join(lines, "\n")
}

func (p *parser) parseListItems(section string) ([]string, error) {
	out := []string{}
	for !p.eof() && strings.HasPrefix(p.peek(), "  - ") {
		raw := strings.TrimPrefix(p.next(), "  - ")
		v, err := decodeScalar(raw)
		if err != nil {
			return nil, parseErr(section, "tags", "bad list value: %v", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (p *parser) skipListItems() {
	for !p.eof() && strings.HasPrefix(p.peek(), "  - ") {
		p.pos++
	}
}

// splitField breaks a "key: value" line. A bare "key:" line introduces
// either an empty scalar or a list; isList reports which one based on the
// absence of an inline value.
func splitField(line string) (key, value string, isList bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", line, false
	}
	key = line[:i]
	rest := line[i+1:]
	if rest == "" {
		return key, "", true
	}
	if strings.HasPrefix(rest, " ") {
		return key, rest[1:], false
	}
	return key, rest, false
}
