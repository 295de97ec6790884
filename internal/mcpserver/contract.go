package mcpserver

// DocumentFormat describes the canonical request log document format that
// LLM consumers see when reading or creating documents.
const DocumentFormat = `# Raido Document Format

Every request log document is a single Markdown file with a frontmatter
block, an index section, and an items section. Documents are written by the
server; consumers should treat them as read-only and mutate them only
through the create_document and append_item tools.

## Structure

` + "```" + `markdown
---
doc_id: REQ-20251203-mobile-app
title: mobile-app request log
project_id: mobile-app
tags:
  - server
item_count: 2
created_at: 2025-12-03T10:00:00.000Z
updated_at: 2025-12-03T14:30:00.000Z
---

## Index

- REQ-20251203-mobile-app-01 [bug] login fails on refresh
- REQ-20251203-mobile-app-02 [enhancement] dark mode toggle

## Items

### REQ-20251203-mobile-app-01
title: login fails on refresh
type: bug
domain: api
context: web
priority: high
status: open
tags:
  - auth
created_at: 2025-12-03T10:05:00.000Z
notes:
  token is not renewed after expiry
  affects all logged-in users

### REQ-20251203-mobile-app-02
...
` + "```" + `

## Rules

1. **Document IDs** follow ` + "`" + `REQ-YYYYMMDD-<project-slug>` + "`" + `. The date is the
   creation date; the slug is the registered project ID.
2. **Item IDs** are the document ID plus a two-digit suffix (` + "`" + `-01` + "`" + ` .. ` + "`" + `-99` + "`" + `).
   A document holds at most 99 items; appending to a full document fails.
3. **Items are append-only.** Existing items are never edited or removed.
4. **Timestamps** are UTC with millisecond precision.
5. **Enumeration fields** (type, domain, context, priority, status) must use
   values from the option registry; empty fields are filled from its defaults.
6. **Notes** may span multiple lines and contain any text; the file format
   escapes them so they round-trip exactly.
7. **Encoding** is UTF-8.
`
