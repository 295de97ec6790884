package mcpserver

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/raido/internal/docservice"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/registry"
	"github.com/starford/raido/internal/storage"
)

func fixedNow() time.Time {
	return time.Date(2025, 12, 3, 10, 0, 0, 0, time.UTC)
}

func testServer(t *testing.T) *Server {
	t.Helper()

	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "raido-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	reg, err := registry.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.AddProject("Mobile App", fixedNow); err != nil {
		t.Fatal(err)
	}

	svc := docservice.NewService(store, db, reg, fixedNow)
	return New(svc, reg)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call the
	// tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "create_document":
		result, err = srv.createDocument(ctx, req)
	case "append_item":
		result, err = srv.appendItem(ctx, req)
	case "search_items":
		result, err = srv.searchItems(ctx, req)
	case "get_document_format":
		result, err = srv.getDocumentFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadDocument(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_document", map[string]interface{}{
		"project": "mobile-app",
	})
	if r.IsError {
		t.Fatalf("create failed: %s", resultText(r))
	}
	if got := resultText(r); got != "created: REQ-20251203-mobile-app" {
		t.Errorf("create result = %q", got)
	}

	r = callTool(t, srv, "read_document", map[string]interface{}{
		"doc_id": "REQ-20251203-mobile-app",
	})
	if r.IsError {
		t.Fatalf("read failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"doc_id": "REQ-20251203-mobile-app"`) {
		t.Errorf("read result = %q", resultText(r))
	}
}

func TestCreateDocument_UnknownProject(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "create_document", map[string]interface{}{"project": "ghost"})
	if !r.IsError {
		t.Error("expected error for unknown project")
	}
}

func TestReadDocumentMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_document", map[string]interface{}{"doc_id": "REQ-20251203-ghost"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestAppendItemTool(t *testing.T) {
	srv := testServer(t)
	_ = callTool(t, srv, "create_document", map[string]interface{}{"project": "mobile-app"})

	r := callTool(t, srv, "append_item", map[string]interface{}{
		"doc_id": "REQ-20251203-mobile-app",
		"title":  "crash on rotate",
		"notes":  "stack trace attached",
		"tags":   "crash, mobile",
	})
	if r.IsError {
		t.Fatalf("append failed: %s", resultText(r))
	}
	if got := resultText(r); got != "appended: REQ-20251203-mobile-app-01" {
		t.Errorf("append result = %q", got)
	}

	// Appended item is searchable.
	r = callTool(t, srv, "search_items", map[string]interface{}{"query": "rotate"})
	if !strings.Contains(resultText(r), "REQ-20251203-mobile-app-01") {
		t.Errorf("search result = %q", resultText(r))
	}
}

func TestAppendItem_InvalidType(t *testing.T) {
	srv := testServer(t)
	_ = callTool(t, srv, "create_document", map[string]interface{}{"project": "mobile-app"})

	r := callTool(t, srv, "append_item", map[string]interface{}{
		"doc_id": "REQ-20251203-mobile-app",
		"title":  "x",
		"type":   "meltdown",
	})
	if !r.IsError {
		t.Error("expected error for unknown type")
	}
}

func TestListDocuments(t *testing.T) {
	srv := testServer(t)
	_ = callTool(t, srv, "create_document", map[string]interface{}{"project": "mobile-app"})

	r := callTool(t, srv, "list_documents", map[string]interface{}{"project": "mobile-app"})
	if !strings.Contains(resultText(r), "REQ-20251203-mobile-app") {
		t.Errorf("list result = %q", resultText(r))
	}
}

func TestGetDocumentFormat(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_document_format", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "REQ-YYYYMMDD") || !strings.Contains(text, "append-only") {
		t.Errorf("format text incomplete: %q", text)
	}
}
