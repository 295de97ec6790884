// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Raido tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/docservice"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/registry"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
	reg *registry.Store
}

// New creates a new MCP server with all Raido tools registered.
func New(svc *docservice.Service, reg *registry.Store) *Server {
	s := &Server{svc: svc, reg: reg}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List request log documents, optionally filtered by project."),
		mcp.WithString("project", mcp.Description("Optional project slug to filter by")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read a request log document by its document ID (e.g. REQ-20251203-mobile-app)."),
		mcp.WithString("doc_id", mcp.Required(), mcp.Description("Document ID")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create today's request log document for a registered project. "+
			"The document ID is derived from the date and the project slug. Read the "+
			"document format first via the get_document_format tool or the "+
			"raido://document-format resource."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project slug or registered name")),
		mcp.WithString("title", mcp.Description("Optional document title")),
	), s.createDocument)

	s.mcp.AddTool(mcp.NewTool("append_item",
		mcp.WithDescription("Append a captured request item to a document. Items are append-only "+
			"and get a two-digit sequence suffix; a document holds at most 99 items. "+
			"Empty enumeration fields are filled from the registry defaults."),
		mcp.WithString("doc_id", mcp.Required(), mcp.Description("Target document ID")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Item title")),
		mcp.WithString("type", mcp.Description("Item type (e.g. bug, enhancement)")),
		mcp.WithString("domain", mcp.Description("Affected domain")),
		mcp.WithString("context", mcp.Description("Usage context")),
		mcp.WithString("priority", mcp.Description("Priority level")),
		mcp.WithString("status", mcp.Description("Workflow status")),
		mcp.WithString("notes", mcp.Description("Free-form notes, may span multiple lines")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
	), s.appendItem)

	s.mcp.AddTool(mcp.NewTool("search_items",
		mcp.WithDescription("Full-text search through item titles, notes, and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchItems)

	s.mcp.AddTool(mcp.NewTool("get_document_format",
		mcp.WithDescription("Returns the canonical Raido document format. "+
			"Call this before creating documents or interpreting their content."),
	), s.getDocumentFormat)

	// Resource: document format.
	s.mcp.AddResource(
		mcp.NewResource("raido://document-format", "Document Format",
			mcp.WithResourceDescription("Canonical Markdown request log format used for every document."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := ""
	if p, err := req.RequireString("project"); err == nil {
		project = p
	}
	docs, _, err := s.svc.ListDocuments(ctx, index.ListQuery{Project: project})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(docs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, err := req.RequireString("doc_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.GetDocument(ctx, docID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", docID)), nil
	}
	out, _ := json.MarshalIndent(doc, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title := ""
	if v, err := req.RequireString("title"); err == nil {
		title = v
	}
	doc, err := s.svc.CreateDocument(ctx, project, title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", doc.DocID)), nil
}

func (s *Server) appendItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, err := req.RequireString("doc_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	draft := models.ItemDraft{Title: title}
	if v, err := req.RequireString("type"); err == nil {
		draft.Type = v
	}
	if v, err := req.RequireString("domain"); err == nil {
		draft.Domain = v
	}
	if v, err := req.RequireString("context"); err == nil {
		draft.Context = v
	}
	if v, err := req.RequireString("priority"); err == nil {
		draft.Priority = v
	}
	if v, err := req.RequireString("status"); err == nil {
		draft.Status = v
	}
	if v, err := req.RequireString("notes"); err == nil {
		draft.Notes = v
	}
	if v, err := req.RequireString("tags"); err == nil && v != "" {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				draft.Tags = append(draft.Tags, tag)
			}
		}
	}

	doc, err := s.svc.AppendItem(ctx, docID, draft)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	last := doc.Items[len(doc.Items)-1]
	return mcp.NewToolResultText(fmt.Sprintf("appended: %s", last.ID)), nil
}

func (s *Server) searchItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocumentFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormat), nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "raido://document-format",
			MIMEType: "text/markdown",
			Text:     DocumentFormat,
		},
	}, nil
}
