package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/docservice"
	"github.com/starford/raido/internal/registry"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, reg *registry.Store, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, reg)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Project registry.
	r.Get("/projects", h.ListProjects)
	r.Post("/projects", h.CreateProject)

	// Documents.
	r.Get("/docs", h.ListDocs)
	r.Post("/docs", h.CreateDoc)
	r.Get("/docs/{docID}", h.GetDoc)
	r.Delete("/docs/{docID}", h.DeleteDoc)

	// Append-only item capture.
	r.Post("/docs/{docID}/items", h.AppendItem)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
