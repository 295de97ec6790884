package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/docservice"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/mutate"
	"github.com/starford/raido/internal/registry"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
	reg *registry.Store
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service, reg *registry.Store) *Handler {
	return &Handler{svc: svc, reg: reg}
}

// ListProjects handles GET /api/projects.
//
//	@Summary		List registered projects
//	@Tags			projects
//	@Produce		json
//	@Success		200	{object}	ProjectListResponse
//	@Security		BearerAuth
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"projects": h.reg.Projects(),
	})
}

// CreateProject handles POST /api/projects.
//
//	@Summary		Register a new project
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateProjectRequest	true	"Project to register"
//	@Success		201		{object}	registry.Project
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	p, err := h.reg.AddProject(req.Name, h.svc.Clock())
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("project already exists"))
		} else {
			slog.Error("create project failed", slog.String("name", req.Name), slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		}
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ListDocs handles GET /api/docs.
//
//	@Summary		List documents with optional filtering and pagination
//	@Tags			docs
//	@Produce		json
//	@Param			project	query		string	false	"Filter by project"
//	@Param			tag		query		string	false	"Filter by document tag"
//	@Param			type	query		string	false	"Filter by item type"
//	@Param			sort	query		string	false	"Sort field"	Enums(updated_at, created_at, title, path)
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	DocListResponse
//	@Security		BearerAuth
//	@Router			/docs [get]
func (h *Handler) ListDocs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	docs, total, err := h.svc.ListDocuments(r.Context(), index.ListQuery{
		Project: q.Get("project"),
		Tag:     q.Get("tag"),
		Type:    q.Get("type"),
		Sort:    q.Get("sort"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		slog.Error("list docs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if docs == nil {
		docs = []index.DocRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"docs":  docs,
		"total": total,
	})
}

// CreateDoc handles POST /api/docs.
//
//	@Summary		Create a project's request log for today
//	@Tags			docs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocRequest	true	"Document to create"
//	@Success		201		{object}	docservice.DocDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/docs [post]
func (h *Handler) CreateDoc(w http.ResponseWriter, r *http.Request) {
	var req CreateDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Project == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("project is required"))
		return
	}
	doc, err := h.svc.CreateDocument(r.Context(), req.Project, req.Title)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("project not found"))
		case errors.Is(err, apperr.ErrAlreadyExists):
			writeJSON(w, http.StatusConflict, errorBody("document already exists"))
		default:
			slog.Error("create doc failed", slog.String("project", req.Project), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// GetDoc handles GET /api/docs/{docID}.
//
//	@Summary		Get a single document by ID
//	@Tags			docs
//	@Produce		json
//	@Param			docID	path		string	true	"Document ID"
//	@Success		200		{object}	docservice.DocDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/docs/{docID} [get]
func (h *Handler) GetDoc(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	doc, err := h.svc.GetDocument(r.Context(), docID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get doc failed", slog.String("doc_id", docID), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDoc handles DELETE /api/docs/{docID}.
//
//	@Summary		Delete a document
//	@Tags			docs
//	@Param			docID	path	string	true	"Document ID"
//	@Success		204		"Document deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/docs/{docID} [delete]
func (h *Handler) DeleteDoc(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := h.svc.DeleteDocument(r.Context(), docID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("delete doc failed", slog.String("doc_id", docID), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AppendItem handles POST /api/docs/{docID}/items.
//
//	@Summary		Append an item to a document
//	@Tags			docs
//	@Accept			json
//	@Produce		json
//	@Param			docID	path		string				true	"Document ID"
//	@Param			body	body		models.ItemDraft	true	"Item draft"
//	@Success		201		{object}	docservice.DocDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/docs/{docID}/items [post]
func (h *Handler) AppendItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	docID := chi.URLParam(r, "docID")

	var draft models.ItemDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	doc, err := h.svc.AppendItem(r.Context(), docID, draft)
	if err != nil {
		var vErr validation.Errors
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, mutate.ErrDocumentFull):
			writeJSON(w, http.StatusConflict, errorBody("document is full"))
		case errors.As(err, &vErr):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "validation failed", "fields": vErr})
		default:
			slog.Error("append item failed", slog.String("doc_id", docID), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across items
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}
