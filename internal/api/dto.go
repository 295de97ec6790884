package api

import (
	"github.com/starford/raido/internal/docservice"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/registry"
)

// CreateProjectRequest is the request body for registering a project.
type CreateProjectRequest struct {
	Name string `json:"name" example:"Mobile App" validate:"required"`
}

// CreateDocRequest is the request body for creating a document.
type CreateDocRequest struct {
	Project string `json:"project" example:"mobile-app" validate:"required"`
	Title   string `json:"title" example:"mobile-app request log"`
}

// DocDetail is the full document response type (aliased from the domain layer).
type DocDetail = docservice.DocDetail

// ProjectListResponse wraps project listings.
type ProjectListResponse struct {
	Projects []registry.Project `json:"projects" validate:"required"`
}

// DocListResponse wraps paginated document listings.
type DocListResponse struct {
	Docs  []index.DocRow `json:"docs" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}
