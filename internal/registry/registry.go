// Package registry holds the JSON-backed configuration stores: the project
// registry and the field-option registry that constrains item enumerations.
//
// Files are read as JWCC (JSON with comments and trailing commas) so humans
// can annotate them; writes always emit plain indented JSON.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/tailscale/hujson"
	"go.uber.org/multierr"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/slug"
)

const (
	projectsFile = "projects.json"
	optionsFile  = "options.json"
)

// Project is one registered project. ID is the project slug and is embedded
// (informationally) in every document ID generated for the project.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Options lists the allowed values for the item enumeration fields, plus
// the defaults applied to drafts that leave a field empty.
type Options struct {
	Types      []string `json:"types"`
	Domains    []string `json:"domains"`
	Contexts   []string `json:"contexts"`
	Priorities []string `json:"priorities"`
	Statuses   []string `json:"statuses"`
	Defaults   Defaults `json:"defaults"`
}

// Defaults holds the fallback values for optional draft fields.
type Defaults struct {
	Type     string `json:"type"`
	Domain   string `json:"domain"`
	Context  string `json:"context"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
}

// DefaultOptions are used when options.json is absent.
func DefaultOptions() Options {
	return Options{
		Types:      []string{"bug", "enhancement"},
		Domains:    []string{"ui", "api", "data", "infra", "docs"},
		Contexts:   []string{"web", "cli", "mobile", "backend"},
		Priorities: []string{"low", "medium", "high", "critical"},
		Statuses:   []string{"open", "in-progress", "done", "wontfix"},
		Defaults: Defaults{
			Type:     "bug",
			Domain:   "ui",
			Context:  "web",
			Priority: "medium",
			Status:   "open",
		},
	}
}

// Store is the on-disk registry rooted at a directory holding projects.json
// and options.json. All methods are safe for concurrent use.
type Store struct {
	dir string

	mu       sync.RWMutex
	projects []Project
	options  Options
}

// Open loads the registry from dir, creating the directory if needed.
// Missing files fall back to an empty project list and built-in options.
// Validation problems across both files are aggregated into one error.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("registry: create dir: %w", err)
	}
	s := &Store{dir: dir, options: DefaultOptions()}

	var errs error
	if err := readJWCC(filepath.Join(dir, projectsFile), &s.projects); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := readJWCC(filepath.Join(dir, optionsFile), &s.options); err != nil {
		errs = multierr.Append(errs, err)
	}
	for _, p := range s.projects {
		if err := p.validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("registry: project %q: %w", p.ID, err))
		}
	}
	if err := s.options.validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("registry: options: %w", err))
	}
	if errs != nil {
		return nil, errs
	}
	return s, nil
}

// readJWCC loads a JWCC file into target; a missing file is not an error.
func readJWCC(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("registry: read %s: %w", path, err)
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("registry: %s: invalid JWCC: %w", path, err)
	}
	if err := json.Unmarshal(standardized, target); err != nil {
		return fmt.Errorf("registry: %s: invalid JSON: %w", path, err)
	}
	return nil
}

func (p Project) validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required, validation.By(mustBeSlug)),
		validation.Field(&p.Name, validation.Required),
	)
}

func (o Options) validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Types, validation.Required),
		validation.Field(&o.Priorities, validation.Required),
		validation.Field(&o.Statuses, validation.Required),
	)
}

func mustBeSlug(value any) error {
	s, _ := value.(string)
	if s == "" || slug.Make(s) != s {
		return fmt.Errorf("must be a slug (got %q)", s)
	}
	return nil
}

// Projects returns all registered projects sorted by ID.
func (s *Store) Projects() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]Project{}, s.projects...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Project looks up a project by ID or by a name that slugifies to an ID.
func (s *Store) Project(idOrName string) (Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id := slug.Make(idOrName)
	for _, p := range s.projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// AddProject registers a new project under the slug of name and persists
// the registry. Duplicate slugs fail with apperr.ErrAlreadyExists.
func (s *Store) AddProject(name string, now models.Clock) (Project, error) {
	id := slug.Make(name)
	if id == "" {
		return Project{}, fmt.Errorf("registry: name %q normalizes to an empty slug", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ID == id {
			return Project{}, fmt.Errorf("registry: project %q: %w", id, apperr.ErrAlreadyExists)
		}
	}
	p := Project{ID: id, Name: name, CreatedAt: now().UTC().Truncate(time.Millisecond)}
	s.projects = append(s.projects, p)
	if err := s.saveProjectsLocked(); err != nil {
		s.projects = s.projects[:len(s.projects)-1]
		return Project{}, err
	}
	return p, nil
}

// Options returns the current option sets.
func (s *Store) Options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.options
}

// ApplyDefaults fills empty enumeration fields of a draft from the
// registry defaults.
func (s *Store) ApplyDefaults(d models.ItemDraft) models.ItemDraft {
	def := s.Options().Defaults
	if d.Type == "" {
		d.Type = def.Type
	}
	if d.Domain == "" {
		d.Domain = def.Domain
	}
	if d.Context == "" {
		d.Context = def.Context
	}
	if d.Priority == "" {
		d.Priority = def.Priority
	}
	if d.Status == "" {
		d.Status = def.Status
	}
	return d
}

// ValidateDraft checks a draft against the live option sets. The title is
// always required; every enumeration field must be one of its allowed
// values.
func (s *Store) ValidateDraft(d models.ItemDraft) error {
	opts := s.Options()
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required),
		validation.Field(&d.Type, validation.Required, validation.In(anySlice(opts.Types)...)),
		validation.Field(&d.Domain, validation.Required, validation.In(anySlice(opts.Domains)...)),
		validation.Field(&d.Context, validation.Required, validation.In(anySlice(opts.Contexts)...)),
		validation.Field(&d.Priority, validation.Required, validation.In(anySlice(opts.Priorities)...)),
		validation.Field(&d.Status, validation.Required, validation.In(anySlice(opts.Statuses)...)),
	)
}

func anySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func (s *Store) saveProjectsLocked() error {
	data, err := json.MarshalIndent(s.projects, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: encode projects: %w", err)
	}
	path := filepath.Join(s.dir, projectsFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("registry: write %s: %w", path, err)
	}
	return nil
}
