package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/starford/raido/internal/docservice"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/registry"
	"github.com/starford/raido/internal/storage"
)

func fixedNow() time.Time {
	return time.Date(2025, 12, 3, 10, 0, 0, 0, time.UTC)
}

// testEnv sets up a temp store, SQLite DB, registry with one project, service,
// and router for testing. authToken=="" means disabled mode.
func testEnv(t *testing.T, authToken string) (*docservice.Service, http.Handler) {
	t.Helper()
	return testEnvFull(t, authToken != "", authToken, nil)
}

func testEnvFull(t *testing.T, authEnabled bool, authToken string, sseHandler http.Handler) (*docservice.Service, http.Handler) {
	t.Helper()

	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	dbFile, err := os.CreateTemp("", "raido-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
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
	router := NewRouter(svc, reg, authEnabled, authToken, sseHandler)
	return svc, router
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateProject(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/projects", map[string]string{"name": "Backend"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create project = %d, body = %s", w.Code, w.Body.String())
	}
	var p registry.Project
	_ = json.Unmarshal(w.Body.Bytes(), &p)
	if p.ID != "backend" {
		t.Errorf("id = %q", p.ID)
	}

	// Duplicate slug → 409.
	w = doJSON(t, router, http.MethodPost, "/projects", map[string]string{"name": "backend"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate project = %d, want 409", w.Code)
	}
}

func TestListProjects(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/projects", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list projects = %d", w.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	projects := resp["projects"].([]any)
	if len(projects) != 1 {
		t.Errorf("len(projects) = %d, want 1", len(projects))
	}
}

func TestCreateAndGetDoc(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/docs", map[string]string{"project": "mobile-app"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create doc = %d, body = %s", w.Code, w.Body.String())
	}
	var created DocDetail
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.DocID != "REQ-20251203-mobile-app" {
		t.Errorf("doc_id = %q", created.DocID)
	}

	w = doJSON(t, router, http.MethodGet, "/docs/"+created.DocID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get doc = %d", w.Code)
	}
	var got DocDetail
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Title != "mobile-app request log" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestCreateDoc_UnknownProject(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/docs", map[string]string{"project": "ghost"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown project = %d, want 404", w.Code)
	}
}

func TestCreateDoc_Duplicate(t *testing.T) {
	_, router := testEnv(t, "")

	body := map[string]string{"project": "mobile-app"}
	if w := doJSON(t, router, http.MethodPost, "/docs", body); w.Code != http.StatusCreated {
		t.Fatalf("first create = %d", w.Code)
	}
	w := doJSON(t, router, http.MethodPost, "/docs", body)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestGetDoc_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/docs/REQ-20251203-ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing doc = %d, want 404", w.Code)
	}
}

func TestDeleteDoc(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/docs", map[string]string{"project": "mobile-app"})
	var created DocDetail
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	w = doJSON(t, router, http.MethodDelete, "/docs/"+created.DocID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/docs/"+created.DocID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestDeleteDoc_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodDelete, "/docs/REQ-20251203-ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete missing = %d, want 404", w.Code)
	}
}

func TestAppendItem(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/docs", map[string]string{"project": "mobile-app"})
	var created DocDetail
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	w = doJSON(t, router, http.MethodPost, "/docs/"+created.DocID+"/items", map[string]any{
		"title": "crash on rotate",
		"notes": "repro steps attached",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("append = %d, body = %s", w.Code, w.Body.String())
	}
	var doc DocDetail
	_ = json.Unmarshal(w.Body.Bytes(), &doc)
	if doc.ItemCount != 1 || len(doc.Items) != 1 {
		t.Fatalf("item not appended: %+v", doc.Document)
	}
	if doc.Items[0].ID != created.DocID+"-01" {
		t.Errorf("item id = %q", doc.Items[0].ID)
	}
	// Registry defaults should have filled the enumeration fields.
	if doc.Items[0].Type != "bug" || doc.Items[0].Status != "open" {
		t.Errorf("defaults not applied: %+v", doc.Items[0])
	}
}

func TestAppendItem_ValidationFailed(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/docs", map[string]string{"project": "mobile-app"})
	var created DocDetail
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	// Missing title.
	w = doJSON(t, router, http.MethodPost, "/docs/"+created.DocID+"/items", map[string]any{})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty draft = %d, want 422", w.Code)
	}

	// Unknown type.
	w = doJSON(t, router, http.MethodPost, "/docs/"+created.DocID+"/items", map[string]any{
		"title": "x", "type": "meltdown",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad type = %d, want 422", w.Code)
	}
}

func TestAppendItem_DocNotFound(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/docs/REQ-20251203-ghost/items", map[string]any{"title": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("append to missing doc = %d, want 404", w.Code)
	}
}

func TestAppendItem_DocumentFull(t *testing.T) {
	svc, router := testEnv(t, "")
	ctx := context.Background()

	created, err := svc.CreateDocument(ctx, "mobile-app", "")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 99; i++ {
		if _, err := svc.AppendItem(ctx, created.DocID, models.ItemDraft{Title: "filler"}); err != nil {
			t.Fatalf("append %d: %v", i+1, err)
		}
	}

	w := doJSON(t, router, http.MethodPost, "/docs/"+created.DocID+"/items", map[string]any{"title": "overflow"})
	if w.Code != http.StatusConflict {
		t.Errorf("append to full doc = %d, want 409", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("document is full")) {
		t.Errorf("body = %s, want 'document is full'", w.Body.String())
	}
}

func TestListDocs(t *testing.T) {
	_, router := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/docs", map[string]string{"project": "mobile-app"})

	w := doJSON(t, router, http.MethodGet, "/docs?project=mobile-app", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	docs := resp["docs"].([]any)
	if len(docs) != 1 {
		t.Errorf("len(docs) = %d, want 1", len(docs))
	}
	if resp["total"].(float64) != 1 {
		t.Errorf("total = %v, want 1", resp["total"])
	}
}

func TestSearchEndpoint(t *testing.T) {
	svc, router := testEnv(t, "")
	ctx := context.Background()

	created, err := svc.CreateDocument(ctx, "mobile-app", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AppendItem(ctx, created.DocID, models.ItemDraft{Title: "bug report", Notes: "uniquetoken here"}); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, router, http.MethodGet, "/search?q=uniquetoken", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	results := resp["results"].([]any)
	if len(results) != 1 {
		t.Errorf("search results = %d, want 1", len(results))
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/docs", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := doJSON(t, router, http.MethodGet, "/docs", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/docs", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/docs", nil)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvFull(t, true, "secret", stubSSE())

	w := doJSON(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	_, router := testEnvFull(t, false, "", stubSSE())

	// Disabled mode → should not 401. The stub blocks, so cancel quickly.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

// stubSSE is a minimal SSE handler that writes headers and blocks until
// the request context is done.
func stubSSE() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}
