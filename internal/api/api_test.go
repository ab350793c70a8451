package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/veleda/ansuz/internal/ai"
	"github.com/veleda/ansuz/internal/chat"
	"github.com/veleda/ansuz/internal/noteservice"
	"github.com/veleda/ansuz/internal/retrieval"
	"github.com/veleda/ansuz/internal/testutil"
)

// stubCompleter answers every prompt with a fixed string and embeds
// every text to the same vector.
type stubCompleter struct {
	answer string
}

func (s *stubCompleter) Complete(_ context.Context, _ string, _ ai.CompletionOptions) (string, error) {
	return s.answer, nil
}

func (s *stubCompleter) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []float32{1, 0}, nil
}

// testEnv sets up a temp store, service, engine, and router for testing.
// authToken="" means auth is disabled.
func testEnv(t *testing.T, authToken string) (*noteservice.Service, http.Handler) {
	t.Helper()
	db := testutil.TestDB(t)
	svc := noteservice.NewService(db)
	engine := chat.NewEngine(db, retrieval.NewKeywordRetriever(db), &stubCompleter{answer: "stub answer"}, chat.Config{}, testutil.Logger())
	router := NewRouter(svc, engine, authToken != "", authToken)
	return svc, router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createNote(t *testing.T, router http.Handler, title, content string) NoteDetail {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/notes", map[string]string{"title": title, "content": content})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	return note
}

func TestCreateAndGetNote(t *testing.T) {
	_, router := testEnv(t, "")

	created := createNote(t, router, "", "<h1>Hello</h1><p>World</p>")
	if created.Title != "Hello" {
		t.Errorf("title = %q, want Hello", created.Title)
	}
	if created.FolderID == "" {
		t.Error("note not placed in default folder")
	}

	w := doJSON(t, router, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.ID != created.ID {
		t.Errorf("id = %q", note.ID)
	}
}

func TestCreateNote_UnknownFolder(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/notes", map[string]string{"content": "x", "folder_id": "ghost"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("create with unknown folder = %d, want 400", w.Code)
	}
}

func TestUpdateNote(t *testing.T) {
	_, router := testEnv(t, "")
	created := createNote(t, router, "v1", "first")

	w := doJSON(t, router, http.MethodPut, "/notes/"+created.ID, map[string]string{"title": "v2", "content": "second"})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Title != "v2" || note.Content != "second" {
		t.Errorf("note = %+v", note)
	}

	w = doJSON(t, router, http.MethodPut, "/notes/ghost", map[string]string{"content": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
}

func TestDeleteNote(t *testing.T) {
	_, router := testEnv(t, "")
	created := createNote(t, router, "bye", "gone")

	w := doJSON(t, router, http.MethodDelete, "/notes/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestTogglePin(t *testing.T) {
	_, router := testEnv(t, "")
	created := createNote(t, router, "pin me", "x")

	w := doJSON(t, router, http.MethodPost, "/notes/"+created.ID+"/pin", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pin = %d", w.Code)
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if !note.IsPinned {
		t.Error("note not pinned")
	}

	// Pinned notes list first.
	createNote(t, router, "other", "y")
	w = doJSON(t, router, http.MethodGet, "/notes", nil)
	var resp NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Notes) != 2 || resp.Notes[0].ID != created.ID {
		t.Errorf("pinned note not first: %+v", resp.Notes)
	}
}

func TestListNotesByFolder(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/folders", map[string]string{"name": "Work"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create folder = %d", w.Code)
	}
	var folder struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &folder)

	doJSON(t, router, http.MethodPost, "/notes", map[string]any{"title": "task", "content": "x", "folder_id": folder.ID})
	createNote(t, router, "home", "y")

	w = doJSON(t, router, http.MethodGet, "/notes?folder_id="+folder.ID, nil)
	var resp NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Notes) != 1 || resp.Notes[0].Title != "task" {
		t.Errorf("folder listing = %+v", resp.Notes)
	}
}

func TestDeleteFolder(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/folders", nil)
	var list FolderListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Folders) != 1 {
		t.Fatalf("folders = %+v", list.Folders)
	}
	defaultID := list.Folders[0].ID

	// The default folder cannot be deleted.
	w = doJSON(t, router, http.MethodDelete, "/folders/"+defaultID, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("delete default folder = %d, want 409", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	createNote(t, router, "find me", "uniquetoken here")
	createNote(t, router, "other", "nothing")

	w := doJSON(t, router, http.MethodGet, "/search?q=uniquetoken", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Notes) != 1 {
		t.Errorf("search results = %d, want 1", len(resp.Notes))
	}

	w = doJSON(t, router, http.MethodGet, "/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestAskEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	createNote(t, router, "Budget 2024", "quarterly budget review")

	w := doJSON(t, router, http.MethodPost, "/ask", map[string]string{"question": "budget"})
	if w.Code != http.StatusOK {
		t.Fatalf("ask = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AskResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Answer != "stub answer" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.RelevantNotes) != 1 {
		t.Errorf("relevant notes = %d, want 1", len(resp.RelevantNotes))
	}

	w = doJSON(t, router, http.MethodPost, "/ask", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("ask empty question = %d, want 400", w.Code)
	}
}

func TestQueryEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/ask/query", map[string]string{"question": "anything"})
	if w.Code != http.StatusOK {
		t.Fatalf("query = %d", w.Code)
	}
	var resp QueryResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.NoNotesFound {
		t.Error("NoNotesFound not set for empty store")
	}
	if !strings.Contains(resp.Prompt, "anything") {
		t.Error("prompt missing question text")
	}
}

func TestEmbeddingEndpoints(t *testing.T) {
	_, router := testEnv(t, "")
	createNote(t, router, "alpha", "first")
	createNote(t, router, "beta", "second")

	w := doJSON(t, router, http.MethodPost, "/embeddings/rebuild", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rebuild = %d, body = %s", w.Code, w.Body.String())
	}
	var rebuild RebuildResponse
	_ = json.Unmarshal(w.Body.Bytes(), &rebuild)
	if rebuild.Embedded != 2 {
		t.Errorf("embedded = %d, want 2", rebuild.Embedded)
	}

	w = doJSON(t, router, http.MethodGet, "/embeddings/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats = %d", w.Code)
	}
	var stats EmbeddingStatsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.TotalNotes != 2 || stats.MissingNotes != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	data, _ := json.Marshal(map[string]string{"title": "auth", "content": "test"})
	req := httptest.NewRequest(http.MethodPost, "/notes", bytes.NewReader(data))
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := doJSON(t, router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}
