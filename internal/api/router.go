package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/veleda/ansuz/internal/chat"
	"github.com/veleda/ansuz/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *noteservice.Service, engine *chat.Engine, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc, engine)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Post("/notes/{id}/pin", h.TogglePin)

	// Search.
	r.Get("/search", h.Search)

	// Folders.
	r.Get("/folders", h.ListFolders)
	r.Post("/folders", h.CreateFolder)
	r.Delete("/folders/{id}", h.DeleteFolder)

	// Question answering.
	r.Post("/ask", h.Ask)
	r.Post("/ask/query", h.Query)

	// Embedding index management.
	r.Get("/embeddings/stats", h.EmbeddingStats)
	r.Post("/embeddings/rebuild", h.RebuildEmbeddings)

	return r
}
