package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veleda/ansuz/internal/apperr"
	"github.com/veleda/ansuz/internal/chat"
	"github.com/veleda/ansuz/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *noteservice.Service
	engine *chat.Engine
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service, engine *chat.Engine) *Handler {
	return &Handler{svc: svc, engine: engine}
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, pinned first then most recently updated
//	@Tags			notes
//	@Produce		json
//	@Param			folder_id	query		string	false	"Restrict to one folder"
//	@Success		200			{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListNotes(r.Context(), r.URL.Query().Get("folder_id"))
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note by id
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get note failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" && req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title or content is required"))
		return
	}
	note, err := h.svc.CreateNote(r.Context(), req.Title, req.Content, req.FolderID, req.IsPinned)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusBadRequest, errorBody("folder not found"))
			return
		}
		slog.Error("create note failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update a note's title, content, or folder
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Note id"
//	@Param			body	body		UpdateNoteRequest	true	"Updated note"
//	@Success		200		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	id := chi.URLParam(r, "id")
	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	note, err := h.svc.UpdateNote(r.Context(), id, req.Title, req.Content, req.FolderID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("update note failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note and its embedding
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteNote(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("delete note failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TogglePin handles POST /api/notes/{id}/pin.
//
//	@Summary		Toggle a note's pinned flag
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/pin [post]
func (h *Handler) TogglePin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	note, err := h.svc.TogglePin(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("toggle pin failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Search handles GET /api/search.
//
//	@Summary		Search notes by title or content
//	@Tags			notes
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	NoteListResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	items, err := h.svc.Search(r.Context(), q)
	if err != nil {
		slog.Error("search failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// ListFolders handles GET /api/folders.
//
//	@Summary		List folders
//	@Tags			folders
//	@Produce		json
//	@Success		200	{object}	FolderListResponse
//	@Security		BearerAuth
//	@Router			/folders [get]
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.svc.ListFolders(r.Context())
	if err != nil {
		slog.Error("list folders failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, FolderListResponse{Folders: folders})
}

// CreateFolder handles POST /api/folders.
//
//	@Summary		Create a folder
//	@Tags			folders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateFolderRequest	true	"Folder to create"
//	@Success		201		{object}	models.Folder
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders [post]
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	folder, err := h.svc.CreateFolder(r.Context(), req.Name, req.ParentID)
	if err != nil {
		slog.Error("create folder failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

// DeleteFolder handles DELETE /api/folders/{id}.
//
//	@Summary		Delete a folder, moving its notes to the default folder
//	@Tags			folders
//	@Param			id	path	string	true	"Folder id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders/{id} [delete]
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteFolder(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("cannot delete default folder"))
		default:
			slog.Error("delete folder failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Ask handles POST /api/ask.
//
//	@Summary		Answer a question from the notes
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AskRequest	true	"Question"
//	@Success		200		{object}	AskResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ask [post]
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("question is required"))
		return
	}
	answer, err := h.engine.Ask(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, apperr.ErrSuperseded) {
			writeJSON(w, http.StatusConflict, errorBody("superseded by a newer question"))
			return
		}
		slog.Error("ask failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("completion failed"))
		return
	}
	writeJSON(w, http.StatusOK, AskResponse{
		Answer:        answer.Answer,
		RelevantNotes: answer.RelevantNotes,
	})
}

// Query handles POST /api/ask/query. It assembles the prompt without
// calling the completion backend, which is useful for debugging
// retrieval quality.
//
//	@Summary		Retrieve notes and assemble the prompt for a question
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AskRequest	true	"Question"
//	@Success		200		{object}	QueryResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ask/query [post]
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("question is required"))
		return
	}
	qr, err := h.engine.Query(r.Context(), req.Question)
	if err != nil {
		slog.Error("query failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, qr)
}

// EmbeddingStats handles GET /api/embeddings/stats.
//
//	@Summary		Report embedding coverage
//	@Tags			embeddings
//	@Produce		json
//	@Success		200	{object}	EmbeddingStatsResponse
//	@Security		BearerAuth
//	@Router			/embeddings/stats [get]
func (h *Handler) EmbeddingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats()
	if err != nil {
		slog.Error("embedding stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// RebuildEmbeddings handles POST /api/embeddings/rebuild. Missing and
// stale vectors are recomputed one note at a time.
//
//	@Summary		Recompute missing or stale embeddings
//	@Tags			embeddings
//	@Produce		json
//	@Success		200	{object}	RebuildResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/embeddings/rebuild [post]
func (h *Handler) RebuildEmbeddings(w http.ResponseWriter, r *http.Request) {
	stored, err := h.engine.EmbedMissing(r.Context())
	if err != nil {
		slog.Error("rebuild embeddings failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("embedding failed"))
		return
	}
	writeJSON(w, http.StatusOK, RebuildResponse{Embedded: stored})
}
