package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/notevault/internal/server/models"
	"github.com/dmitrijs2005/notevault/internal/server/repositories/notes"
	"github.com/dmitrijs2005/notevault/internal/server/services"
)

const publicFeedLimit = 100

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	DayKey  string `json:"dayKey"`
}

type visibilityRequest struct {
	Visibility string `json:"visibility"`
}

// noteView is the owner's full representation, exposure identifiers
// included.
type noteView struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Content    string      `json:"content,omitempty"`
	DayKey     string      `json:"dayKey,omitempty"`
	Visibility string      `json:"visibility"`
	Slug       *string     `json:"slug"`
	ShareToken *string     `json:"shareToken"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	Files      []*fileView `json:"files,omitempty"`
}

// sharedNoteView is what anonymous readers see. No owner identity beyond
// the feed email, no share token.
type sharedNoteView struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	DayKey    string      `json:"dayKey,omitempty"`
	Slug      *string     `json:"slug,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Files     []*fileView `json:"files,omitempty"`
}

type publicFeedItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	DayKey     string    `json:"dayKey,omitempty"`
	Slug       string    `json:"slug"`
	OwnerEmail string    `json:"ownerEmail"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toNoteView(n *models.Note, attached []*models.File, includeContent bool) noteView {
	v := noteView{
		ID:         n.ID,
		Title:      n.Title,
		DayKey:     n.DayKey,
		Visibility: string(n.Visibility),
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
	if includeContent {
		v.Content = n.Content
	}
	if n.Slug.Valid {
		v.Slug = &n.Slug.String
	}
	if n.ShareToken.Valid {
		v.ShareToken = &n.ShareToken.String
	}
	for _, f := range attached {
		fv := toFileView(f)
		v.Files = append(v.Files, &fv)
	}
	return v
}

func toSharedNoteView(nf *services.NoteWithFiles) sharedNoteView {
	n := nf.Note
	v := sharedNoteView{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		DayKey:    n.DayKey,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if n.Visibility == models.VisibilityPublic && n.Slug.Valid {
		v.Slug = &n.Slug.String
	}
	for _, f := range nf.Files {
		fv := toFileView(f)
		v.Files = append(v.Files, &fv)
	}
	return v
}

func (s *Server) handleNoteCreate(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.mapError(w, err)
		return
	}

	note, err := s.notes.Create(r.Context(), id.UserID, req.Title, req.Content, req.DayKey)
	if err != nil {
		s.mapError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toNoteView(note, nil, true))
}

// handleNoteList returns the owner's notes without content, newest first.
func (s *Server) handleNoteList(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	filter := notes.ListFilter{
		Query:  r.URL.Query().Get("q"),
		DayKey: r.URL.Query().Get("day"),
	}

	result, err := s.notes.List(r.Context(), id.UserID, filter)
	if err != nil {
		s.mapError(w, err)
		return
	}

	views := make([]noteView, 0, len(result))
	for _, n := range result {
		views = append(views, toNoteView(n, nil, false))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleNoteGet(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	nf, err := s.notes.Get(r.Context(), chi.URLParam(r, "id"), id.UserID)
	if err != nil {
		s.mapError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toNoteView(nf.Note, nf.Files, true))
}

func (s *Server) handleNoteUpdate(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.mapError(w, err)
		return
	}

	note, err := s.notes.Update(r.Context(), chi.URLParam(r, "id"), id.UserID,
		req.Title, req.Content, req.DayKey)
	if err != nil {
		s.mapError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toNoteView(note, nil, true))
}

func (s *Server) handleNoteDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	if err := s.notes.Delete(r.Context(), chi.URLParam(r, "id"), id.UserID); err != nil {
		s.mapError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleNoteSetVisibility(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req visibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.mapError(w, err)
		return
	}

	note, err := s.notes.SetVisibility(r.Context(), chi.URLParam(r, "id"), id.UserID,
		models.Visibility(req.Visibility))
	if err != nil {
		s.mapError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toNoteView(note, nil, true))
}

func (s *Server) handlePublicFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := s.notes.ListPublic(r.Context(), publicFeedLimit)
	if err != nil {
		s.mapError(w, err)
		return
	}

	items := make([]publicFeedItem, 0, len(feed))
	for _, n := range feed {
		items = append(items, publicFeedItem{
			ID: n.ID, Title: n.Title, DayKey: n.DayKey, Slug: n.Slug,
			OwnerEmail: n.OwnerEmail, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handlePublicNoteBySlug(w http.ResponseWriter, r *http.Request) {
	nf, err := s.notes.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSharedNoteView(nf))
}

func (s *Server) handleNoteByShareToken(w http.ResponseWriter, r *http.Request) {
	nf, err := s.notes.GetByShareToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSharedNoteView(nf))
}
