package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/notevault/internal/server/models"
	"github.com/dmitrijs2005/notevault/internal/server/services"
)

// Direct uploads carry metadata in headers because the body is the raw
// object bytes.
const (
	headerFileName = "X-File-Name"
	headerMimeType = "X-Mime-Type"
	headerFileSize = "X-File-Size"
	headerNoteID   = "X-Note-Id"
)

type presignRequest struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	NoteID   string `json:"noteId"`
}

// presignResponse hands the client the URL to PUT the bytes to and the
// object key it must echo back on confirm.
type presignResponse struct {
	OK        bool   `json:"ok"`
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
}

type confirmRequest struct {
	Key      string `json:"key"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	NoteID   string `json:"noteId"`
}

type fileView struct {
	ID        string    `json:"id"`
	NoteID    *string   `json:"noteId"`
	FileName  string    `json:"fileName"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"size"`
	URL       *string   `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

func toFileView(f *models.File) fileView {
	v := fileView{
		ID:        f.ID,
		FileName:  f.FileName,
		MimeType:  f.MimeType,
		Size:      f.Size,
		CreatedAt: f.CreatedAt,
	}
	if f.NoteID.Valid {
		v.NoteID = &f.NoteID.String
	}
	if f.URL.Valid {
		v.URL = &f.URL.String
	}
	return v
}

func (s *Server) validateUploadSize(size int64) bool {
	return size > 0 && size <= s.cfg.MaxUploadBytes
}

func (s *Server) handleFilePresign(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req presignRequest
	if err := decodeJSON(r, &req); err != nil {
		s.mapError(w, err)
		return
	}
	if req.FileName == "" {
		s.writeError(w, http.StatusBadRequest, "fileName is required")
		return
	}
	if !s.validateUploadSize(req.Size) {
		s.writeError(w, http.StatusBadRequest, "invalid file size")
		return
	}

	url, key, err := s.files.Presign(r.Context(), id.UserID, services.UploadParams{
		FileName: req.FileName, MimeType: req.MimeType, Size: req.Size, NoteID: req.NoteID,
	})
	if err != nil {
		s.mapError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, presignResponse{OK: true, UploadURL: url, Key: key})
}

func (s *Server) handleFileConfirm(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		s.mapError(w, err)
		return
	}

	file, err := s.files.Confirm(r.Context(), id.UserID, req.Key, services.UploadParams{
		FileName: req.FileName, MimeType: req.MimeType, Size: req.Size, NoteID: req.NoteID,
	})
	if err != nil {
		s.mapError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toFileView(file))
}

// handleFileUpload accepts the object bytes directly. The declared size
// must match the body; a missing size header falls back to the body
// length.
func (s *Server) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	fileName := r.Header.Get(headerFileName)
	if fileName == "" {
		s.writeError(w, http.StatusBadRequest, "X-File-Name header is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	size := int64(len(body))
	if raw := r.Header.Get(headerFileSize); raw != "" {
		size, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid X-File-Size header")
			return
		}
	}

	file, err := s.files.UploadDirect(r.Context(), id.UserID, services.UploadParams{
		FileName: fileName,
		MimeType: r.Header.Get(headerMimeType),
		Size:     size,
		NoteID:   r.Header.Get(headerNoteID),
	}, body)
	if err != nil {
		s.mapError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toFileView(file))
}

func (s *Server) handleFileDownloadURL(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	url, err := s.files.DownloadURL(r.Context(), chi.URLParam(r, "id"), id.UserID)
	if err != nil {
		s.mapError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleFilePreviewURL(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	url, err := s.files.PreviewURL(r.Context(), chi.URLParam(r, "id"), id.UserID)
	if err != nil {
		s.mapError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleFileDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	if err := s.files.Delete(r.Context(), chi.URLParam(r, "id"), id.UserID); err != nil {
		s.mapError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
