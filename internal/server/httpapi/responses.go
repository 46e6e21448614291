package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/notevault/internal/common"
)

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(context.Background(), "error encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{OK: false, Error: msg})
}

// mapError translates service sentinels into HTTP responses. Anything
// unrecognized is logged and hidden behind a plain 500.
func (s *Server) mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrConflict):
		s.writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, common.ErrBadRequest):
		s.writeError(w, http.StatusBadRequest, "bad request")
	case errors.Is(err, common.ErrInvalidCredentials):
		s.writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		s.writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrStoreUnconfigured):
		s.writeError(w, http.StatusNotImplemented, "file storage is not configured")
	default:
		s.logger.Error(context.Background(), "internal error", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.ErrBadRequest
	}
	return nil
}
