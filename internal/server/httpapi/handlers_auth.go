package httpapi

import (
	"net/http"
	"net/mail"
	"time"

	"github.com/dmitrijs2005/notevault/internal/server/models"
)

const minPasswordLength = 8

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserView(u *models.User) userView {
	return userView{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.mapError(w, err)
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if len(req.Password) < minPasswordLength {
		s.writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	user, err := s.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.mapError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toUserView(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.mapError(w, err)
		return
	}

	user, pair, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.mapError(w, err)
		return
	}

	s.setTokenCookie(w, accessTokenCookie, pair.AccessToken, s.cfg.AccessTokenValidityDuration)
	s.setTokenCookie(w, refreshTokenCookie, pair.RefreshToken, s.cfg.RefreshTokenValidityDuration)
	s.writeJSON(w, http.StatusOK, toUserView(user))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearTokenCookie(w, accessTokenCookie)
	s.clearTokenCookie(w, refreshTokenCookie)
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleRefresh mints a new access token from the refresh cookie. The
// refresh cookie itself stays as issued at login.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		s.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	accessToken, err := s.users.Refresh(cookie.Value)
	if err != nil {
		s.mapError(w, err)
		return
	}

	s.setTokenCookie(w, accessTokenCookie, accessToken, s.cfg.AccessTokenValidityDuration)
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := s.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		s.mapError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toUserView(user))
}
