package httpapi

import (
	"net/http"
	"time"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

// setTokenCookie writes an HttpOnly token cookie. Production gets
// Secure + SameSite=None so the cookie survives cross-site frontends;
// everything else stays on Lax so plain-HTTP development works.
func (s *Server) setTokenCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.IsProduction() {
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: sameSite,
		MaxAge:   int(ttl.Seconds()),
	})
}

func (s *Server) clearTokenCookie(w http.ResponseWriter, name string) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.IsProduction() {
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: sameSite,
		MaxAge:   -1,
	})
}
