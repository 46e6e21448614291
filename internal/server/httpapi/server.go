// Package httpapi exposes the service over a cookie-authenticated JSON
// API.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrijs2005/notevault/internal/logging"
	"github.com/dmitrijs2005/notevault/internal/server/config"
	"github.com/dmitrijs2005/notevault/internal/server/ratelimit"
	"github.com/dmitrijs2005/notevault/internal/server/services"
)

type Server struct {
	cfg     *config.Config
	logger  logging.Logger
	users   *services.UserService
	notes   *services.NoteService
	files   *services.FileService
	limiter *ratelimit.Limiter
}

// NewServer wires handlers to services. limiter may be nil, which disables
// rate limiting.
func NewServer(cfg *config.Config, logger logging.Logger,
	users *services.UserService, notes *services.NoteService, files *services.FileService,
	limiter *ratelimit.Limiter) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		users:   users,
		notes:   notes,
		files:   files,
		limiter: limiter,
	}
}

// Router builds the full route tree. Anonymous read paths stay outside
// the auth group; everything that touches owner state sits behind
// requireAuth.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.rateLimit)

	if s.cfg.CORSOrigin != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{s.cfg.CORSOrigin},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", headerFileName, headerMimeType, headerFileSize, headerNoteID},
			AllowCredentials: true,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Post("/refresh", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.handleMe)
		})
	})

	r.Route("/notes", func(r chi.Router) {
		r.Get("/public", s.handlePublicFeed)
		r.Get("/public/{slug}", s.handlePublicNoteBySlug)
		r.Get("/share/{token}", s.handleNoteByShareToken)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleNoteCreate)
			r.Get("/", s.handleNoteList)
			r.Get("/{id}", s.handleNoteGet)
			r.Put("/{id}", s.handleNoteUpdate)
			r.Delete("/{id}", s.handleNoteDelete)
			r.Post("/{id}/visibility", s.handleNoteSetVisibility)
		})
	})

	r.Route("/files", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/presign", s.handleFilePresign)
		r.Post("/confirm", s.handleFileConfirm)
		r.Post("/upload", s.handleFileUpload)
		r.Get("/{id}/download-url", s.handleFileDownloadURL)
		r.Get("/{id}/preview-url", s.handleFilePreviewURL)
		r.Delete("/{id}", s.handleFileDelete)
	})

	return r
}
