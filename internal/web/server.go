// Package web provides the HTTP server and handlers for the CSV editor.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/csvedit/internal/config"
	"github.com/JonMunkholm/csvedit/internal/core"
	"github.com/JonMunkholm/csvedit/internal/session"
	"github.com/JonMunkholm/csvedit/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for the CSV editor.
type Server struct {
	cfg      *config.Config
	sessions *session.Store
	importer *core.Importer
	limiter  *core.ImportLimiter
	rate     *rateLimiter

	router *chi.Mux
	server *http.Server
}

// NewServer wires routes and middleware around the given components.
func NewServer(cfg *config.Config, sessions *session.Store, importer *core.Importer, limiter *core.ImportLimiter) *Server {
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		importer: importer,
		limiter:  limiter,
		router:   chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.rate = newRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute)
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.rate != nil {
		s.router.Use(s.rate.middleware(s))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.router.Get("/healthz", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/", s.handleIndex)
		s.mountTableRoutes(r)

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(&s.cfg.Security))
			r.Get("/table", s.handleTable)
			s.mountTableRoutes(r)
		})
	})
}

// mountTableRoutes registers the editor operations. The same handlers serve
// the page and the JSON API; wantsJSON picks the response format.
func (s *Server) mountTableRoutes(r chi.Router) {
	r.Post("/import", s.handleImport)
	r.Post("/rows", s.handleAddRow)
	r.Post("/rows/{row}/edit", s.handleBeginEdit)
	r.Post("/rows/{row}/cells", s.handleSetCell)
	r.Post("/rows/{row}/save", s.handleSaveEdit)
	r.Post("/rows/{row}/delete", s.handleDeleteRow)
	r.Get("/export/csv", s.handleExportCSV)
	r.Get("/export/xlsx", s.handleExportXLSX)
}

// Start listens on the configured address until Shutdown is called.
// It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background work.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rate != nil {
		s.rate.stop()
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
