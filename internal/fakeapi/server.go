// Package fakeapi is an in-memory implementation of the portfolio REST
// contract. Tests run it behind httptest; cmd/folio-devapi serves it for
// local frontend work.
package fakeapi

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Options configures the fake backend
type Options struct {
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server represents the fake HTTP API
type Server struct {
	opts   Options
	router *chi.Mux
	logger *slog.Logger

	mu       sync.Mutex
	data     *store
	revoked  map[string]bool
	messages []ContactMessage

	hitsMu sync.Mutex
	hits   map[string]int
}

// NewServer creates a fake API server
func NewServer(opts Options) *Server {
	if opts.JWTSecret == "" {
		opts.JWTSecret = "dev-secret-change-me"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		opts:    opts,
		logger:  opts.Logger,
		data:    newStore(),
		revoked: make(map[string]bool),
		hits:    make(map[string]int),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// Hits returns how many requests matched a route, e.g. "GET /api/me/projects"
func (s *Server) Hits(route string) int {
	s.hitsMu.Lock()
	defer s.hitsMu.Unlock()
	return s.hits[route]
}

// Revoke makes every later request carrying token fail with 401
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

// Messages returns contact messages received so far
func (s *Server) Messages() []ContactMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ContactMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/files/{name}", s.handleFile)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)

		r.Route("/portfolios", func(r chi.Router) {
			r.Get("/", s.handleListPortfolios)
			r.Get("/{slug}", s.handleGetPortfolio)
			r.Get("/{slug}/projects/{projectSlug}", s.handleGetPortfolioProject)
			r.Post("/{slug}/contact", s.handleContact)
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)
			r.Put("/settings/contact-email", s.handleUpdateContactEmail)

			mount(s, r, "/projects", projectCollection)
			r.Put("/projects/{id}/skills", s.handleSetProjectSkills)
			mount(s, r, "/experience", experienceCollection)
			mount(s, r, "/education", educationCollection)
			mount(s, r, "/certificates", certificateCollection)
			mount(s, r, "/social-links", socialLinkCollection)
			mount(s, r, "/skill-categories", categoryCollection)

			r.Get("/skill-categories/{id}/skills", s.handleListSkills)
			r.Post("/skill-categories/{id}/skills/batch", s.handleCreateSkills)
			r.Put("/skill-categories/{id}/skills/batch", s.handleUpdateSkills)
			r.Delete("/skill-categories/{id}/skills/batch", s.handleDeleteSkills)

			r.Post("/upload/avatar", s.handleUploadAvatar)
			r.Post("/upload/resume", s.handleUploadResume)
			r.Post("/upload/project/{id}/cover", s.handleUploadProjectCover)
			r.Post("/upload/skill/{id}/icon", s.handleUploadSkillIcon)
			r.Post("/upload/certificate/{id}/file", s.handleUploadCertificateFile)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog and counts route hits
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			if len(route) > 1 {
				route = strings.TrimSuffix(route, "/")
			}
			s.hitsMu.Lock()
			s.hits[r.Method+" "+route]++
			s.hitsMu.Unlock()

			s.logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
