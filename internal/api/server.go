package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/themeindex/internal/analytics"
	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/config"
	"github.com/dgallion1/themeindex/internal/pipeline"
	"github.com/dgallion1/themeindex/internal/search"
	"github.com/dgallion1/themeindex/internal/summary"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators behind the HTTP API.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	Catalog      catalog.Store
	Analytics    analytics.Recorder
	// Summary is nil when no model is configured; AI endpoints then
	// answer 503.
	Summary *summary.Service
	// Blobs serves theme page exports. May be nil.
	Blobs pipeline.BlobStore
}

// Server is the HTTP API server for themeindex.
type Server struct {
	router    chi.Router
	orch      *pipeline.Orchestrator
	catalog   catalog.Store
	engine    *search.Engine
	analytics analytics.Recorder
	ai        *summary.Service
	blobs     pipeline.BlobStore
	log       *slog.Logger
	cfg       config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	rec := deps.Analytics
	if rec == nil {
		rec = analytics.NewMemory(analytics.DefaultRecent)
	}
	s := &Server{
		orch:      deps.Orchestrator,
		catalog:   deps.Catalog,
		engine:    search.NewEngine(deps.Catalog),
		analytics: rec,
		ai:        deps.Summary,
		blobs:     deps.Blobs,
		log:       log,
		cfg:       cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)

		r.Get("/api/search", s.handleSearch)
		r.Get("/api/search/suggest", s.handleSuggest)

		r.Get("/api/books", s.handleListBooks)
		r.Get("/api/books/{bookID}/themes", s.handleListThemes)
		r.Get("/api/themes/{themeID}", s.handleGetTheme)
		r.Get("/api/themes/{themeID}/pdf", s.handleThemePDF)
		r.Post("/api/themes/{themeID}/summary", s.handleSummary)
		r.Post("/api/themes/{themeID}/quiz", s.handleQuiz)

		r.Get("/api/stats/llm", s.handleLLMStats)
		r.Get("/api/stats/search", s.handleSearchStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.orch != nil {
		resp["queue_depth"] = s.orch.QueueDepth()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
