package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/resumetailor/internal/ai"
	"github.com/dgallion1/resumetailor/internal/config"
	"github.com/dgallion1/resumetailor/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for resumetailor.
type Server struct {
	router  chi.Router
	service *pipeline.Service
	ai      *ai.Client
	proxy   *ai.Proxy
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(svc *pipeline.Service, client *ai.Client, proxy *ai.Proxy, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		service: svc,
		ai:      client,
		proxy:   proxy,
		log:     log,
		cfg:     cfg,
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
	r.Use(CORS)

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Provider credentials travel in the Authorization header, so the proxy
	// cannot sit behind the service key.
	r.Route("/api/proxy/{provider}", func(r chi.Router) {
		r.Get("/*", s.handleProxy)
		r.Post("/*", s.handleProxy)
		r.Options("/*", s.handleProxy)
	})

	// Authenticated endpoints when TAILOR_API_KEY is set.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.TailorAPIKey, s.log))

		r.Post("/api/extract-sections", s.handleExtractSections)
		r.Post("/api/extract-sections/batch", s.handleExtractBatch)
		r.Post("/api/rebuild-docx", s.handleRebuildDOCX)
		r.Get("/api/documents/{docID}", s.handleGetDocument)

		r.Post("/api/ai/complete", s.handleAIComplete)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
