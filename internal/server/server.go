// Package server provides the HTTP API for resumerag.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/resumerag/internal/config"
	"github.com/hyperjump/resumerag/internal/indexer"
	"github.com/hyperjump/resumerag/internal/keyword"
	"github.com/hyperjump/resumerag/internal/matching"
	"github.com/hyperjump/resumerag/internal/metrics"
	"github.com/hyperjump/resumerag/internal/redact"
	"github.com/hyperjump/resumerag/internal/search"
	"github.com/hyperjump/resumerag/internal/storage"
)

// WatchService manages the watched inbox directories at runtime.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Deps are the components the handlers call into.
type Deps struct {
	Storage  storage.Storage
	Indexer  *indexer.Indexer
	Keywords keyword.Index
	Selector *search.Selector
	Search   *search.Engine
	Matching *matching.Engine
	Redactor *redact.Redactor
}

// Server is the HTTP server for the resumerag API.
type Server struct {
	storage  storage.Storage
	indexer  *indexer.Indexer
	keywords keyword.Index
	selector *search.Selector
	search   *search.Engine
	matching *matching.Engine
	redactor *redact.Redactor

	config     *config.Config
	configMu   sync.Mutex
	configPath string
	watch      WatchService

	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server. watch may be nil when no watcher runs; configPath, when set,
// is rewritten after watch directories change.
func NewServer(deps Deps, cfg *config.Config, logger *zap.Logger, watch WatchService, configPath string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Redactor == nil {
		deps.Redactor = redact.New()
	}
	return &Server{
		storage:    deps.Storage,
		indexer:    deps.Indexer,
		keywords:   deps.Keywords,
		selector:   deps.Selector,
		search:     deps.Search,
		matching:   deps.Matching,
		redactor:   deps.Redactor,
		config:     cfg,
		configPath: configPath,
		watch:      watch,
		logger:     logger,
	}
}

// Handler builds the router with all middleware and routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(metrics.Middleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Post("/api/ask", s.handleAsk)

	r.Route("/api/jobs", func(r chi.Router) {
		r.Post("/", s.handleCreateJob)
		r.Get("/", s.handleListJobs)
		r.Get("/{id}", s.handleGetJob)
		r.Post("/{id}/match", s.handleMatch)
	})

	r.Route("/api/resumes", func(r chi.Router) {
		r.Group(func(wr chi.Router) {
			if s.config.Server.RateLimitPerMin > 0 {
				wr.Use(httprate.LimitByIP(s.config.Server.RateLimitPerMin, 1*time.Minute))
			}
			wr.Post("/", s.handleUploadResume)
			wr.Post("/bulk", s.handleBulkUpload)
		})
		r.Get("/", s.handleListResumes)
		r.Get("/{id}", s.handleGetResume)
		r.Delete("/{id}", s.handleDeleteResume)
	})

	r.Post("/users", s.handleCreateUser)

	r.Route("/api/watch/directories", func(r chi.Router) {
		r.Get("/", s.handleWatchDirectoriesList)
		r.Post("/", s.handleWatchDirectoriesAdd)
		r.Delete("/", s.handleWatchDirectoriesRemove)
	})

	r.Get("/health", s.handleHealth)
	r.Get("/api/status", s.handleStatus)
	r.Handle("/metrics", promhttp.Handler())

	if dir := s.config.Storage.UploadDir; dir != "" {
		r.Handle(indexer.UploadURLPrefix+"*", http.StripPrefix(indexer.UploadURLPrefix, http.FileServer(http.Dir(dir))))
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
