// Package server provides the HTTP API for duplo.
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
	"github.com/hyperjump/duplo/internal/analysis"
	"github.com/hyperjump/duplo/internal/config"
	"github.com/hyperjump/duplo/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Analyzer is the analysis service as seen by the HTTP layer.
type Analyzer interface {
	AnalyzeFile(ctx context.Context, filename string, content []byte) (*models.AnalyzeResponse, error)
	Download(ctx context.Context, id string) (*analysis.Download, error)
	Ping(ctx context.Context) error
}

// WatchService manages inbox directories at runtime. Optional.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, scanExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the duplo API.
type Server struct {
	analyzer   Analyzer
	watch      WatchService
	config     *config.Config
	configPath string
	configMu   sync.Mutex
	gatherer   prometheus.Gatherer
	limiter    *rate.Limiter
	logger     *zap.Logger
	server     *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithWatch exposes the inbox directory endpoints. When configPath is set,
// directory changes are saved back to the config file.
func WithWatch(watch WatchService, configPath string) Option {
	return func(s *Server) {
		s.watch = watch
		s.configPath = configPath
	}
}

// WithMetrics serves the gatherer's metrics on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewServer creates a server for the given analyzer and configuration.
func NewServer(a Analyzer, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		analyzer: a,
		config:   cfg,
		logger:   logger,
	}
	if cfg.Server.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	}
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     s.config.Server.AllowedOrigins,
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:     []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:     []string{"Content-Disposition"},
		MaxAge:             300,
		OptionsPassthrough: false,
	}))

	r.With(s.rateLimit).Post("/api/analyze", s.handleAnalyze)
	r.Get("/api/download_processed/{taskID}", s.handleDownload)
	r.Route("/api/watch/directories", func(r chi.Router) {
		r.Get("/", s.handleWatchDirectoriesList)
		r.Post("/", s.handleWatchDirectoriesAdd)
		r.Delete("/", s.handleWatchDirectoriesRemove)
	})
	r.Get("/api/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
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

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			s.respondError(w, http.StatusTooManyRequests, msgTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
