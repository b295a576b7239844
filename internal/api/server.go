package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/eshaffer321/subtrack/internal/api/handlers"
	"github.com/eshaffer321/subtrack/internal/api/middleware"
	"github.com/eshaffer321/subtrack/internal/application/service"
	"github.com/eshaffer321/subtrack/internal/infrastructure/config"
	"github.com/eshaffer321/subtrack/internal/infrastructure/metrics"
	"github.com/eshaffer321/subtrack/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8085,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// ConfigFrom converts the server section of the application config.
func ConfigFrom(cfg config.ServerConfig) Config {
	c := DefaultConfig()
	c.Host = cfg.Host
	if cfg.Port != 0 {
		c.Port = cfg.Port
	}
	if len(cfg.AllowedOrigins) > 0 {
		c.AllowedOrigins = cfg.AllowedOrigins
	}
	return c
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Repo          storage.Repository
	Detection     *service.DetectionService
	Subscriptions *service.SubscriptionService
	Tokens        middleware.TokenVerifier
	Metrics       *metrics.Metrics // nil disables /metrics
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	deps       Deps
}

// NewServer creates a new API server.
func NewServer(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		logger: logger,
		deps:   deps,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Tracing)
	s.router.Use(middleware.Logging(s.logger))
	s.router.Use(chimw.Recoverer)

	// CORS
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = s.config.AllowedOrigins
	s.router.Use(middleware.CORS(corsConfig))

	if s.deps.Metrics != nil {
		s.router.Use(middleware.Metrics(s.deps.Metrics))
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	var pinger handlers.Pinger
	if s.deps.Repo != nil {
		pinger = s.deps.Repo
	}
	healthHandler := handlers.NewHealthHandler(pinger)
	s.router.Get("/health", healthHandler.ServeHTTP)

	if s.deps.Metrics != nil {
		s.router.Handle("/metrics", s.deps.Metrics.Handler())
	}

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(s.deps.Tokens, s.logger))

		// Detection and materialization
		if s.deps.Detection != nil {
			detectionHandler := handlers.NewDetectionHandler(s.deps.Detection, s.logger)
			r.Get("/transactions/{id}/detection", detectionHandler.Detect)
			r.Get("/transactions/{id}/subscription-match", detectionHandler.MatchSubscription)
			r.Post("/transactions/import", detectionHandler.Import)
			r.Post("/subscriptions/from-detection", detectionHandler.CreateFromDetection)
		}

		// Subscription management
		if s.deps.Subscriptions != nil {
			subsHandler := handlers.NewSubscriptionsHandler(s.deps.Subscriptions, s.logger)
			r.Get("/subscriptions", subsHandler.List)
			r.Get("/subscriptions/{id}", subsHandler.Get)
			r.Patch("/subscriptions/{id}/active", subsHandler.SetActive)
			r.Delete("/subscriptions/{id}", subsHandler.Delete)
			r.Put("/transactions/{id}/subscription", subsHandler.Link)
			r.Delete("/transactions/{id}/subscription", subsHandler.Unlink)
		}
	})
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start starts the HTTP server. It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
