package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/icfy/sizebot/internal/config"
	"github.com/icfy/sizebot/internal/handlers"
	"github.com/icfy/sizebot/internal/logger"
	"github.com/icfy/sizebot/internal/middleware"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	middleware *middleware.Middleware
	log        *logger.Logger
}

// New creates a new HTTP server
func New(cfg *config.Config, handler *handlers.Handler, log *logger.Logger) *Server {
	mw := middleware.New(log)
	mw.SetAPIKeys(cfg.Security.APIKeys)

	return &Server{
		handler:    handler,
		middleware: mw,
		log:        log,
	}
}

// Start starts the HTTP server
func (s *Server) Start(cfg *config.Config) error {
	router := mux.NewRouter()

	// API for the dashboard frontend
	router.HandleFunc("/health", s.handler.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/chunks", s.handler.GetChunks).Methods(http.MethodGet)
	router.HandleFunc("/chart", s.handler.GetChart).Methods(http.MethodGet)
	router.HandleFunc("/push", s.handler.GetPush).Methods(http.MethodGet)
	router.HandleFunc("/push", s.handler.InsertPush).Methods(http.MethodPost)
	router.HandleFunc("/pushes", s.handler.GetPushes).Methods(http.MethodGet)
	router.HandleFunc("/pushstats", s.handler.GetPushStats).Methods(http.MethodGet)
	router.HandleFunc("/delta", s.handler.GetPushDelta).Methods(http.MethodGet)
	router.HandleFunc("/pushlog", s.handler.GetPushLog).Methods(http.MethodGet)
	router.HandleFunc("/removepush", s.handler.RemovePush).Methods(http.MethodPost)
	router.HandleFunc("/buildlog", s.handler.GetBuildLog).Methods(http.MethodGet)

	// API for webhooks from CI
	router.HandleFunc("/webhook/stats", s.handler.SubmitStats).Methods(http.MethodPost)
	router.HandleFunc("/webhook/stats-failed", s.handler.SubmitStatsFailed).Methods(http.MethodPost)

	// Apply middleware chain
	var handler http.Handler = router
	handler = s.middleware.APIKeyAuth(handler)
	handler = s.middleware.RateLimit(handler)
	handler = s.middleware.CORS(handler)
	handler = s.middleware.Security(handler)
	handler = s.middleware.Logging(handler)
	handler = s.middleware.Recovery(handler)

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	s.log.Infof("HTTP server listening on %s", cfg.Server.Address())

	// Start server in a goroutine
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Fatal("HTTP server error", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.log.Info("HTTP server shutdown complete")
	return nil
}
