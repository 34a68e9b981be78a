package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/carbon-marketplace/internal/api/middleware"
	"github.com/feral-file/carbon-marketplace/internal/api/rest"
	"github.com/feral-file/carbon-marketplace/internal/api/shared/constants"
	"github.com/feral-file/carbon-marketplace/internal/api/shared/executor"
	"github.com/feral-file/carbon-marketplace/internal/logger"
	"github.com/feral-file/carbon-marketplace/internal/ratelimit"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	AllowOrigins []string
	MaxImageSize int64
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	executor   executor.Executor
	auth       middleware.AuthConfig
	limiter    ratelimit.KeyedLimiter
	httpServer *http.Server
}

// New creates a new API server
func New(cfg Config, exec executor.Executor, auth middleware.AuthConfig, limiter ratelimit.KeyedLimiter) *Server {
	return &Server{
		config:   cfg,
		executor: exec,
		auth:     auth,
		limiter:  limiter,
	}
}

// Router builds the gin engine with middleware and routes
func (s *Server) Router() *gin.Engine {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = constants.MAX_IMAGE_FORM_MEMORY
	if s.config.MaxImageSize > 0 {
		router.MaxMultipartMemory = s.config.MaxImageSize
	}

	// Setup middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS(s.config.AllowOrigins))

	restHandler := rest.NewHandler(rest.Config{
		Debug:        s.config.Debug,
		MaxImageSize: s.config.MaxImageSize,
	}, s.executor)
	rest.SetupRoutes(router, restHandler, s.auth, middleware.RateLimit(s.limiter))

	return router
}

// Start initializes and starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
