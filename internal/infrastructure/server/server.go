package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/idlist/accounts-api/docs"
	httpHandlers "github.com/idlist/accounts-api/internal/adapters/http"
	"github.com/idlist/accounts-api/internal/adapters/repository"
	"github.com/idlist/accounts-api/internal/application/services"
	"github.com/idlist/accounts-api/internal/infrastructure/config"
	"github.com/idlist/accounts-api/internal/infrastructure/logger"
	"github.com/idlist/accounts-api/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	config  *config.Config
	logger  *logger.Logger
	repo    ports.AccountRepository
	metrics *Metrics
}

// New creates a new server instance. Everything the server needs comes from
// cfg; nothing is read from package-level state.
func New(cfg *config.Config, appLogger *logger.Logger) (*Server, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := echo.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout
	e.Debug = cfg.App.IsDevelopment()

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger, e.Debug)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
		repo:   repository.NewAccountFileRepository(cfg.Storage.DataFile),
	}

	if cfg.Metrics.Enabled {
		server.metrics = NewMetrics()
	}

	var observer ports.StoreObserver
	if server.metrics != nil {
		observer = server.metrics
	}

	accountService := services.NewAccountService(server.repo, observer, appLogger)
	accountHandler := httpHandlers.NewAccountHandler(accountService, appLogger)

	// Setup middleware
	server.setupMiddleware()

	// Setup metrics
	if server.metrics != nil {
		server.setupMetrics()
	}

	// Setup routes
	server.setupRoutes(accountHandler)

	return server, nil
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(accountHandler *httpHandlers.AccountHandler) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	api := s.echo.Group("/api")
	api.GET("/accounts", accountHandler.GetAccounts)
	api.POST("/accounts", accountHandler.ReplaceAccounts)
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// readinessCheck reports whether the backing file can be created or read,
// i.e. whether its directory exists.
func (s *Server) readinessCheck(c echo.Context) error {
	dir := filepath.Dir(s.repo.Path())
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "data_directory_unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}
