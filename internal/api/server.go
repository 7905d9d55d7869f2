package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	mw "github.com/tphakala/wtracker/internal/api/middleware"
	"github.com/tphakala/wtracker/internal/conf"
	"github.com/tphakala/wtracker/internal/datastore"
	"github.com/tphakala/wtracker/internal/errors"
	"github.com/tphakala/wtracker/internal/logging"
	"github.com/tphakala/wtracker/internal/observability"
	"github.com/tphakala/wtracker/internal/weather"
)

// selectionCacheTTL bounds how long a served current forecast may lag
// behind scheduled ingestion.
const selectionCacheTTL = time.Minute

// Server is the HTTP server for the forecast API.
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	slogger  *slog.Logger

	// Dependencies
	dataStore datastore.Interface
	weather   *weather.Service
	metrics   *observability.Metrics

	// current forecast selections, flushed after every ingestion run
	selectionCache *cache.Cache

	startTime time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithMetrics exposes the registry of m on /metrics.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger replaces the service logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.slogger = logger
	}
}

// New creates a new HTTP server with the given settings and dependencies.
func New(settings *conf.Settings, ds datastore.Interface, svc *weather.Service, opts ...ServerOption) (*Server, error) {
	if ds == nil || svc == nil {
		return nil, errors.Newf("api server requires a datastore and a weather service").
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}

	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:    config,
		settings:  settings,
		dataStore: ds,
		weather:   svc,
		startTime: time.Now(),

		selectionCache: cache.New(selectionCacheTTL, 2*selectionCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.slogger == nil {
		s.slogger = logging.ForService("api")
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = config.Debug
	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.slogger.Info("HTTP server initialized", "address", config.Listen, "metrics", s.metrics != nil)
	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(mw.NewRequestLoggerWithSkipper(s.slogger, mw.SkipPaths("/health", "/metrics")))
	s.echo.Use(echomw.BodyLimit(s.config.BodyLimit))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	v1 := s.echo.Group("/api/v1")
	v1.GET("/locations", s.listLocations)
	v1.GET("/locations/:id/forecasts", s.listForecasts)
	v1.GET("/locations/:id/forecast/current", s.currentForecast)
	v1.GET("/forecasts/current", s.currentForecasts)
	v1.POST("/ingest", s.triggerIngest)
}

// healthCheck handles the server health check endpoint.
func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// Handler returns the routed handler, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves HTTP requests until ctx is done, then shuts the server down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.slogger.Info("starting HTTP server", "address", s.config.Listen)
		errCh <- s.echo.Start(s.config.Listen)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.New(fmt.Errorf("server error: %w", err)).
				Component("api").
				Category(errors.CategoryNetwork).
				Context("address", s.config.Listen).
				Build()
		}
		return nil
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.slogger.Info("shutting down HTTP server")
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
