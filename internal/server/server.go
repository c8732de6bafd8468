package server

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zgpcy/finops-dashboard-api/internal/aggregate"
	"github.com/zgpcy/finops-dashboard-api/internal/budget"
	"github.com/zgpcy/finops-dashboard-api/internal/clock"
	"github.com/zgpcy/finops-dashboard-api/internal/collector"
	"github.com/zgpcy/finops-dashboard-api/internal/config"
	"github.com/zgpcy/finops-dashboard-api/internal/gateway"
	"github.com/zgpcy/finops-dashboard-api/internal/logger"
	"github.com/zgpcy/finops-dashboard-api/internal/provider"
	"github.com/zgpcy/finops-dashboard-api/internal/version"
)

//go:embed templates/index.html
var indexTemplate string

var indexTmpl = template.Must(template.New("index").Parse(indexTemplate))

// HTTP server timeout constants
const (
	DefaultReadTimeout  = 15 * time.Second // Maximum duration for reading the entire request
	DefaultWriteTimeout = 15 * time.Second // Added on top of the gateway call timeout for writes
	DefaultIdleTimeout  = 60 * time.Second // Maximum amount of time to wait for the next request
)

// indexPageData holds template data for the index page
type indexPageData struct {
	StatusClass    string
	StatusText     string
	LastProbe      string
	ProbeError     string
	HealthInterval int
	AWSGateway     string
	AzureGateway   string
	GCPGateway     string
	BudgetBackend  string
	Version        string
}

// Dependencies are the components the HTTP handlers call into
type Dependencies struct {
	Orchestrator *aggregate.Orchestrator
	AWS          *gateway.AWSClient
	Budgets      budget.Store
	Collector    *collector.GatewayCollector
	Gatherer     prometheus.Gatherer // defaults to prometheus.DefaultGatherer
	Clock        clock.Clock         // defaults to the real clock
}

// Server represents the HTTP server
type Server struct {
	server       *http.Server
	echo         *echo.Echo
	orchestrator *aggregate.Orchestrator
	aws          *gateway.AWSClient
	budgets      budget.Store
	collector    *collector.GatewayCollector
	clock        clock.Clock
	cfg          *config.Config
	logger       *logger.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, deps Dependencies, log *logger.Logger) *Server {
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Clock == nil {
		deps.Clock = clock.RealClock{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:      e,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: time.Duration(cfg.APITimeout)*time.Second + DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
		},
		echo:         e,
		orchestrator: deps.Orchestrator,
		aws:          deps.AWS,
		budgets:      deps.Budgets,
		collector:    deps.Collector,
		clock:        deps.Clock,
		cfg:          cfg,
		logger:       log,
	}

	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("Handled request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds())
			return nil
		},
	}))

	// Register handlers
	e.GET("/", s.handleIndex)
	e.GET("/health", s.handleHealth)
	e.GET("/ready", s.handleReady)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api")
	api.GET("/aggregate/trend", s.handleTrend)
	api.POST("/aggregate/trend", s.handleTrend)
	api.GET("/aggregate/efficiency", s.handleEfficiency)
	api.POST("/aggregate/savings", s.handleSavings)
	api.POST("/providers/:provider/cost", s.handleProviderCost)
	api.GET("/providers/aws/health", s.handleAWSHealth)
	api.GET("/providers/aws/tools", s.handleAWSTools)
	api.POST("/providers/gcp/timeseries", s.handleTimeseries)
	api.GET("/budgets", s.handleListBudgets)
	api.POST("/budgets", s.handleSetBudget)
	api.DELETE("/budgets", s.handleDeleteBudget)

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "address", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// handleError maps validation errors to 400 and everything else to 500.
// Router 404 and 405 keep their status.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := err.Error()

	var he *echo.HTTPError
	switch {
	case provider.IsValidation(err):
		status = http.StatusBadRequest
	case errors.As(err, &he) && (he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed):
		status = he.Code
		message = fmt.Sprint(he.Message)
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, errorResponse{Success: false, Error: message})
	}
	if err != nil {
		s.logger.Error("Failed to write error response", "error", err)
	}
}

// handleIndex serves a simple landing page
func (s *Server) handleIndex(c echo.Context) error {
	ready := s.collector.IsReady()
	statusClass := "not-ready"
	statusText := "Not Ready"
	if ready {
		statusClass = "ready"
		statusText = "Ready"
	}

	lastProbe := s.collector.LastProbeTime()
	lastProbeText := "Never"
	if !lastProbe.IsZero() {
		lastProbeText = lastProbe.Format("2006-01-02 15:04:05 MST")
	}

	probeError := ""
	if err := s.collector.LastError(); err != nil {
		probeError = err.Error()
	}

	data := indexPageData{
		StatusClass:    statusClass,
		StatusText:     statusText,
		LastProbe:      lastProbeText,
		ProbeError:     probeError,
		HealthInterval: s.cfg.HealthInterval,
		AWSGateway:     s.cfg.Gateways.AWSBaseURL,
		AzureGateway:   s.cfg.Gateways.AzureBaseURL,
		GCPGateway:     s.cfg.Gateways.GCPBaseURL,
		BudgetBackend:  s.cfg.Budgets.Backend,
		Version:        version.Version,
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		s.logger.Error("Failed to execute index template", "error", err)
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// handleHealth handles health check requests (always returns 200 for liveness)
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady returns 200 once the first gateway probe has completed.
// An unhealthy gateway is reported but does not fail readiness.
func (s *Server) handleReady(c echo.Context) error {
	if !s.collector.IsReady() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not ready",
			"message": "waiting for initial gateway probe",
		})
	}

	body := map[string]any{"status": "ready"}
	if err := s.collector.LastError(); err != nil {
		body["gatewayError"] = err.Error()
	}
	return c.JSON(http.StatusOK, body)
}
