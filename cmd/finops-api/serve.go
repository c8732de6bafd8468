package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/zgpcy/finops-dashboard-api/internal/aggregate"
	"github.com/zgpcy/finops-dashboard-api/internal/budget"
	"github.com/zgpcy/finops-dashboard-api/internal/collector"
	"github.com/zgpcy/finops-dashboard-api/internal/config"
	"github.com/zgpcy/finops-dashboard-api/internal/credentials"
	"github.com/zgpcy/finops-dashboard-api/internal/gateway"
	"github.com/zgpcy/finops-dashboard-api/internal/logger"
	"github.com/zgpcy/finops-dashboard-api/internal/server"
	"github.com/zgpcy/finops-dashboard-api/internal/telemetry"
	"github.com/zgpcy/finops-dashboard-api/internal/version"
)

// DefaultShutdownTimeout is the maximum time to wait for graceful shutdown
const DefaultShutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the aggregation API server",
	Long: `Start the HTTP API. Configuration comes from the optional --config file,
then FINOPS_* environment variables.

Examples:
  finops-api serve
  finops-api serve --config config.yaml
  FINOPS_HTTP_PORT=9000 FINOPS_GCP_PROJECT_ID=acme-prod finops-api serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel)
	log.Info("FinOps API starting",
		"version", version.Version,
		"config_path", configPath)
	log.Info("Configuration loaded successfully",
		"http_port", cfg.HTTPPort,
		"api_timeout_seconds", cfg.APITimeout,
		"health_interval_seconds", cfg.HealthInterval,
		"aws_gateway", cfg.Gateways.AWSBaseURL,
		"azure_gateway", cfg.Gateways.AzureBaseURL,
		"gcp_gateway", cfg.Gateways.GCPBaseURL,
		"budget_backend", cfg.Budgets.Backend,
		"tracing_enabled", cfg.Tracing.Enabled)

	shutdownTracing, err := telemetry.InitTracing(cmd.Context(), cfg.Tracing, version.Version)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("Failed to flush traces", "error", err)
		}
	}()
	if cfg.Tracing.Enabled {
		log.Info("Tracing enabled", "endpoint", cfg.Tracing.Endpoint, "sample_ratio", cfg.Tracing.SampleRatio)
	}

	timeout := gateway.WithTimeout(time.Duration(cfg.APITimeout) * time.Second)

	// The probe client stays outside the call metrics; probes have their own
	gatewayCollector := collector.NewGatewayCollector(gateway.NewAWSClient(cfg.Gateways.AWSBaseURL, timeout), cfg, log)
	if err := prometheus.Register(gatewayCollector); err != nil {
		return fmt.Errorf("failed to register collector: %w", err)
	}
	log.Info("Collector registered with Prometheus")

	// Register Go runtime metrics (memory, goroutines, GC stats)
	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		log.Warn("Failed to register Go collector", "error", err)
	}
	// Register process metrics (CPU, memory, file descriptors)
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		log.Warn("Failed to register process collector", "error", err)
	}

	gateways := gateway.NewSet(cfg.Gateways, timeout, gateway.WithObserver(gatewayCollector))
	orchestrator := aggregate.New(gateways, credentials.NewResolver(cfg.Credentials), log,
		aggregate.WithObserver(gatewayCollector))

	budgets, err := openBudgetStore(cfg.Budgets)
	if err != nil {
		return err
	}
	defer func() {
		if err := budgets.Close(); err != nil {
			log.Error("Failed to close budget store", "error", err)
		}
	}()
	log.Info("Budget store opened", "backend", cfg.Budgets.Backend, "path", cfg.Budgets.Path)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	log.Info("Starting background gateway probe")
	gatewayCollector.StartBackgroundProbe(ctx)

	srv := server.NewServer(cfg, server.Dependencies{
		Orchestrator: orchestrator,
		AWS:          gateways.AWS,
		Budgets:      budgets,
		Collector:    gatewayCollector,
	}, log)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info("Received shutdown signal, starting graceful shutdown", "signal", sig.String())

		// Stop background probing
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error during server shutdown: %w", err)
		}

		log.Info("Server stopped gracefully")
		return nil
	}
}

// openBudgetStore builds the configured budget backend
func openBudgetStore(cfg config.Budgets) (budget.Store, error) {
	switch cfg.Backend {
	case config.BudgetBackendBolt:
		store, err := budget.OpenBoltStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open budget database: %w", err)
		}
		return store, nil
	default:
		return budget.NewFileStore(cfg.Path), nil
	}
}
