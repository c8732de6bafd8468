package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zgpcy/finops-dashboard-api/internal/config"
	"github.com/zgpcy/finops-dashboard-api/internal/version"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "finops-api",
		Short: "Multi-cloud FinOps aggregation API",
		Long: `finops-api aggregates cost, audit and recommendation data from the
AWS, Azure and GCP gateways into cross-provider views.

A provider that fails is reported as zero and never fails the request.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(version.String() + "\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (defaults and FINOPS_* environment when empty)")
}

// loadConfig reads the configuration named by --config
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
