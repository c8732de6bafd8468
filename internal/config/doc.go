// Package config provides configuration management for the FinOps aggregation API.
//
// This package handles loading configuration from YAML files, applying
// environment variable overrides, setting defaults, and validating the
// configuration. The YAML file is optional: every setting has a default,
// so an empty path yields a working localhost setup.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// Supported environment variables:
//   - FINOPS_HTTP_PORT: HTTP server port (1-65535)
//   - FINOPS_LOG_LEVEL: Log level (debug, info, warn, error)
//   - FINOPS_API_TIMEOUT: Gateway call timeout in seconds (max 300)
//   - FINOPS_AWS_GATEWAY_URL: AWS gateway base URL (default http://localhost:3001)
//   - FINOPS_AZURE_GATEWAY_URL: Azure gateway base URL (default http://localhost:8000)
//   - FINOPS_GCP_GATEWAY_URL: GCP gateway base URL (default http://localhost:3002)
//   - FINOPS_BUDGET_BACKEND: Budget store backend (file or bolt)
//   - FINOPS_BUDGET_PATH: Budget store location
//   - FINOPS_AWS_PROFILE: Default AWS profile name
//   - FINOPS_GCP_PROJECT_ID: Default GCP project
//
// Example configuration file (config.yaml):
//
//	http_port: 8080
//	log_level: "info"
//	api_timeout: 30
//	health_interval: 60
//
//	gateways:
//	  aws_base_url: "http://localhost:3001"
//	  azure_base_url: "http://localhost:8000"
//	  gcp_base_url: "http://localhost:3002"
//
//	budgets:
//	  backend: file
//	  path: data/budgets.json
//
//	credentials:
//	  aws:
//	    profile: default
//	  azure:
//	    subscriptionId: "00000000-0000-0000-0000-000000000000"
//	  gcp:
//	    projectId: my-project
//
// Example usage:
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//		log.Fatalf("Failed to load config: %v", err)
//	}
//
//	fmt.Printf("AWS gateway: %s\n", cfg.Gateways.AWSBaseURL)
package config
