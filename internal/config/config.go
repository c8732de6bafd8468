package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Configuration validation constants
const (
	MinPort           = 1     // Minimum valid port number
	MaxPort           = 65535 // Maximum valid port number
	MaxAPITimeout     = 300   // Upper bound for gateway call timeout in seconds
	MinHealthInterval = 5     // Minimum gateway health probe interval in seconds

	// Default values
	DefaultHTTPPort       = 8080
	DefaultLogLevel       = "info"
	DefaultAPITimeout     = 30 // Gateway call timeout in seconds
	DefaultHealthInterval = 60 // Gateway health probe interval in seconds
	DefaultAWSBaseURL     = "http://localhost:3001"
	DefaultAzureBaseURL   = "http://localhost:8000"
	DefaultGCPBaseURL     = "http://localhost:3002"
	DefaultBudgetBackend  = BudgetBackendFile
	DefaultBudgetPath     = "data/budgets.json"
	DefaultAWSProfile     = "default"
	DefaultOTLPEndpoint   = "localhost:4317"
	DefaultSampleRatio    = 1.0
)

// Budget store backends
const (
	BudgetBackendFile = "file"
	BudgetBackendBolt = "bolt"
)

// Gateways holds the base URL of each provider gateway
type Gateways struct {
	AWSBaseURL   string `yaml:"aws_base_url"`
	AzureBaseURL string `yaml:"azure_base_url"`
	GCPBaseURL   string `yaml:"gcp_base_url"`
}

// Budgets configures budget persistence
type Budgets struct {
	Backend string `yaml:"backend"` // file or bolt
	Path    string `yaml:"path"`
}

// Tracing configures OpenTelemetry span export over OTLP/gRPC. Disabled by default.
type Tracing struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"` // host:port of the OTLP collector
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Credentials holds the default credential fields per provider. Request-supplied
// fields override these one by one.
type Credentials struct {
	AWS   map[string]string `yaml:"aws"`
	Azure map[string]string `yaml:"azure"`
	GCP   map[string]string `yaml:"gcp"`
}

// Config represents the application configuration
type Config struct {
	HTTPPort       int         `yaml:"http_port"`
	LogLevel       string      `yaml:"log_level"`
	APITimeout     int         `yaml:"api_timeout"`     // seconds
	HealthInterval int         `yaml:"health_interval"` // seconds
	Gateways       Gateways    `yaml:"gateways"`
	Budgets        Budgets     `yaml:"budgets"`
	Credentials    Credentials `yaml:"credentials"`
	Tracing        Tracing     `yaml:"tracing"`
}

// Load loads configuration from a YAML file and applies environment variable overrides.
// An empty path skips the file so the service can run on defaults and environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		// #nosec G304 -- Config file path is provided by administrator via CLI flag, not user input
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply defaults
	applyDefaults(&cfg)

	// Override with environment variables
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment variable error: %w", err)
	}

	// Validate
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration holding only default values
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults sets default values for configuration
func applyDefaults(cfg *Config) {
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = DefaultHTTPPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.APITimeout == 0 {
		cfg.APITimeout = DefaultAPITimeout
	}
	if cfg.HealthInterval == 0 {
		cfg.HealthInterval = DefaultHealthInterval
	}
	if cfg.Gateways.AWSBaseURL == "" {
		cfg.Gateways.AWSBaseURL = DefaultAWSBaseURL
	}
	if cfg.Gateways.AzureBaseURL == "" {
		cfg.Gateways.AzureBaseURL = DefaultAzureBaseURL
	}
	if cfg.Gateways.GCPBaseURL == "" {
		cfg.Gateways.GCPBaseURL = DefaultGCPBaseURL
	}
	if cfg.Budgets.Backend == "" {
		cfg.Budgets.Backend = DefaultBudgetBackend
	}
	if cfg.Budgets.Path == "" {
		cfg.Budgets.Path = DefaultBudgetPath
	}
	if cfg.Credentials.AWS == nil {
		cfg.Credentials.AWS = map[string]string{}
	}
	if cfg.Credentials.Azure == nil {
		cfg.Credentials.Azure = map[string]string{}
	}
	if cfg.Credentials.GCP == nil {
		cfg.Credentials.GCP = map[string]string{}
	}
	if cfg.Credentials.AWS["profile"] == "" {
		cfg.Credentials.AWS["profile"] = DefaultAWSProfile
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultOTLPEndpoint
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultSampleRatio
	}
}

// applyEnvOverrides applies environment variable overrides to configuration
func applyEnvOverrides(cfg *Config) error {
	// Override HTTP port
	if val := os.Getenv("FINOPS_HTTP_PORT"); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid FINOPS_HTTP_PORT: must be an integer, got %q", val)
		}
		cfg.HTTPPort = i
	}

	// Override log level
	if val := os.Getenv("FINOPS_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}

	// Override gateway timeout
	if val := os.Getenv("FINOPS_API_TIMEOUT"); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid FINOPS_API_TIMEOUT: must be an integer, got %q", val)
		}
		cfg.APITimeout = i
	}

	// Gateway base URLs are independently overridable
	if val := os.Getenv("FINOPS_AWS_GATEWAY_URL"); val != "" {
		cfg.Gateways.AWSBaseURL = val
	}
	if val := os.Getenv("FINOPS_AZURE_GATEWAY_URL"); val != "" {
		cfg.Gateways.AzureBaseURL = val
	}
	if val := os.Getenv("FINOPS_GCP_GATEWAY_URL"); val != "" {
		cfg.Gateways.GCPBaseURL = val
	}

	// Budget persistence
	if val := os.Getenv("FINOPS_BUDGET_BACKEND"); val != "" {
		cfg.Budgets.Backend = val
	}
	if val := os.Getenv("FINOPS_BUDGET_PATH"); val != "" {
		cfg.Budgets.Path = val
	}

	// Default credentials
	if val := os.Getenv("FINOPS_AWS_PROFILE"); val != "" {
		cfg.Credentials.AWS["profile"] = val
	}
	if val := os.Getenv("FINOPS_GCP_PROJECT_ID"); val != "" {
		cfg.Credentials.GCP["projectId"] = val
	}

	// Tracing
	if val := os.Getenv("FINOPS_TRACING_ENABLED"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid FINOPS_TRACING_ENABLED: must be a boolean, got %q", val)
		}
		cfg.Tracing.Enabled = b
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		cfg.Tracing.Endpoint = val
	}

	return nil
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.HTTPPort < MinPort || cfg.HTTPPort > MaxPort {
		return fmt.Errorf("http_port must be between %d and %d", MinPort, MaxPort)
	}

	// Validate API timeout
	if cfg.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be positive, got %d", cfg.APITimeout)
	}
	if cfg.APITimeout > MaxAPITimeout {
		return fmt.Errorf("api_timeout should not exceed %d seconds, got %d", MaxAPITimeout, cfg.APITimeout)
	}

	if cfg.HealthInterval < MinHealthInterval {
		return fmt.Errorf("health_interval must be at least %d seconds, got %d", MinHealthInterval, cfg.HealthInterval)
	}

	gateways := map[string]string{
		"aws_base_url":   cfg.Gateways.AWSBaseURL,
		"azure_base_url": cfg.Gateways.AzureBaseURL,
		"gcp_base_url":   cfg.Gateways.GCPBaseURL,
	}
	for name, raw := range gateways {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("gateways.%s is not a valid URL: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("gateways.%s must use http or https, got %q", name, raw)
		}
		if u.Host == "" {
			return fmt.Errorf("gateways.%s has no host: %q", name, raw)
		}
	}

	switch cfg.Budgets.Backend {
	case BudgetBackendFile, BudgetBackendBolt:
	default:
		return fmt.Errorf("budgets.backend must be %q or %q, got %q", BudgetBackendFile, BudgetBackendBolt, cfg.Budgets.Backend)
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be between 0 and 1, got %v", cfg.Tracing.SampleRatio)
	}

	return nil
}
