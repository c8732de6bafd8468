package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig_Success(t *testing.T) {
	configPath := writeConfig(t, `
http_port: 9000
log_level: "debug"
api_timeout: 45

gateways:
  aws_base_url: "http://aws-mcp:3001"
  azure_base_url: "http://azure-mcp:8000"
  gcp_base_url: "https://gcp-mcp.internal"

budgets:
  backend: bolt
  path: /var/lib/finops/budgets.db

credentials:
  aws:
    profile: finance
  gcp:
    projectId: acme-prod
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"HTTPPort", cfg.HTTPPort, 9000},
		{"LogLevel", cfg.LogLevel, "debug"},
		{"APITimeout", cfg.APITimeout, 45},
		{"AWSBaseURL", cfg.Gateways.AWSBaseURL, "http://aws-mcp:3001"},
		{"AzureBaseURL", cfg.Gateways.AzureBaseURL, "http://azure-mcp:8000"},
		{"GCPBaseURL", cfg.Gateways.GCPBaseURL, "https://gcp-mcp.internal"},
		{"BudgetBackend", cfg.Budgets.Backend, "bolt"},
		{"BudgetPath", cfg.Budgets.Path, "/var/lib/finops/budgets.db"},
		{"AWSProfile", cfg.Credentials.AWS["profile"], "finance"},
		{"GCPProject", cfg.Credentials.GCP["projectId"], "acme-prod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoad_EmptyPath_UsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v, want nil", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"HTTPPort", cfg.HTTPPort, 8080},
		{"LogLevel", cfg.LogLevel, "info"},
		{"APITimeout", cfg.APITimeout, 30},
		{"HealthInterval", cfg.HealthInterval, 60},
		{"AWSBaseURL", cfg.Gateways.AWSBaseURL, "http://localhost:3001"},
		{"AzureBaseURL", cfg.Gateways.AzureBaseURL, "http://localhost:8000"},
		{"GCPBaseURL", cfg.Gateways.GCPBaseURL, "http://localhost:3002"},
		{"BudgetBackend", cfg.Budgets.Backend, "file"},
		{"BudgetPath", cfg.Budgets.Path, "data/budgets.json"},
		{"AWSProfile", cfg.Credentials.AWS["profile"], "default"},
		{"TracingEnabled", cfg.Tracing.Enabled, false},
		{"SampleRatio", cfg.Tracing.SampleRatio, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverrides_Success(t *testing.T) {
	configPath := writeConfig(t, `
http_port: 8080
gateways:
  aws_base_url: "http://aws-mcp:3001"
`)

	t.Setenv("FINOPS_HTTP_PORT", "9090")
	t.Setenv("FINOPS_LOG_LEVEL", "warn")
	t.Setenv("FINOPS_AWS_GATEWAY_URL", "http://override:4001")
	t.Setenv("FINOPS_GCP_PROJECT_ID", "env-project")
	t.Setenv("FINOPS_BUDGET_BACKEND", "bolt")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %v, want 9090 (env override)", cfg.HTTPPort)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %v, want warn (env override)", cfg.LogLevel)
	}
	if cfg.Gateways.AWSBaseURL != "http://override:4001" {
		t.Errorf("AWSBaseURL = %v, want env override", cfg.Gateways.AWSBaseURL)
	}
	if cfg.Gateways.AzureBaseURL != DefaultAzureBaseURL {
		t.Errorf("AzureBaseURL = %v, want default", cfg.Gateways.AzureBaseURL)
	}
	if cfg.Credentials.GCP["projectId"] != "env-project" {
		t.Errorf("GCP projectId = %v, want env-project", cfg.Credentials.GCP["projectId"])
	}
	if cfg.Budgets.Backend != BudgetBackendBolt {
		t.Errorf("Budgets.Backend = %v, want bolt", cfg.Budgets.Backend)
	}
}

func TestLoad_InvalidEnvInteger_Error(t *testing.T) {
	t.Setenv("FINOPS_API_TIMEOUT", "soon")

	_, err := Load("")
	if err == nil {
		t.Fatal("Load() error = nil, want error for non-integer FINOPS_API_TIMEOUT")
	}
	if !strings.Contains(err.Error(), "FINOPS_API_TIMEOUT") {
		t.Errorf("error should name the variable, got %v", err)
	}
}

func TestValidate_InvalidHTTPPort_Error(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"port too low", 0},
		{"port too high", 70000},
		{"negative port", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.HTTPPort = tt.port

			if err := validate(cfg); err == nil {
				t.Errorf("validate() error = nil, want error for port %d", tt.port)
			}
		})
	}
}

func TestValidate_APITimeout_Error(t *testing.T) {
	for _, timeout := range []int{-5, 301} {
		cfg := Default()
		cfg.APITimeout = timeout

		if err := validate(cfg); err == nil {
			t.Errorf("validate() error = nil, want error for api_timeout %d", timeout)
		}
	}
}

func TestValidate_GatewayURL_Error(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"missing scheme", "localhost:3001"},
		{"unsupported scheme", "ftp://localhost:3001"},
		{"no host", "http://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Gateways.GCPBaseURL = tt.url

			if err := validate(cfg); err == nil {
				t.Errorf("validate() error = nil, want error for %q", tt.url)
			}
		})
	}
}

func TestLoad_TracingEnvOverrides(t *testing.T) {
	t.Setenv("FINOPS_TRACING_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if !cfg.Tracing.Enabled {
		t.Error("Tracing.Enabled = false, want true (env override)")
	}
	if cfg.Tracing.Endpoint != "otel-collector:4317" {
		t.Errorf("Tracing.Endpoint = %v, want otel-collector:4317", cfg.Tracing.Endpoint)
	}

	t.Setenv("FINOPS_TRACING_ENABLED", "sometimes")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "FINOPS_TRACING_ENABLED") {
		t.Errorf("Load() error = %v, want error naming FINOPS_TRACING_ENABLED", err)
	}
}

func TestValidate_SampleRatio_Error(t *testing.T) {
	for _, ratio := range []float64{-0.1, 1.5} {
		cfg := Default()
		cfg.Tracing.SampleRatio = ratio
		if err := validate(cfg); err == nil {
			t.Errorf("validate() error = nil, want error for sample_ratio %v", ratio)
		}
	}
}

func TestValidate_UnknownBudgetBackend_Error(t *testing.T) {
	cfg := Default()
	cfg.Budgets.Backend = "postgres"

	if err := validate(cfg); err == nil {
		t.Error("validate() error = nil, want error for unknown backend")
	}
}

func TestLoad_MissingFile_Error(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() error = nil, want error for missing file")
	}
}

func TestLoad_MalformedYAML_Error(t *testing.T) {
	configPath := writeConfig(t, `
gateways:
  aws_base_url: "http://aws"
    invalid_nested:
- this: is
  : malformed
    yaml: [[[
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() error = nil, want error for malformed YAML")
	}
}
