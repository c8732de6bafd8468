package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// AWS gateway endpoints and tools
const (
	AWSToolCallPath = "/mcp/tools/call"
	AWSToolsPath    = "/mcp/tools"
	AWSHealthPath   = "/health"

	AWSToolGetCost = "get_cost"
	AWSToolAudit   = "run_finops_audit"
)

// HealthStatus is the outcome of an AWS gateway health probe
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AWSClient talks to the AWS MCP gateway, which exposes every operation as a named tool
type AWSClient struct {
	*Client
}

// NewAWSClient creates an AWS gateway client
func NewAWSClient(baseURL string, opts ...Option) *AWSClient {
	return &AWSClient{Client: NewClient(provider.ProviderAWS, baseURL, opts...)}
}

// CallTool invokes a gateway tool with the given arguments
func (c *AWSClient) CallTool(ctx context.Context, tool string, arguments map[string]any) (json.RawMessage, error) {
	if arguments == nil {
		arguments = map[string]any{}
	}
	return c.Call(ctx, AWSToolCallPath, map[string]any{
		"tool":      tool,
		"arguments": arguments,
	})
}

// HealthCheck probes GET /health. It never fails: any transport error or non-2xx status is reported as unhealthy.
func (c *AWSClient) HealthCheck(ctx context.Context) HealthStatus {
	raw, err := c.get(ctx, AWSHealthPath)
	if err != nil {
		return HealthStatus{Healthy: false, Error: err.Error()}
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		// 2xx with an unexpected body still counts as reachable
		return HealthStatus{Healthy: true}
	}
	return HealthStatus{Healthy: true, Status: body.Status}
}

// ListTools returns the tools advertised by the gateway. Both {"tools": [...]} and a bare array are accepted.
func (c *AWSClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	raw, err := c.get(ctx, AWSToolsPath)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Tools []mcp.Tool `json:"tools"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Tools != nil {
		return wrapped.Tools, nil
	}

	var tools []mcp.Tool
	if err := json.Unmarshal(raw, &tools); err != nil {
		return nil, &provider.NormalizationError{
			Provider: provider.ProviderAWS,
			Reason:   "unexpected tool list shape",
			Err:      fmt.Errorf("failed to decode tools: %w", err),
		}
	}
	return tools, nil
}
