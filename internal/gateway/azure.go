package gateway

import (
	"context"
	"encoding/json"

	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// Azure gateway endpoints
const (
	AzureCostPath    = "/api/cost"
	AzureAuditPath   = "/api/audit"
	AzureAdvisorPath = "/api/advisor"
)

// AzureClient talks to the Azure gateway
type AzureClient struct {
	*Client
}

// NewAzureClient creates an Azure gateway client
func NewAzureClient(baseURL string, opts ...Option) *AzureClient {
	return &AzureClient{Client: NewClient(provider.ProviderAzure, baseURL, opts...)}
}

// Cost fetches cost by service and location
func (c *AzureClient) Cost(ctx context.Context, args map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, AzureCostPath, args)
}

// Audit fetches VM power states and unattached disks
func (c *AzureClient) Audit(ctx context.Context, args map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, AzureAuditPath, args)
}

// Advisor fetches Azure Advisor cost recommendations
func (c *AzureClient) Advisor(ctx context.Context, args map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, AzureAdvisorPath, args)
}
