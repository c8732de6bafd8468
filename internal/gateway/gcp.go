package gateway

import (
	"context"
	"encoding/json"

	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// GCP gateway endpoints
const (
	GCPCostPath        = "/api/cost"
	GCPAuditPath       = "/api/audit"
	GCPRecommenderPath = "/api/recommender"
	GCPTimeseriesPath  = "/api/metrics/timeseries"
)

// GCPClient talks to the GCP gateway. Every response is a {success, data} envelope.
type GCPClient struct {
	*Client
}

// NewGCPClient creates a GCP gateway client
func NewGCPClient(baseURL string, opts ...Option) *GCPClient {
	return &GCPClient{Client: NewClient(provider.ProviderGCP, baseURL, opts...)}
}

// Cost fetches billing data for a project
func (c *GCPClient) Cost(ctx context.Context, args map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, GCPCostPath, args)
}

// Audit fetches instances and disks for a project
func (c *GCPClient) Audit(ctx context.Context, args map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, GCPAuditPath, args)
}

// Recommender fetches cost recommendations for a project
func (c *GCPClient) Recommender(ctx context.Context, args map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, GCPRecommenderPath, args)
}

// Timeseries fetches Cloud Monitoring time series
func (c *GCPClient) Timeseries(ctx context.Context, args map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, GCPTimeseriesPath, args)
}
