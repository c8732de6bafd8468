package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zgpcy/finops-dashboard-api/internal/config"
	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// Set holds one client per provider and routes call specs to them
type Set struct {
	AWS   *AWSClient
	Azure *AzureClient
	GCP   *GCPClient
}

// NewSet builds the three gateway clients from configuration
func NewSet(gw config.Gateways, opts ...Option) *Set {
	return &Set{
		AWS:   NewAWSClient(gw.AWSBaseURL, opts...),
		Azure: NewAzureClient(gw.AzureBaseURL, opts...),
		GCP:   NewGCPClient(gw.GCPBaseURL, opts...),
	}
}

// Do executes a call spec. For AWS the endpoint names a tool; for Azure and GCP it is a path.
func (s *Set) Do(ctx context.Context, spec provider.CallSpec) (json.RawMessage, error) {
	switch spec.Provider {
	case provider.ProviderAWS:
		return s.AWS.CallTool(ctx, spec.Endpoint, spec.Args)
	case provider.ProviderAzure:
		return s.Azure.Call(ctx, spec.Endpoint, spec.Args)
	case provider.ProviderGCP:
		return s.GCP.Call(ctx, spec.Endpoint, spec.Args)
	default:
		return nil, fmt.Errorf("no gateway for provider %q", spec.Provider)
	}
}
