package normalize

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// Lookup selects which profile or subscription block to read from a keyed AWS or Azure response.
// GCP responses are project scoped and ignore it.
type Lookup struct {
	Key string // AWS profile name, Azure subscription id or profile name
	All bool   // sum every block (all-profiles broadcast)
}

// Cost normalizes one provider's raw cost response. On error the summary is zero.
func Cost(p provider.ProviderType, raw json.RawMessage, lookup Lookup) (provider.CostSummary, error) {
	var (
		summary provider.CostSummary
		err     error
	)
	switch p {
	case provider.ProviderAWS:
		summary, err = keyedCost(awsShape, raw, lookup)
	case provider.ProviderAzure:
		summary, err = keyedCost(azureShape, raw, lookup)
	case provider.ProviderGCP:
		summary, err = gcpCost(raw)
	default:
		return provider.CostSummary{}, fmt.Errorf("no cost normalizer for provider %q", p)
	}
	if err != nil {
		return provider.CostSummary{}, err
	}
	// Sums of finite amounts can still overflow
	if !finite(summary.TotalCost) {
		return provider.CostSummary{}, &provider.NormalizationError{Provider: p, Reason: "total cost is not a finite number"}
	}
	return summary, nil
}

// Audit normalizes one provider's raw audit response into resource counts and a score
func Audit(p provider.ProviderType, raw json.RawMessage, lookup Lookup) (provider.AuditSummary, error) {
	switch p {
	case provider.ProviderAWS:
		return keyedAudit(awsShape, raw, lookup)
	case provider.ProviderAzure:
		return keyedAudit(azureShape, raw, lookup)
	case provider.ProviderGCP:
		return gcpAudit(raw)
	default:
		return provider.AuditSummary{}, fmt.Errorf("no audit normalizer for provider %q", p)
	}
}

// Recommendations normalizes a raw recommendation response. AWS recommendations are
// derived from a run_finops_audit response, Azure from Advisor, GCP from the Recommender.
func Recommendations(p provider.ProviderType, raw json.RawMessage, lookup Lookup) ([]provider.Recommendation, error) {
	var (
		recs []provider.Recommendation
		err  error
	)
	switch p {
	case provider.ProviderAWS:
		recs, err = awsRecommendations(raw, lookup)
	case provider.ProviderAzure:
		recs, err = azureRecommendations(raw)
	case provider.ProviderGCP:
		recs, err = gcpRecommendations(raw)
	default:
		return nil, fmt.Errorf("no recommendation normalizer for provider %q", p)
	}
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		if !finite(r.MonthlySavings) {
			return nil, &provider.NormalizationError{Provider: p, Reason: fmt.Sprintf("recommendation %q has non-finite savings", r.Description)}
		}
	}
	return recs, nil
}

// Score is the share of resources in use, 0..100. An empty inventory scores 100.
func Score(total, unused int) int {
	if total <= 0 {
		if unused <= 0 {
			return 100
		}
		return 0
	}
	score := int(math.Round(float64(total-unused) / float64(total) * 100))
	return min(max(score, 0), 100)
}
