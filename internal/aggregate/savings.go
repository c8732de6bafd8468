package aggregate

import (
	"context"
	"sort"

	"github.com/samber/lo"

	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// SavingsRequest asks for recommendations from the providers the caller has connected
type SavingsRequest struct {
	ConnectedProviders []string // required; nil is a validation error
	Credentials        CredentialSet
}

// SavingsResult is the merged recommendation list, largest savings first
type SavingsResult struct {
	TotalPotentialSavings float64                           `json:"totalPotentialSavings"`
	RecommendationCount   int                               `json:"recommendationCount"`
	Recommendations       []provider.Recommendation         `json:"recommendations"`
	Breakdown             map[provider.ProviderType]float64 `json:"breakdown"`
}

// Savings queries only the listed providers (GCP only with a projectId), merges their
// recommendations and sorts them by monthly savings, highest first.
func (o *Orchestrator) Savings(ctx context.Context, req SavingsRequest) (SavingsResult, error) {
	if req.ConnectedProviders == nil {
		return SavingsResult{}, &provider.ValidationError{Field: "connectedProviders", Message: "is required"}
	}
	targets, err := parseProviders(req.ConnectedProviders, nil)
	if err != nil {
		return SavingsResult{}, err
	}
	creds := o.usableCredentials(OperationSavings, targets, req.Credentials, false)

	ctx = detach(ctx)
	results := make([]Result[[]provider.Recommendation], len(creds))
	fanOut(len(creds), func(i int) {
		results[i] = o.fetchRecommendations(ctx, creds[i])
	})

	merged := make([]provider.Recommendation, 0)
	for i, r := range results {
		if !r.OK() {
			o.degrade(OperationSavings, creds[i].Provider, r.Err)
			continue
		}
		merged = append(merged, r.Value...)
	}

	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].MonthlySavings > merged[b].MonthlySavings
	})

	// Subtotals come from the merged list itself
	breakdown := make(map[provider.ProviderType]float64, len(provider.All))
	for _, p := range provider.All {
		own := lo.Filter(merged, func(r provider.Recommendation, _ int) bool { return r.Provider == p })
		breakdown[p] = round2(lo.SumBy(own, func(r provider.Recommendation) float64 { return r.MonthlySavings }))
	}

	return SavingsResult{
		TotalPotentialSavings: round2(lo.SumBy(merged, func(r provider.Recommendation) float64 { return r.MonthlySavings })),
		RecommendationCount:   len(merged),
		Recommendations:       merged,
		Breakdown:             breakdown,
	}, nil
}
