package aggregate

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/zgpcy/finops-dashboard-api/internal/credentials"
	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// Trend lookback bounds
const (
	DefaultTrendDays = 7
	MaxTrendDays     = 90
)

// TrendRequest asks for a daily cost series
type TrendRequest struct {
	Days               int
	ConnectedProviders []string // nil means every provider with usable credentials
	Credentials        CredentialSet
}

// TrendResult is the daily series, oldest day first
type TrendResult struct {
	Days   int                   `json:"days"`
	Trends []provider.TrendPoint `json:"trends"`
}

// Trend issues one cost call per day per provider and sums each day across providers.
// A failed call is zero for that provider on that day only.
func (o *Orchestrator) Trend(ctx context.Context, req TrendRequest) (TrendResult, error) {
	days := req.Days
	if days == 0 {
		days = DefaultTrendDays
	}
	if days < 1 || days > MaxTrendDays {
		return TrendResult{}, &provider.ValidationError{Field: "days", Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxTrendDays, req.Days)}
	}

	targets, err := parseProviders(req.ConnectedProviders, provider.All)
	if err != nil {
		return TrendResult{}, err
	}
	creds := o.usableCredentials(OperationTrend, targets, req.Credentials, false)

	ctx = detach(ctx)
	today := o.clock.Now()
	points := make([]provider.TrendPoint, days)

	fanOut(days, func(i int) {
		day := today.AddDate(0, 0, -(days - 1 - i))
		date := day.UTC().Format("2006-01-02")
		points[i] = provider.NewTrendPoint(date, 0, 0, 0)

		defer func() {
			if rec := recover(); rec != nil {
				o.logger.Error("Trend day failed", "date", date, "error", fmt.Sprint(rec))
				points[i] = provider.NewTrendPoint(date, 0, 0, 0)
			}
		}()
		points[i] = o.trendDay(ctx, date, DayWindow(day), creds)
	})

	return TrendResult{Days: days, Trends: points}, nil
}

// trendDay fetches one day from every provider concurrently
func (o *Orchestrator) trendDay(ctx context.Context, date string, w Window, creds []credentials.Credentials) provider.TrendPoint {
	results := make([]Result[provider.CostSummary], len(creds))
	fanOut(len(creds), func(i int) {
		results[i] = o.fetchCost(ctx, creds[i], w)
	})

	point := provider.NewTrendPoint(date, 0, 0, 0)
	for i, r := range results {
		if !r.OK() {
			o.degrade(OperationTrend, creds[i].Provider, r.Err)
			continue
		}
		point.Set(creds[i].Provider, r.Value.TotalCost)
	}
	return point
}

// usableCredentials resolves credentials for each target. GCP without a projectId is left out
// quietly; any other resolution failure is a degraded provider.
func (o *Orchestrator) usableCredentials(operation string, targets []provider.ProviderType, set CredentialSet, allProfiles bool) []credentials.Credentials {
	out := make([]credentials.Credentials, 0, len(targets))
	for _, p := range targets {
		overrides := set[p]
		if allProfiles && p != provider.ProviderGCP {
			overrides.AllProfiles = true
		}

		c, err := o.resolver.Resolve(p, overrides)
		if err != nil {
			if credentials.IsMissingProject(err) {
				o.logger.Debug("Skipping provider without project", "operation", operation, "provider", p)
				continue
			}
			o.degrade(operation, p, err)
			continue
		}
		out = append(out, c)
	}
	return out
}

// parseProviders validates caller-supplied provider names. Nil input yields fallback.
func parseProviders(names []string, fallback []provider.ProviderType) ([]provider.ProviderType, error) {
	if names == nil {
		return fallback, nil
	}
	out := make([]provider.ProviderType, 0, len(names))
	for _, name := range names {
		p, err := provider.ParseProviderType(name)
		if err != nil {
			return nil, &provider.ValidationError{Field: "connectedProviders", Message: err.Error()}
		}
		out = append(out, p)
	}
	// Response order follows provider.All, not the caller's order
	return lo.Filter(provider.All, func(p provider.ProviderType, _ int) bool {
		return lo.Contains(out, p)
	}), nil
}
