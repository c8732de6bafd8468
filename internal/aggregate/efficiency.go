package aggregate

import (
	"context"
	"math"

	"github.com/samber/lo"

	"github.com/zgpcy/finops-dashboard-api/internal/clock"
	"github.com/zgpcy/finops-dashboard-api/internal/credentials"
	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// ProviderEfficiency is one provider's share of the efficiency metrics. A failed provider is all zeros.
type ProviderEfficiency struct {
	Score           int     `json:"score"`
	TotalResources  int     `json:"totalResources"`
	UnusedResources int     `json:"unusedResources"`
	MonthToDateCost float64 `json:"monthToDateCost"`
}

// EfficiencyMetrics summarizes resource usage across every provider
type EfficiencyMetrics struct {
	OverallScore        int                                         `json:"overallScore"`
	ResourceUtilization int                                         `json:"resourceUtilization"`
	WasteRatio          int                                         `json:"wasteRatio"`
	CostPerResource     float64                                     `json:"costPerResource"`
	TotalResources      int                                         `json:"totalResources"`
	UnusedResources     int                                         `json:"unusedResources"`
	Breakdown           map[provider.ProviderType]ProviderEfficiency `json:"breakdown"`
}

// Efficiency audits every provider (AWS and Azure across all profiles, GCP for its project)
// and fetches month-to-date cost for the cost-per-resource figure.
func (o *Orchestrator) Efficiency(ctx context.Context, set CredentialSet) (EfficiencyMetrics, error) {
	ctx = detach(ctx)
	now := o.clock.Now()
	mtd := Window{Start: clock.StartOfMonth(now), End: now}

	n := len(provider.All)
	creds := make([]Result[credentials.Credentials], n)
	for i, p := range provider.All {
		overrides := set[p]
		if p != provider.ProviderGCP {
			overrides.AllProfiles = true
		}
		c, err := o.resolver.Resolve(p, overrides)
		if err != nil {
			creds[i] = Fail[credentials.Credentials](err)
			continue
		}
		creds[i] = Ok(c)
	}

	audits := make([]Result[provider.AuditSummary], n)
	costs := make([]Result[provider.CostSummary], n)
	fanOut(2*n, func(task int) {
		i := task % n
		if !creds[i].OK() {
			return
		}
		if task < n {
			audits[i] = o.fetchAudit(ctx, creds[i].Value)
		} else {
			costs[i] = o.fetchCost(ctx, creds[i].Value, mtd)
		}
	})

	metrics := EfficiencyMetrics{Breakdown: make(map[provider.ProviderType]ProviderEfficiency, n)}
	var totalCost float64

	for i, p := range provider.All {
		var entry ProviderEfficiency

		switch {
		case !creds[i].OK():
			o.degrade(OperationEfficiency, p, creds[i].Err)
		default:
			if audits[i].OK() {
				a := audits[i].Value
				entry.Score = a.Score
				entry.TotalResources = a.TotalResources
				entry.UnusedResources = a.UnusedResources
			} else {
				o.degrade(OperationEfficiency, p, audits[i].Err)
			}
			if costs[i].OK() {
				entry.MonthToDateCost = round2(costs[i].Value.TotalCost)
				totalCost += costs[i].Value.TotalCost
			} else {
				o.degrade(OperationEfficiency, p, costs[i].Err)
			}
		}

		// A failed provider stays in the totals as 0/0 and scores 0
		metrics.Breakdown[p] = entry
		metrics.TotalResources += entry.TotalResources
		metrics.UnusedResources += entry.UnusedResources
	}

	// The mean only counts providers scoring above zero, unlike the resource totals above
	// which include failed providers as 0/0. The two policies differ on purpose; keep both.
	scores := lo.FilterMap(provider.All, func(p provider.ProviderType, _ int) (float64, bool) {
		s := metrics.Breakdown[p].Score
		return float64(s), s > 0
	})
	if len(scores) > 0 {
		metrics.OverallScore = int(math.Round(lo.Sum(scores) / float64(len(scores))))
	}

	total, unused := metrics.TotalResources, metrics.UnusedResources
	metrics.ResourceUtilization = 100
	if total > 0 {
		metrics.ResourceUtilization = int(math.Round(float64(total-unused) / float64(total) * 100))
		metrics.WasteRatio = int(math.Round(float64(unused) / float64(total) * 100))
		metrics.CostPerResource = round2(totalCost / float64(total))
	}

	return metrics, nil
}
