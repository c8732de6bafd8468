package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zgpcy/finops-dashboard-api/internal/clock"
	"github.com/zgpcy/finops-dashboard-api/internal/credentials"
	"github.com/zgpcy/finops-dashboard-api/internal/gateway"
	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// MonthToDate is the window from the start of now's UTC month to now
func MonthToDate(now time.Time) Window {
	return Window{Start: clock.StartOfMonth(now), End: now.UTC()}
}

// ParseWindow reads optional start/end dates (YYYY-MM-DD or RFC3339). Missing bounds
// default to month to date; a date-only end covers that whole day.
func ParseWindow(start, end string, now time.Time) (Window, error) {
	w := MonthToDate(now)

	if start != "" {
		t, err := parseDate(start)
		if err != nil {
			return Window{}, &provider.ValidationError{Field: "startDate", Message: err.Error()}
		}
		w.Start = t
	}
	if end != "" {
		t, err := parseDate(end)
		if err != nil {
			return Window{}, &provider.ValidationError{Field: "endDate", Message: err.Error()}
		}
		if len(end) == len(time.DateOnly) {
			t = clock.EndOfDay(t)
		}
		w.End = t
	}
	if w.End.Before(w.Start) {
		return Window{}, &provider.ValidationError{Field: "endDate", Message: "must not be before startDate"}
	}
	return w, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither YYYY-MM-DD nor RFC3339", s)
	}
	return t.UTC(), nil
}

// ProviderCost fetches one provider's cost for a window. Credential problems are returned
// as validation errors; gateway and payload failures come back as a zeroed summary with Error set.
func (o *Orchestrator) ProviderCost(ctx context.Context, p provider.ProviderType, w Window, overrides credentials.Overrides) (provider.CostSummary, error) {
	creds, err := o.resolver.Resolve(p, overrides)
	if err != nil {
		return provider.CostSummary{}, err
	}

	r := o.fetchCost(detach(ctx), creds, w)
	if !r.OK() {
		o.degrade(OperationCost, p, r.Err)
		return provider.FailedCost(p, r.Err), nil
	}
	return r.Value, nil
}

// Timeseries passes a Cloud Monitoring query through to the GCP gateway with the resolved project
func (o *Orchestrator) Timeseries(ctx context.Context, overrides credentials.Overrides, args map[string]any) (json.RawMessage, error) {
	creds, err := o.resolver.Resolve(provider.ProviderGCP, overrides)
	if err != nil {
		return nil, err
	}

	merged := creds.Args()
	for k, v := range args {
		merged[k] = v
	}
	return o.caller.Do(ctx, provider.CallSpec{
		Provider: provider.ProviderGCP,
		Endpoint: gateway.GCPTimeseriesPath,
		Args:     merged,
	})
}
