package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/zgpcy/finops-dashboard-api/internal/clock"
	"github.com/zgpcy/finops-dashboard-api/internal/credentials"
	"github.com/zgpcy/finops-dashboard-api/internal/gateway"
	"github.com/zgpcy/finops-dashboard-api/internal/logger"
	"github.com/zgpcy/finops-dashboard-api/internal/normalize"
	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// Operation names used in logs and degraded-provider metrics
const (
	OperationTrend      = "trend"
	OperationEfficiency = "efficiency"
	OperationSavings    = "savings"
	OperationCost       = "cost"
)

// Caller executes one gateway call. *gateway.Set satisfies it.
type Caller interface {
	Do(ctx context.Context, spec provider.CallSpec) (json.RawMessage, error)
}

// Observer is told about every provider whose result was zeroed
type Observer interface {
	ObserveDegraded(operation string, p provider.ProviderType)
}

// Result carries either a value or the error that replaced it
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps an error
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// OK reports whether the result holds a value
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// CredentialSet holds the per-request credential overrides for each provider
type CredentialSet map[provider.ProviderType]credentials.Overrides

// Window is a closed time range sent to cost endpoints
type Window struct {
	Start time.Time
	End   time.Time
}

// DayWindow spans one UTC calendar day, 00:00:00.000 to 23:59:59.999
func DayWindow(day time.Time) Window {
	return Window{Start: clock.StartOfDay(day), End: clock.EndOfDay(day)}
}

// Args renders the window as gateway arguments
func (w Window) Args() map[string]any {
	return map[string]any{
		"start_date": w.Start.UTC().Format(time.RFC3339Nano),
		"end_date":   w.End.UTC().Format(time.RFC3339Nano),
	}
}

// Orchestrator fans provider calls out, normalizes each result independently and merges them
type Orchestrator struct {
	caller   Caller
	resolver *credentials.Resolver
	clock    clock.Clock
	logger   *logger.Logger
	observer Observer
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithClock replaces the real clock
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) {
		o.clock = c
	}
}

// WithObserver attaches a degraded-provider observer
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		o.observer = obs
	}
}

// New creates an Orchestrator
func New(caller Caller, resolver *credentials.Resolver, log *logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		caller:   caller,
		resolver: resolver,
		clock:    clock.RealClock{},
		logger:   log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// degrade records a provider failure that is being replaced by zeros
func (o *Orchestrator) degrade(operation string, p provider.ProviderType, err error) {
	o.logger.Warn("Provider degraded to zero",
		"operation", operation,
		"provider", p,
		"error", err)
	if o.observer != nil {
		o.observer.ObserveDegraded(operation, p)
	}
}

// fetchCost issues one cost call and normalizes it
func (o *Orchestrator) fetchCost(ctx context.Context, creds credentials.Credentials, w Window) Result[provider.CostSummary] {
	return safely(func() Result[provider.CostSummary] {
		raw, err := o.caller.Do(ctx, costSpec(creds, w))
		if err != nil {
			return Fail[provider.CostSummary](err)
		}
		summary, err := normalize.Cost(creds.Provider, raw, lookup(creds))
		if err != nil {
			return Fail[provider.CostSummary](err)
		}
		if summary.PeriodStart == "" {
			summary.PeriodStart = w.Start.UTC().Format(time.RFC3339Nano)
			summary.PeriodEnd = w.End.UTC().Format(time.RFC3339Nano)
		}
		return Ok(summary)
	})
}

// fetchAudit issues one audit call and normalizes it
func (o *Orchestrator) fetchAudit(ctx context.Context, creds credentials.Credentials) Result[provider.AuditSummary] {
	return safely(func() Result[provider.AuditSummary] {
		raw, err := o.caller.Do(ctx, auditSpec(creds))
		if err != nil {
			return Fail[provider.AuditSummary](err)
		}
		summary, err := normalize.Audit(creds.Provider, raw, lookup(creds))
		if err != nil {
			return Fail[provider.AuditSummary](err)
		}
		return Ok(summary)
	})
}

// fetchRecommendations issues one recommendation call and normalizes it
func (o *Orchestrator) fetchRecommendations(ctx context.Context, creds credentials.Credentials) Result[[]provider.Recommendation] {
	return safely(func() Result[[]provider.Recommendation] {
		raw, err := o.caller.Do(ctx, recommendationSpec(creds))
		if err != nil {
			return Fail[[]provider.Recommendation](err)
		}
		recs, err := normalize.Recommendations(creds.Provider, raw, lookup(creds))
		if err != nil {
			return Fail[[]provider.Recommendation](err)
		}
		return Ok(recs)
	})
}

func costSpec(creds credentials.Credentials, w Window) provider.CallSpec {
	args := creds.Args()
	for k, v := range w.Args() {
		args[k] = v
	}
	return provider.CallSpec{Provider: creds.Provider, Endpoint: costEndpoint(creds.Provider), Args: args}
}

func auditSpec(creds credentials.Credentials) provider.CallSpec {
	endpoint := gateway.AWSToolAudit
	switch creds.Provider {
	case provider.ProviderAzure:
		endpoint = gateway.AzureAuditPath
	case provider.ProviderGCP:
		endpoint = gateway.GCPAuditPath
	}
	return provider.CallSpec{Provider: creds.Provider, Endpoint: endpoint, Args: creds.Args()}
}

func recommendationSpec(creds credentials.Credentials) provider.CallSpec {
	// AWS has no dedicated recommendation tool; savings are derived from the audit
	endpoint := gateway.AWSToolAudit
	switch creds.Provider {
	case provider.ProviderAzure:
		endpoint = gateway.AzureAdvisorPath
	case provider.ProviderGCP:
		endpoint = gateway.GCPRecommenderPath
	}
	return provider.CallSpec{Provider: creds.Provider, Endpoint: endpoint, Args: creds.Args()}
}

func costEndpoint(p provider.ProviderType) string {
	switch p {
	case provider.ProviderAzure:
		return gateway.AzureCostPath
	case provider.ProviderGCP:
		return gateway.GCPCostPath
	default:
		return gateway.AWSToolGetCost
	}
}

func lookup(creds credentials.Credentials) normalize.Lookup {
	return normalize.Lookup{Key: creds.LookupKey(), All: creds.AllProfiles}
}

// safely runs fn and turns a panic into a failed result
func safely[T any](fn func() Result[T]) (r Result[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			r = Fail[T](fmt.Errorf("panic: %v", rec))
		}
	}()
	return fn()
}

// fanOut runs task(i) for every i in [0, n) concurrently and waits for all of them.
// Each task writes only its own slot.
func fanOut(n int, task func(i int)) {
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			task(i)
		}(i)
	}
	wg.Wait()
}

// detach keeps in-flight provider calls running when the client goes away
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
