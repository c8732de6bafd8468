package provider

import (
	"fmt"
	"strings"
)

// ProviderType represents a cloud provider
type ProviderType string

// Supported cloud providers
const (
	ProviderAWS   ProviderType = "aws"
	ProviderAzure ProviderType = "azure"
	ProviderGCP   ProviderType = "gcp"
)

// All lists the supported providers in the order they appear in every response
var All = []ProviderType{ProviderAWS, ProviderAzure, ProviderGCP}

// ParseProviderType converts a caller-supplied name into a ProviderType
func ParseProviderType(name string) (ProviderType, error) {
	switch p := ProviderType(strings.ToLower(strings.TrimSpace(name))); p {
	case ProviderAWS, ProviderAzure, ProviderGCP:
		return p, nil
	default:
		return "", &ValidationError{Field: "provider", Message: fmt.Sprintf("unknown provider %q", name)}
	}
}

// CallSpec describes a single outbound gateway call
type CallSpec struct {
	Provider ProviderType
	Endpoint string
	Args     map[string]any
}

// CostSummary is one provider's cost for one call, reduced to comparable numbers.
// When Error is set every numeric field is zero.
type CostSummary struct {
	Provider       ProviderType       `json:"provider"`
	TotalCost      float64            `json:"totalCost"`
	CostByCategory map[string]float64 `json:"costByCategory"`
	CostByRegion   map[string]float64 `json:"costByRegion,omitempty"`
	PeriodStart    string             `json:"periodStart,omitempty"`
	PeriodEnd      string             `json:"periodEnd,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// FailedCost returns the zeroed summary carried for a provider whose call failed
func FailedCost(p ProviderType, err error) CostSummary {
	return CostSummary{
		Provider:       p,
		CostByCategory: map[string]float64{},
		Error:          err.Error(),
	}
}

// AuditSummary counts a provider's resources and how many of them sit idle
type AuditSummary struct {
	Provider        ProviderType `json:"provider"`
	TotalResources  int          `json:"totalResources"`
	UnusedResources int          `json:"unusedResources"`
	Score           int          `json:"score"`
	Error           string       `json:"error,omitempty"`
}

// FailedAudit returns the zeroed audit summary for a failed provider (score 0, not 100)
func FailedAudit(p ProviderType, err error) AuditSummary {
	return AuditSummary{Provider: p, Error: err.Error()}
}

// TrendPoint is one day of cross-provider cost. Total is always the sum of the three providers.
type TrendPoint struct {
	Date  string  `json:"date"`
	AWS   float64 `json:"aws"`
	Azure float64 `json:"azure"`
	GCP   float64 `json:"gcp"`
	Total float64 `json:"total"`
}

// NewTrendPoint builds a point and derives its total
func NewTrendPoint(date string, aws, azure, gcp float64) TrendPoint {
	return TrendPoint{Date: date, AWS: aws, Azure: azure, GCP: gcp, Total: aws + azure + gcp}
}

// Set stores a provider's value on the point and recomputes the total
func (t *TrendPoint) Set(p ProviderType, value float64) {
	switch p {
	case ProviderAWS:
		t.AWS = value
	case ProviderAzure:
		t.Azure = value
	case ProviderGCP:
		t.GCP = value
	}
	t.Total = t.AWS + t.Azure + t.GCP
}

// Impact ranks a recommendation by its monthly savings
type Impact string

// Impact levels
const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// ImpactFor derives the impact from monthly savings. Both thresholds are strict.
func ImpactFor(monthlySavings float64) Impact {
	switch {
	case monthlySavings > 100:
		return ImpactHigh
	case monthlySavings > 50:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// Recommendation is a single savings opportunity reported by a provider
type Recommendation struct {
	Provider       ProviderType `json:"provider"`
	Category       string       `json:"category"`
	Description    string       `json:"description"`
	MonthlySavings float64      `json:"monthlySavings"`
	Impact         Impact       `json:"impact"`
	ResourceID     string       `json:"resourceId,omitempty"`
	Region         string       `json:"region,omitempty"`
}

// NewRecommendation clamps negative savings to zero and derives the impact
func NewRecommendation(p ProviderType, category, description string, monthlySavings float64) Recommendation {
	if monthlySavings < 0 {
		monthlySavings = 0
	}
	return Recommendation{
		Provider:       p,
		Category:       category,
		Description:    description,
		MonthlySavings: monthlySavings,
		Impact:         ImpactFor(monthlySavings),
	}
}
