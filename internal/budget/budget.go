package budget

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// Budget periods
const (
	PeriodMonthly   = "monthly"
	PeriodQuarterly = "quarterly"
	PeriodYearly    = "yearly"
)

// Defaults applied when a request omits the field
const (
	DefaultPeriod   = PeriodMonthly
	DefaultCurrency = "USD"
)

// ScopeTotal is the budget covering all providers combined
const ScopeTotal = "total"

var (
	validScopes  = []string{string(provider.ProviderAWS), string(provider.ProviderAzure), string(provider.ProviderGCP), ScopeTotal}
	validPeriods = []string{PeriodMonthly, PeriodQuarterly, PeriodYearly}
)

// Budget is a spending limit for one provider or for the total. There is at most one per provider.
type Budget struct {
	Provider  string  `json:"provider"`
	Amount    float64 `json:"amount"`
	Period    string  `json:"period"`
	Currency  string  `json:"currency"`
	UpdatedAt string  `json:"updatedAt"`
}

// Store persists budgets keyed by provider
type Store interface {
	// List returns every stored budget
	List() ([]Budget, error)
	// Set replaces any budget for b.Provider with b and returns the updated list
	Set(b Budget) ([]Budget, error)
	// Delete removes the budget for a provider and returns the updated list
	Delete(providerName string) ([]Budget, error)
	Close() error
}

// New validates input and fills defaults. updatedAt is stamped from now.
func New(providerName string, amount float64, period, currency string, now time.Time) (Budget, error) {
	b := Budget{
		Provider:  ProviderKey(providerName),
		Amount:    amount,
		Period:    strings.ToLower(strings.TrimSpace(period)),
		Currency:  strings.ToUpper(strings.TrimSpace(currency)),
		UpdatedAt: now.UTC().Format(time.RFC3339),
	}
	if b.Period == "" {
		b.Period = DefaultPeriod
	}
	if b.Currency == "" {
		b.Currency = DefaultCurrency
	}
	if err := b.Validate(); err != nil {
		return Budget{}, err
	}
	return b, nil
}

// Validate checks provider, amount and period
func (b Budget) Validate() error {
	if err := ValidateProvider(b.Provider); err != nil {
		return err
	}
	if b.Amount <= 0 {
		return &provider.ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if !lo.Contains(validPeriods, b.Period) {
		return &provider.ValidationError{Field: "period", Message: fmt.Sprintf("must be one of %s", strings.Join(validPeriods, ", "))}
	}
	return nil
}

// ProviderKey is the stored form of a provider name
func ProviderKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidateProvider checks a budget scope name
func ValidateProvider(name string) error {
	if name == "" {
		return &provider.ValidationError{Field: "provider", Message: "is required"}
	}
	if !lo.Contains(validScopes, name) {
		return &provider.ValidationError{Field: "provider", Message: fmt.Sprintf("must be one of %s", strings.Join(validScopes, ", "))}
	}
	return nil
}

// upsert drops any budget for b.Provider and appends b
func upsert(list []Budget, b Budget) []Budget {
	out := remove(list, b.Provider)
	return append(out, b)
}

func remove(list []Budget, providerName string) []Budget {
	return lo.Filter(list, func(existing Budget, _ int) bool {
		return existing.Provider != providerName
	})
}
