package normalize

import (
	"encoding/json"
	"strings"

	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

var azureShape = keyedShape{
	provider:     provider.ProviderAzure,
	blockPrefix:  "Subscription: ",
	costDataKey:  "accounts_cost_data",
	auditDataKey: "accounts_audit_data",
	errorsKey:    "errors_for_profiles",
	categoryKeys: []string{"Cost By ServiceName"},
	regionKeys:   []string{"Cost By ResourceLocation"},
	instanceKeys: []string{"virtual_machines", "vms"},
	detachedKeys: []string{"unattached_disks"},
}

// azureRecommendations reads Advisor cost recommendations, given as {"recommendations": [...]} or a bare array
func azureRecommendations(raw json.RawMessage) ([]provider.Recommendation, error) {
	items, err := azureAdvisorItems(raw)
	if err != nil {
		return nil, err
	}

	recs := make([]provider.Recommendation, 0, len(items))
	for _, item := range items {
		fields := objectOrEmpty(item)

		savings, ok, err := pickAmount(provider.ProviderAzure, fields, "savingsAmount", "monthlySavings")
		if err != nil {
			return nil, err
		}
		if !ok {
			annual, _, err := pickAmount(provider.ProviderAzure, fields, "annualSavingsAmount")
			if err != nil {
				return nil, err
			}
			savings = annual / 12
		}

		category := strings.ToLower(pickString(fields, "category", "impactedField"))
		if category == "" {
			category = "cost"
		}
		description := pickString(fields, "shortDescription", "description", "problem", "solution")
		if description == "" {
			description = "Azure Advisor recommendation"
		}

		rec := provider.NewRecommendation(provider.ProviderAzure, category, description, savings)
		rec.ResourceID = pickString(fields, "resourceId", "impactedValue", "id")
		rec.Region = pickString(fields, "region", "location")
		recs = append(recs, rec)
	}
	return recs, nil
}

func azureAdvisorItems(raw json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}

	fields, err := decodeObject(provider.ProviderAzure, raw, "advisor response")
	if err != nil {
		return nil, err
	}
	return pickList(fields, "recommendations", "value"), nil
}
