package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// recommendationWindow is the period GCP cost projections are rescaled to
const recommendationWindow = 30 * 24 * time.Hour

// gcpEnvelope is the {success, error, data} wrapper around every GCP gateway response
type gcpEnvelope struct {
	Success *bool                      `json:"success"`
	Error   json.RawMessage            `json:"error"`
	Data    map[string]json.RawMessage `json:"data"`
}

// gcpSection is one data category with its text payloads in content order
type gcpSection struct {
	category string
	texts    []string
}

// parseGCPEnvelope unwraps the envelope. Categories come back in key order.
func parseGCPEnvelope(raw json.RawMessage) ([]gcpSection, error) {
	var env gcpEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &provider.NormalizationError{Provider: provider.ProviderGCP, Reason: "response is not a GCP envelope", Err: err}
	}
	if env.Success != nil && !*env.Success {
		reason := "gateway reported failure"
		if !isNull(env.Error) {
			reason = rawText(env.Error)
		}
		return nil, &provider.NormalizationError{Provider: provider.ProviderGCP, Reason: reason}
	}

	sections := make([]gcpSection, 0, len(env.Data))
	for _, category := range sortedKeys(env.Data) {
		var body struct {
			Content []mcp.TextContent `json:"content"`
		}
		// A category that is not a content wrapper contributes nothing
		if err := json.Unmarshal(env.Data[category], &body); err != nil {
			continue
		}

		section := gcpSection{category: category}
		for _, c := range body.Content {
			if c.Type != "" && c.Type != "text" {
				continue
			}
			section.texts = append(section.texts, c.Text)
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// gcpObjects parses an inner JSON text into objects. A bare array, an object holding
// an array under one of keys, or a single named object are accepted. Unparsable text yields nothing.
func gcpObjects(text string, keys ...string) []map[string]json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(text), &fields); err != nil {
			return nil
		}
		switch {
		case hasAny(fields, keys...):
			items = pickList(fields, keys...)
		case hasAny(fields, "name", "id"):
			return []map[string]json.RawMessage{fields}
		default:
			return nil
		}
	}

	out := make([]map[string]json.RawMessage, 0, len(items))
	for _, item := range items {
		out = append(out, objectOrEmpty(item))
	}
	return out
}

// gcpCost sums each category's inner cost payloads
func gcpCost(raw json.RawMessage) (provider.CostSummary, error) {
	sections, err := parseGCPEnvelope(raw)
	if err != nil {
		return provider.CostSummary{}, err
	}

	summary := provider.CostSummary{
		Provider:       provider.ProviderGCP,
		CostByCategory: map[string]float64{},
		CostByRegion:   map[string]float64{},
	}
	for _, s := range sections {
		for _, text := range s.texts {
			var fields map[string]json.RawMessage
			if err := json.Unmarshal([]byte(text), &fields); err != nil {
				continue
			}

			total, ok, err := pickAmount(provider.ProviderGCP, fields, "total_cost", "totalCost", "cost", "total")
			if err != nil {
				continue
			}
			if !ok {
				byService, err := pickAmountMap(provider.ProviderGCP, fields, "by_service", "cost_by_service")
				if err != nil {
					continue
				}
				total = sumValues(byService)
			}
			summary.CostByCategory[s.category] += total

			if regions, err := pickAmountMap(provider.ProviderGCP, fields, "by_region", "cost_by_region"); err == nil {
				addInto(summary.CostByRegion, regions)
			}
		}
	}
	summary.TotalCost = sumValues(summary.CostByCategory)
	return summary, nil
}

// gcpAudit counts instances (unused unless RUNNING) and disks (unused when no users)
func gcpAudit(raw json.RawMessage) (provider.AuditSummary, error) {
	sections, err := parseGCPEnvelope(raw)
	if err != nil {
		return provider.AuditSummary{}, err
	}

	var instances, disks []auditEntry
	for _, s := range sections {
		category := strings.ToLower(s.category)
		for _, text := range s.texts {
			switch {
			case strings.Contains(category, "instance"):
				for _, fields := range gcpObjects(text, "instances", "items") {
					instances = append(instances, auditEntry{
						fields: fields,
						unused: pickString(fields, "status") != "RUNNING",
					})
				}
			case strings.Contains(category, "disk"):
				for _, fields := range gcpObjects(text, "disks", "items") {
					disks = append(disks, auditEntry{
						fields: fields,
						unused: len(pickList(fields, "users")) == 0,
					})
				}
			}
		}
	}
	return summarizeAudit(provider.ProviderGCP, instances, disks), nil
}

// gcpRecommendations reads Recommender entries. Savings come from an explicit monthly figure when
// present, otherwise from primaryImpact.costProjection rescaled to a 30 day window.
func gcpRecommendations(raw json.RawMessage) ([]provider.Recommendation, error) {
	sections, err := parseGCPEnvelope(raw)
	if err != nil {
		return nil, err
	}

	var recs []provider.Recommendation
	for _, s := range sections {
		for _, text := range s.texts {
			for _, fields := range gcpObjects(text, "recommendations", "items") {
				savings, ok, err := pickAmount(provider.ProviderGCP, fields, "monthly_savings", "monthlySavings")
				if err != nil {
					continue
				}
				if !ok {
					savings = projectedMonthlySavings(fields)
				}

				description := pickString(fields, "description", "name")
				if description == "" {
					description = fmt.Sprintf("GCP %s recommendation", s.category)
				}

				rec := provider.NewRecommendation(provider.ProviderGCP, s.category, description, savings)
				rec.ResourceID = pickString(fields, "resource", "resourceName", "name")
				rec.Region = pickString(fields, "location", "region", "zone")
				recs = append(recs, rec)
			}
		}
	}
	return recs, nil
}

// costProjection mirrors the Recommender API's primaryImpact.costProjection
type costProjection struct {
	Cost struct {
		Units Amount `json:"units"`
		Nanos Amount `json:"nanos"`
	} `json:"cost"`
	Duration string `json:"duration"`
}

// projectedMonthlySavings converts a negative projected cost into positive monthly savings
func projectedMonthlySavings(fields map[string]json.RawMessage) float64 {
	var impact struct {
		CostProjection *costProjection `json:"costProjection"`
	}
	if err := json.Unmarshal(fields["primaryImpact"], &impact); err != nil || impact.CostProjection == nil {
		return 0
	}

	cp := impact.CostProjection
	cost := cp.Cost.Units.Float() + cp.Cost.Nanos.Float()/1e9
	savings := -cost

	if d, err := time.ParseDuration(cp.Duration); err == nil && d > 0 {
		savings = savings * float64(recommendationWindow) / float64(d)
	}
	if !finite(savings) {
		return 0
	}
	return savings
}
