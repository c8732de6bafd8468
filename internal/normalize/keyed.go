package normalize

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// keyedShape describes a gateway whose responses hold one block per profile or subscription,
// keyed "<prefix><name>" under a top-level data object.
type keyedShape struct {
	provider     provider.ProviderType
	blockPrefix  string
	costDataKey  string
	auditDataKey string
	errorsKey    string
	categoryKeys []string
	regionKeys   []string
	instanceKeys []string
	detachedKeys []string
}

// keyedEnvelope is the parsed top level of a keyed response
type keyedEnvelope struct {
	blocks map[string]json.RawMessage
	errors map[string]string
}

func parseKeyedEnvelope(shape keyedShape, raw json.RawMessage, dataKey string) (keyedEnvelope, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return keyedEnvelope{}, &provider.NormalizationError{Provider: shape.provider, Reason: "response is not a JSON object", Err: err}
	}

	env := keyedEnvelope{blocks: map[string]json.RawMessage{}, errors: map[string]string{}}

	if data, ok := top[dataKey]; ok && !isNull(data) {
		if err := json.Unmarshal(data, &env.blocks); err != nil {
			return keyedEnvelope{}, &provider.NormalizationError{Provider: shape.provider, Reason: fmt.Sprintf("%s is not an object", dataKey), Err: err}
		}
	}

	if errs, ok := top[shape.errorsKey]; ok && !isNull(errs) {
		var byProfile map[string]json.RawMessage
		if err := json.Unmarshal(errs, &byProfile); err != nil {
			return keyedEnvelope{}, &provider.NormalizationError{Provider: shape.provider, Reason: fmt.Sprintf("%s is not an object", shape.errorsKey), Err: err}
		}
		for name, msg := range byProfile {
			env.errors[name] = rawText(msg)
		}
	}

	return env, nil
}

// selectBlocks returns the block for lookup.Key, or every block in key order when lookup.All is set
func (e keyedEnvelope) selectBlocks(shape keyedShape, lookup Lookup, noun string) ([]json.RawMessage, error) {
	if lookup.All {
		if len(e.blocks) == 0 {
			if len(e.errors) > 0 {
				return nil, &provider.NormalizationError{Provider: shape.provider, Reason: joinErrors(e.errors)}
			}
			return nil, &provider.NormalizationError{Provider: shape.provider, Reason: fmt.Sprintf("no %s data returned", noun)}
		}
		keys := sortedKeys(e.blocks)
		out := make([]json.RawMessage, 0, len(keys))
		for _, k := range keys {
			out = append(out, e.blocks[k])
		}
		return out, nil
	}

	if block, ok := e.blocks[shape.blockPrefix+lookup.Key]; ok {
		return []json.RawMessage{block}, nil
	}
	if msg, ok := e.errors[lookup.Key]; ok && msg != "" {
		return nil, &provider.NormalizationError{Provider: shape.provider, Reason: msg}
	}
	return nil, &provider.NormalizationError{
		Provider: shape.provider,
		Reason:   fmt.Sprintf("no %s data returned for profile %q", noun, lookup.Key),
	}
}

// keyedCost reduces the selected cost blocks into one summary
func keyedCost(shape keyedShape, raw json.RawMessage, lookup Lookup) (provider.CostSummary, error) {
	env, err := parseKeyedEnvelope(shape, raw, shape.costDataKey)
	if err != nil {
		return provider.CostSummary{}, err
	}
	blocks, err := env.selectBlocks(shape, lookup, "cost")
	if err != nil {
		return provider.CostSummary{}, err
	}

	summary := provider.CostSummary{
		Provider:       shape.provider,
		CostByCategory: map[string]float64{},
		CostByRegion:   map[string]float64{},
	}
	for _, block := range blocks {
		fields, err := decodeObject(shape.provider, block, "cost block")
		if err != nil {
			return provider.CostSummary{}, err
		}

		categories, err := pickAmountMap(shape.provider, fields, shape.categoryKeys...)
		if err != nil {
			return provider.CostSummary{}, err
		}
		regions, err := pickAmountMap(shape.provider, fields, shape.regionKeys...)
		if err != nil {
			return provider.CostSummary{}, err
		}

		total, hasTotal, err := pickAmount(shape.provider, fields, "Total Cost", "total_cost")
		if err != nil {
			return provider.CostSummary{}, err
		}
		if !hasTotal {
			total = sumValues(categories)
		}

		summary.TotalCost += total
		addInto(summary.CostByCategory, categories)
		addInto(summary.CostByRegion, regions)

		if summary.PeriodStart == "" {
			summary.PeriodStart = pickString(fields, "Period Start Date", "period_start")
			summary.PeriodEnd = pickString(fields, "Period End Date", "period_end")
		}
	}

	return summary, nil
}

// auditEntry is one instance, VM, volume or disk from an audit block
type auditEntry struct {
	fields map[string]json.RawMessage
	unused bool
}

// keyedAuditEntries splits the selected audit blocks into instances and detached storage
func keyedAuditEntries(shape keyedShape, raw json.RawMessage, lookup Lookup) (instances, detached []auditEntry, err error) {
	env, err := parseKeyedEnvelope(shape, raw, shape.auditDataKey)
	if err != nil {
		return nil, nil, err
	}
	blocks, err := env.selectBlocks(shape, lookup, "audit")
	if err != nil {
		return nil, nil, err
	}

	for _, block := range blocks {
		fields, err := decodeObject(shape.provider, block, "audit block")
		if err != nil {
			return nil, nil, err
		}

		for _, item := range pickList(fields, shape.instanceKeys...) {
			entry := auditEntry{fields: objectOrEmpty(item)}
			entry.unused = isIdleState(pickString(entry.fields, "state", "power_state", "status"))
			instances = append(instances, entry)
		}
		// Detached storage is unused by construction
		for _, item := range pickList(fields, shape.detachedKeys...) {
			detached = append(detached, auditEntry{fields: objectOrEmpty(item), unused: true})
		}
	}
	return instances, detached, nil
}

func keyedAudit(shape keyedShape, raw json.RawMessage, lookup Lookup) (provider.AuditSummary, error) {
	instances, detached, err := keyedAuditEntries(shape, raw, lookup)
	if err != nil {
		return provider.AuditSummary{}, err
	}
	return summarizeAudit(shape.provider, instances, detached), nil
}

func summarizeAudit(p provider.ProviderType, groups ...[]auditEntry) provider.AuditSummary {
	summary := provider.AuditSummary{Provider: p}
	for _, group := range groups {
		for _, e := range group {
			summary.TotalResources++
			if e.unused {
				summary.UnusedResources++
			}
		}
	}
	summary.Score = Score(summary.TotalResources, summary.UnusedResources)
	return summary
}

// isIdleState reports whether an instance or VM power state counts as unused
func isIdleState(state string) bool {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "stopped", "vm deallocated":
		return true
	default:
		return false
	}
}

func decodeObject(p provider.ProviderType, raw json.RawMessage, what string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &provider.NormalizationError{Provider: p, Reason: what + " is not an object", Err: err}
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return fields, nil
}

func objectOrEmpty(raw json.RawMessage) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return map[string]json.RawMessage{}
	}
	return fields
}

// pickAmount reads the first present key as an Amount
func pickAmount(p provider.ProviderType, fields map[string]json.RawMessage, keys ...string) (float64, bool, error) {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		var a Amount
		if err := json.Unmarshal(v, &a); err != nil {
			return 0, false, &provider.NormalizationError{Provider: p, Reason: fmt.Sprintf("field %q", k), Err: err}
		}
		return a.Float(), true, nil
	}
	return 0, false, nil
}

// pickAmountMap reads the first present key as a {name: amount} map, defaulting to empty
func pickAmountMap(p provider.ProviderType, fields map[string]json.RawMessage, keys ...string) (map[string]float64, error) {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || isNull(v) {
			continue
		}
		var m amountMap
		if err := json.Unmarshal(v, &m); err != nil {
			return nil, &provider.NormalizationError{Provider: p, Reason: fmt.Sprintf("field %q", k), Err: err}
		}
		return m.floats(), nil
	}
	return map[string]float64{}, nil
}

// pickString reads the first present key as text, ignoring values of other types
func pickString(fields map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	return ""
}

// pickList reads the first present key holding a JSON array
func pickList(fields map[string]json.RawMessage, keys ...string) []json.RawMessage {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err == nil {
			return items
		}
	}
	return nil
}

func hasAny(fields map[string]json.RawMessage, keys ...string) bool {
	return lo.SomeBy(keys, func(k string) bool {
		_, ok := fields[k]
		return ok
	})
}

func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func joinErrors(errs map[string]string) string {
	keys := sortedKeys(errs)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, errs[k]))
	}
	return strings.Join(parts, "; ")
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

func sumValues(m map[string]float64) float64 {
	var total float64
	for _, k := range sortedKeys(m) {
		total += m[k]
	}
	return total
}

func addInto(dst, src map[string]float64) {
	for _, k := range sortedKeys(src) {
		dst[k] += src[k]
	}
}
