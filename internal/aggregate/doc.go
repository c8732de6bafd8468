// Package aggregate combines the three provider gateways into cross-provider views.
//
// Every operation follows the same shape: resolve credentials per provider,
// fan the gateway calls out concurrently, normalize each response on its own
// and merge. Each call produces a Result that holds either a summary or the
// error that replaced it. A failed Result becomes zeros for that provider
// only; it is logged and counted but never fails the request. The only
// errors returned to callers are *provider.ValidationError values for bad
// request input.
//
// Operations:
//   - Trend: daily cost for the last N days (default 7, at most 90)
//   - Efficiency: audit based resource utilization across all providers
//   - Savings: merged recommendations from the connected providers
//   - ProviderCost: one provider's cost for a window
//
// Provider calls run on a context detached from the caller, so a client
// disconnect does not cancel calls already in flight. The gateway client's
// own timeout still applies.
package aggregate
