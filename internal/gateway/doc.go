// Package gateway provides thin HTTP clients for the per-provider cost gateways.
//
// Each provider runs its own gateway service with its own argument and
// response shapes. This package only moves JSON: a call is a single POST of
// the arguments to the gateway base URL plus an endpoint, with no retry.
// Failures are reported with the shared error taxonomy:
//
//   - transport, DNS or connection failures: *provider.UnreachableError
//   - non-2xx responses: *provider.HTTPError with the status and up to 4 KiB of body
//   - 2xx responses that are not JSON: *provider.NormalizationError
//
// Endpoints:
//   - AWS:   POST /mcp/tools/call {tool, arguments}, GET /health, GET /mcp/tools
//   - Azure: POST /api/cost, /api/audit, /api/advisor
//   - GCP:   POST /api/cost, /api/audit, /api/recommender, /api/metrics/timeseries
//
// Every call runs inside a "gateway.call" client span, carries the W3C trace
// context in its headers and is reported to an optional Observer, which the
// collector package uses for Prometheus metrics. Spans go to the global tracer
// provider that telemetry.InitTracing installs unless WithTracerProvider is set.
//
// Example usage:
//
//	gateways := gateway.NewSet(cfg.Gateways,
//		gateway.WithTimeout(time.Duration(cfg.APITimeout)*time.Second),
//		gateway.WithObserver(metrics))
//
//	raw, err := gateways.Do(ctx, provider.CallSpec{
//		Provider: provider.ProviderAzure,
//		Endpoint: gateway.AzureCostPath,
//		Args:     map[string]any{"profile": "default"},
//	})
package gateway
