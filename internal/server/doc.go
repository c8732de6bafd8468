// Package server exposes the aggregation API over HTTP.
//
// Routing and error mapping use echo; the echo instance runs inside a plain
// http.Server so timeouts and graceful shutdown work as before.
//
// Available endpoints:
//   - GET|POST /api/aggregate/trend       : daily cost per provider
//   - GET      /api/aggregate/efficiency  : audit based utilization metrics
//   - POST     /api/aggregate/savings     : merged savings recommendations
//   - POST     /api/providers/:provider/cost
//   - GET      /api/providers/aws/health  : AWS gateway health passthrough
//   - GET      /api/providers/aws/tools   : AWS gateway tool list
//   - POST     /api/providers/gcp/timeseries
//   - GET|POST|DELETE /api/budgets
//   - /           : Web UI showing gateway status
//   - /metrics    : Prometheus metrics endpoint
//   - /health     : Liveness probe (always returns 200)
//   - /ready      : Readiness probe (returns 200 once the first gateway probe ran)
//
// Every error response has the shape {"success": false, "error": "..."}.
// Validation errors are 400, router errors keep their 404 or 405, and
// anything else is 500. Provider failures never reach this layer; they are
// zeroed by the aggregate package.
//
// Server timeouts:
//   - Read timeout: 15 seconds
//   - Write timeout: gateway timeout plus 15 seconds
//   - Idle timeout: 60 seconds
package server
