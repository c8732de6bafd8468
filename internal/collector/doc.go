// Package collector implements a Prometheus collector for gateway traffic.
//
// GatewayCollector plugs into the rest of the service as an observer: the
// gateway clients report every call to it and the aggregation orchestrator
// reports every provider it had to replace with zeros. It also probes the
// AWS gateway health endpoint in the background.
//
// The collector exposes the following metrics:
//   - finops_gateway_requests_total: gateway calls by provider, endpoint and outcome
//   - finops_gateway_request_duration_seconds: gateway call latency histogram
//   - finops_aggregation_degraded_total: zeroed provider results by operation and provider
//   - finops_gateway_probe_failures_total: failed health probes
//   - finops_gateway_up: result of the last health probe (1 = healthy, 0 = unhealthy)
//   - finops_gateway_last_probe_timestamp_seconds: Unix timestamp of the last probe
//   - finops_api_build_info: build version information
//
// Example usage:
//
//	aws := gateway.NewAWSClient(cfg.Gateways.AWSBaseURL)
//	coll := collector.NewGatewayCollector(aws, cfg, log)
//	prometheus.MustRegister(coll)
//
//	coll.StartBackgroundProbe(ctx)
package collector
