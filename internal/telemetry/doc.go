// Package telemetry installs the OpenTelemetry tracer provider used by the gateway clients.
package telemetry
