// Package provider holds the domain types shared by every layer of the API.
//
// It defines the supported clouds (aws, azure, gcp), the call specification
// handed to the gateway clients, the normalized summaries produced from each
// gateway's raw JSON, and the error taxonomy used to decide whether a failure
// degrades a single provider or fails the whole request:
//
//   - UnreachableError: the gateway could not be reached at all
//   - HTTPError: the gateway answered with a non-2xx status
//   - NormalizationError: the gateway answered 2xx but the payload had the wrong shape
//   - ValidationError: the caller supplied invalid or incomplete input
//
// The first three are caught at the provider boundary by the aggregation
// layer and turn into a zeroed summary for that provider only. Validation
// errors on request-level fields are reported to the caller as HTTP 400.
//
// Summaries carry an Error string instead of being dropped, so a partially
// failed aggregation still returns one entry per provider:
//
//	summary := provider.FailedCost(provider.ProviderAWS, err)
//	// summary.TotalCost == 0, summary.Error == err.Error()
package provider
