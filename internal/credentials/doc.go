// Package credentials resolves which credentials accompany each gateway call.
//
// Defaults come from the configuration file; each request may override
// individual fields. Merging is field by field and a non-empty override wins.
// Resolved credentials live for one request and are never written back.
//
// Per provider:
//   - AWS: a profile name (default "default"), or all profiles at once
//   - Azure: a profile name, or an explicit service principal when tenantId,
//     clientId and clientSecret are all present; subscriptionId selects the
//     response block when set
//   - GCP: projectId is mandatory, optionally with a service account key
//     and billingAccountId
//
// Explicit secrets are checked locally before any call is made: Azure service
// principals through azidentity, GCP keys through golang.org/x/oauth2/google.
// Neither check touches the network.
package credentials
