// Package normalize reduces each gateway's raw JSON to the shared summary types.
//
// AWS and Azure answer with one block per profile or subscription:
//
//	{
//	  "accounts_cost_data": {
//	    "Profile Name: default": {
//	      "Total Cost": 123.45,
//	      "Cost By SERVICE": {"Amazon EC2": 100, "Amazon S3": 23.45},
//	      "Cost By REGION": {"us-east-1": 123.45}
//	    }
//	  },
//	  "errors_for_profiles": {"staging": "ExpiredToken"}
//	}
//
// Azure blocks are keyed "Subscription: <id>" and use "Cost By ServiceName" and
// "Cost By ResourceLocation". Audit responses follow the same layout under
// "accounts_audit_data", with "instances"/"virtual_machines" and
// "unattached_volumes"/"unattached_disks" lists.
//
// GCP wraps everything in an envelope whose payloads are JSON encoded as text:
//
//	{"success": true, "data": {"instances": {"content": [{"type": "text", "text": "[{...}]"}]}}}
//
// Inner text that does not parse contributes nothing and is not an error.
// An envelope with success=false is a *provider.NormalizationError.
//
// Amounts are accepted as JSON numbers or numeric strings. Normalizing the
// same payload twice gives identical summaries: blocks and categories are
// always folded in key order.
package normalize
