package credentials

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"golang.org/x/oauth2/google"

	"github.com/zgpcy/finops-dashboard-api/internal/config"
	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// Field names accepted in default and per-request credential maps
const (
	FieldProfile               = "profile"
	FieldTenantID              = "tenantId"
	FieldClientID              = "clientId"
	FieldClientSecret          = "clientSecret"
	FieldSubscriptionID        = "subscriptionId"
	FieldProjectID             = "projectId"
	FieldServiceAccountJSON    = "serviceAccountJson"
	FieldServiceAccountKeyPath = "serviceAccountKeyPath"
	FieldBillingAccountID      = "billingAccountId"
)

// DefaultProfile is used when no profile is configured or supplied
const DefaultProfile = "default"

const gcpScope = "https://www.googleapis.com/auth/cloud-platform"

// Kind tells whether credentials name a gateway-side profile or carry explicit secrets
type Kind string

// Credential kinds
const (
	KindProfile  Kind = "profile"
	KindExplicit Kind = "explicit"
)

// Credentials is the resolved credential set for one provider for one request
type Credentials struct {
	Provider    provider.ProviderType
	Kind        Kind
	Profile     string
	AllProfiles bool
	Fields      map[string]string
}

// Overrides are the per-request credential fields supplied by the caller
type Overrides struct {
	Fields      map[string]string
	AllProfiles bool
}

// Resolver merges configured defaults with per-request overrides. It never mutates its defaults.
type Resolver struct {
	defaults map[provider.ProviderType]map[string]string
}

// NewResolver creates a resolver over the configured default credentials
func NewResolver(defaults config.Credentials) *Resolver {
	return &Resolver{
		defaults: map[provider.ProviderType]map[string]string{
			provider.ProviderAWS:   maps.Clone(defaults.AWS),
			provider.ProviderAzure: maps.Clone(defaults.Azure),
			provider.ProviderGCP:   maps.Clone(defaults.GCP),
		},
	}
}

// Resolve merges defaults and overrides field by field (a non-empty override wins) and
// validates the result for the provider.
func (r *Resolver) Resolve(p provider.ProviderType, o Overrides) (Credentials, error) {
	fields := map[string]string{}
	for k, v := range r.defaults[p] {
		if v = strings.TrimSpace(v); v != "" {
			fields[k] = v
		}
	}
	for k, v := range o.Fields {
		if v = strings.TrimSpace(v); v != "" {
			fields[k] = v
		}
	}

	switch p {
	case provider.ProviderAWS:
		return resolveAWS(fields, o.AllProfiles), nil
	case provider.ProviderAzure:
		return resolveAzure(fields, o.AllProfiles)
	case provider.ProviderGCP:
		return resolveGCP(fields)
	default:
		return Credentials{}, &provider.ValidationError{Field: "provider", Message: fmt.Sprintf("unknown provider %q", p)}
	}
}

func resolveAWS(fields map[string]string, allProfiles bool) Credentials {
	profile := fields[FieldProfile]
	if profile == "" {
		profile = DefaultProfile
	}
	return Credentials{
		Provider:    provider.ProviderAWS,
		Kind:        KindProfile,
		Profile:     profile,
		AllProfiles: allProfiles,
		Fields:      fields,
	}
}

func resolveAzure(fields map[string]string, allProfiles bool) (Credentials, error) {
	creds := Credentials{
		Provider:    provider.ProviderAzure,
		Kind:        KindProfile,
		Profile:     fields[FieldProfile],
		AllProfiles: allProfiles,
		Fields:      fields,
	}

	secretFields := []string{FieldTenantID, FieldClientID, FieldClientSecret}
	var present, missing []string
	for _, f := range secretFields {
		if fields[f] != "" {
			present = append(present, f)
		} else {
			missing = append(missing, f)
		}
	}

	switch {
	case len(present) == len(secretFields):
		if _, err := azidentity.NewClientSecretCredential(fields[FieldTenantID], fields[FieldClientID], fields[FieldClientSecret], nil); err != nil {
			return Credentials{}, &provider.ValidationError{Field: "azureCredentials", Message: fmt.Sprintf("invalid service principal: %v", err)}
		}
		creds.Kind = KindExplicit
	case len(present) > 0:
		return Credentials{}, &provider.ValidationError{
			Field:   "azureCredentials",
			Message: fmt.Sprintf("incomplete service principal, missing %s", strings.Join(missing, ", ")),
		}
	}

	if creds.Profile == "" && fields[FieldSubscriptionID] == "" {
		creds.Profile = DefaultProfile
	}
	return creds, nil
}

// projectIDField names the mandatory GCP field in validation errors
const projectIDField = "gcpCredentials.projectId"

func resolveGCP(fields map[string]string) (Credentials, error) {
	if fields[FieldProjectID] == "" {
		return Credentials{}, &provider.ValidationError{Field: projectIDField, Message: "projectId is required"}
	}

	creds := Credentials{
		Provider: provider.ProviderGCP,
		Kind:     KindProfile,
		Fields:   fields,
	}

	if key := fields[FieldServiceAccountJSON]; key != "" {
		if _, err := google.CredentialsFromJSON(context.Background(), []byte(key), gcpScope); err != nil {
			return Credentials{}, &provider.ValidationError{Field: "gcpCredentials.serviceAccountJson", Message: fmt.Sprintf("invalid service account key: %v", err)}
		}
		creds.Kind = KindExplicit
	} else if fields[FieldServiceAccountKeyPath] != "" {
		creds.Kind = KindExplicit
	}
	return creds, nil
}

// IsMissingProject reports whether err is the GCP missing-projectId validation failure
func IsMissingProject(err error) bool {
	var v *provider.ValidationError
	return errors.As(err, &v) && v.Field == projectIDField
}

// LookupKey is the name of the response block these credentials select:
// the AWS profile, the Azure subscription (or profile), or the GCP project.
func (c Credentials) LookupKey() string {
	switch c.Provider {
	case provider.ProviderAzure:
		if sub := c.Fields[FieldSubscriptionID]; sub != "" {
			return sub
		}
		return c.Profile
	case provider.ProviderGCP:
		return c.Fields[FieldProjectID]
	default:
		return c.Profile
	}
}

// Args renders the credentials as gateway call arguments
func (c Credentials) Args() map[string]any {
	args := map[string]any{}

	switch c.Provider {
	case provider.ProviderAWS:
		if c.AllProfiles {
			args["all_profiles"] = true
		} else {
			args["profiles"] = []string{c.Profile}
		}

	case provider.ProviderAzure:
		if c.AllProfiles {
			args["all_profiles"] = true
		} else if c.Profile != "" {
			args["profile"] = c.Profile
		}
		if c.Kind == KindExplicit {
			args["tenant_id"] = c.Fields[FieldTenantID]
			args["client_id"] = c.Fields[FieldClientID]
			args["client_secret"] = c.Fields[FieldClientSecret]
		}
		if sub := c.Fields[FieldSubscriptionID]; sub != "" {
			args["subscription_id"] = sub
		}

	case provider.ProviderGCP:
		args["project_id"] = c.Fields[FieldProjectID]
		if v := c.Fields[FieldServiceAccountJSON]; v != "" {
			args["service_account_json"] = v
		}
		if v := c.Fields[FieldServiceAccountKeyPath]; v != "" {
			args["service_account_key_path"] = v
		}
		if v := c.Fields[FieldBillingAccountID]; v != "" {
			args["billing_account_id"] = v
		}
	}
	return args
}

// String describes the credentials without secrets, for logs
func (c Credentials) String() string {
	if c.AllProfiles {
		return fmt.Sprintf("%s/%s(all profiles)", c.Provider, c.Kind)
	}
	return fmt.Sprintf("%s/%s(%s)", c.Provider, c.Kind, c.LookupKey())
}

// FromRequest converts a request body credential object into overrides. Non-string values
// are rendered as text and "allProfiles" is lifted into the broadcast flag.
func FromRequest(body map[string]any) Overrides {
	o := Overrides{Fields: make(map[string]string, len(body))}
	for k, v := range body {
		if k == "allProfiles" {
			switch b := v.(type) {
			case bool:
				o.AllProfiles = b
			case string:
				o.AllProfiles = strings.EqualFold(b, "true")
			}
			continue
		}
		switch s := v.(type) {
		case nil:
		case string:
			o.Fields[k] = s
		default:
			o.Fields[k] = fmt.Sprint(s)
		}
	}
	return o
}
