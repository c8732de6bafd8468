package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// EBSGBMonthRate estimates an unattached volume's monthly cost when the gateway omits it
const EBSGBMonthRate = 0.10

var awsShape = keyedShape{
	provider:     provider.ProviderAWS,
	blockPrefix:  "Profile Name: ",
	costDataKey:  "accounts_cost_data",
	auditDataKey: "accounts_audit_data",
	errorsKey:    "errors_for_profiles",
	categoryKeys: []string{"Cost By SERVICE", "Cost By Service"},
	regionKeys:   []string{"Cost By REGION", "Cost By Region"},
	instanceKeys: []string{"instances", "ec2_instances"},
	detachedKeys: []string{"unattached_volumes"},
}

// awsRecommendations turns a run_finops_audit response into savings opportunities:
// unattached volumes and stopped instances.
func awsRecommendations(raw json.RawMessage, lookup Lookup) ([]provider.Recommendation, error) {
	instances, volumes, err := keyedAuditEntries(awsShape, raw, lookup)
	if err != nil {
		return nil, err
	}

	recs := make([]provider.Recommendation, 0, len(volumes))
	for _, v := range volumes {
		id := pickString(v.fields, "volume_id", "VolumeId", "id")
		savings, ok, err := pickAmount(provider.ProviderAWS, v.fields, "monthly_cost", "estimated_monthly_cost")
		if err != nil {
			return nil, err
		}
		if !ok {
			size, _, err := pickAmount(provider.ProviderAWS, v.fields, "size_gb", "Size")
			if err != nil {
				return nil, err
			}
			savings = size * EBSGBMonthRate
		}

		rec := provider.NewRecommendation(provider.ProviderAWS, "storage",
			fmt.Sprintf("Delete unattached EBS volume %s", orUnknown(id)), savings)
		rec.ResourceID = id
		rec.Region = pickString(v.fields, "region", "Region")
		recs = append(recs, rec)
	}

	for _, inst := range instances {
		if !inst.unused {
			continue
		}
		id := pickString(inst.fields, "instance_id", "InstanceId", "id")
		savings, _, err := pickAmount(provider.ProviderAWS, inst.fields, "monthly_cost", "estimated_monthly_cost")
		if err != nil {
			return nil, err
		}

		rec := provider.NewRecommendation(provider.ProviderAWS, "compute",
			fmt.Sprintf("Terminate or snapshot stopped EC2 instance %s", orUnknown(id)), savings)
		rec.ResourceID = id
		rec.Region = pickString(inst.fields, "region", "Region")
		recs = append(recs, rec)
	}

	return recs, nil
}

func orUnknown(id string) string {
	if id == "" {
		return "(unknown id)"
	}
	return id
}
