package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zgpcy/finops-dashboard-api/internal/gateway"
)

var gatewaysTimeout time.Duration

var gatewaysCmd = &cobra.Command{
	Use:   "gateways",
	Short: "Probe the configured provider gateways",
	Long: `Check the AWS gateway health endpoint and list the tools it exposes,
then print the Azure and GCP gateway addresses in use.

Examples:
  finops-api gateways
  finops-api gateways --config config.yaml --timeout 5s`,
	RunE: runGateways,
}

func init() {
	rootCmd.AddCommand(gatewaysCmd)
	gatewaysCmd.Flags().DurationVar(&gatewaysTimeout, "timeout", 10*time.Second, "Timeout for each gateway call")
}

func runGateways(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	aws := gateway.NewAWSClient(cfg.Gateways.AWSBaseURL, gateway.WithTimeout(gatewaysTimeout))

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*gatewaysTimeout)
	defer cancel()

	status := aws.HealthCheck(ctx)
	fmt.Fprintf(out, "aws    %s\n", cfg.Gateways.AWSBaseURL)
	if !status.Healthy {
		fmt.Fprintf(out, "  health: unhealthy (%s)\n", status.Error)
	} else {
		fmt.Fprintf(out, "  health: %s\n", status.Status)
		tools, err := aws.ListTools(ctx)
		if err != nil {
			fmt.Fprintf(out, "  tools:  %v\n", err)
		} else {
			fmt.Fprintf(out, "  tools:  %d\n", len(tools))
			for _, tool := range tools {
				fmt.Fprintf(out, "    - %s: %s\n", tool.Name, tool.Description)
			}
		}
	}

	fmt.Fprintf(out, "azure  %s\n", cfg.Gateways.AzureBaseURL)
	fmt.Fprintf(out, "gcp    %s\n", cfg.Gateways.GCPBaseURL)

	if !status.Healthy {
		return fmt.Errorf("aws gateway unhealthy")
	}
	return nil
}
