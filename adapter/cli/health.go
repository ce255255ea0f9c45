package cli

import (
	"fmt"

	"github.com/felixgeelhaar/rendezvous/pkg/observability"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity of configured collaborators",
	Long: `Ping every collaborator the current configuration enables
(delivery journal, Redis, RabbitMQ) and print the result as JSON.

Exits non-zero when any required collaborator is unhealthy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		if app.Health == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		}

		health := app.Health.GetOverallHealth(cmd.Context())
		body, err := health.ToJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(body))

		if health.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
