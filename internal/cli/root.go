// Package cli wires the commands: provision reconciles and publishes,
// preview probes without side effects.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "groundwork",
	Short: "Idempotent provisioning for the agent runtime substrate",
	Long: `Groundwork converges a fixed set of cloud resources (artifact bucket,
tool bundle, execution role, tool function, auth pool and client, and
the support table) toward their described state. Existing resources
are reused, missing ones are created, and ambiguous matches stop the
descriptor rather than guess.

Resolved identifiers are published to SSM Parameter Store so downstream
tooling can discover them by well-known path.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(versionCmd)
}
