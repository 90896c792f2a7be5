package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/safehaven/cmd/safehaven/handlers"
)

// Deploy returns the deploy command.
func Deploy() *cobra.Command {
	var (
		configPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create or update the environment's stack",
		Long: `Deploy brings the stack described by the configuration file up to date.

The stack is created on first use. Configuration options are applied, the
stack is refreshed against the cloud, a diff is previewed and the update is
applied. Generated secrets are created once and kept on later deploys.

Example:
  safehaven deploy -c safehaven.yaml

Use --force to cancel an update left running by an interrupted invocation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Deploy(cmd.Context(), configPath, force)
		},
	}

	configFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&force, "force", false, "Cancel any in-progress update before deploying")

	return cmd
}
