package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/safehaven/cmd/safehaven/handlers"
)

// Teardown returns the teardown command.
func Teardown() *cobra.Command {
	var (
		configPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Destroy the environment's stack and clean up after it",
		Long: `Teardown destroys every resource of the stack and removes what is left
behind afterwards:
  - the stack itself
  - the engine's state backup
  - the soft-deleted key vault (when cleanup.purge_key_vault is set)
  - the stack's entry in the project record

Destroy is retried while Azure reports resources as still in use.

Example:
  safehaven teardown -c safehaven.yaml

WARNING: This operation is irreversible.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Teardown(cmd.Context(), configPath, force)
		},
	}

	configFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&force, "force", false, "Cancel any in-progress update before destroying")

	return cmd
}
