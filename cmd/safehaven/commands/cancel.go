package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/safehaven/cmd/safehaven/handlers"
)

// Cancel returns the cancel command.
func Cancel() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel an in-progress update on the environment's stack",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Cancel(cmd.Context(), configPath)
		},
	}

	configFlag(cmd, &configPath)
	return cmd
}
