package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/safehaven/cmd/safehaven/handlers"
)

// Output returns the output command.
func Output() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "output NAME",
		Short: "Print a stack output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Output(cmd.Context(), configPath, args[0])
		},
	}

	configFlag(cmd, &configPath)
	return cmd
}
