package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/safehaven/cmd/safehaven/handlers"
)

// Secret returns the secret command.
func Secret() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "secret NAME",
		Short: "Print a configuration value of the stack, decrypting secrets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Secret(cmd.Context(), configPath, args[0])
		},
	}

	configFlag(cmd, &configPath)
	return cmd
}
