// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers
// package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the safehaven CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "safehaven",
		Short:         "Deploy and tear down secure research environments on Azure",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Deploy())
	cmd.AddCommand(Teardown())
	cmd.AddCommand(Cancel())
	cmd.AddCommand(Output())
	cmd.AddCommand(Secret())
	cmd.AddCommand(Version())

	return cmd
}

// configFlag binds the shared --config/-c flag.
func configFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "config", "c", "safehaven.yaml", "Path to the deployment configuration file")
}
