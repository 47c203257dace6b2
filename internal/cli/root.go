// Package cli defines the stempel command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the top-level "stempel" command and registers all
// subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stempel",
		Short:         "Single-user time tracking and billing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newReportCmd(),
		newHashPasswordCmd(),
	)

	return root
}
