package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldwise/pkg/worldwise"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the worldwise version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "worldwise v%s\nmodule: %s\ncommit: %s\n", worldwise.Version, worldwise.ModulePath, worldwise.Commit)
			return nil
		},
	}
}
