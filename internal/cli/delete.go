package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldwise/pkg/types"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a visited city",
		Long: `Delete removes the city with the given id and prints the remaining list.

Example:
  worldwise delete 73930385`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.DeleteCity(cmd.Context(), types.CityID(args[0])); err != nil {
				return a.storeFailure(s, err)
			}
			return a.printCities(cmd.OutOrStdout(), s.State().Cities)
		},
	}
}
