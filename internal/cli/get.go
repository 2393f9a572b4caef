package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldwise/pkg/types"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one city",
		Long: `Get fetches the city with the given id and prints it.

Example:
  worldwise get 73930385`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newStore()
			if err != nil {
				return err
			}
			if err := s.GetCity(cmd.Context(), types.CityID(args[0])); err != nil {
				return a.storeFailure(s, err)
			}
			return a.printCity(cmd.OutOrStdout(), s.State().CurrentCity)
		},
	}
}
