package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldwise/pkg/types"
)

func newCountriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List visited countries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			return a.printCountries(cmd.OutOrStdout(), types.Countries(s.State().Cities))
		},
	}
}
