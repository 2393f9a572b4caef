package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldwise/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	var country string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visited cities",
		Long: `List loads the city list from the API and prints it.

Example:
  worldwise list
  worldwise list --country Portugal
  worldwise list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			cities := s.State().Cities
			if country != "" {
				cities = byCountry(cities, country)
			}
			return a.printCities(cmd.OutOrStdout(), cities)
		},
	}
	cmd.Flags().StringVar(&country, "country", "", "only cities in this country (case-insensitive)")
	return cmd
}

func byCountry(cities []types.City, country string) []types.City {
	out := []types.City{}
	for _, c := range cities {
		if strings.EqualFold(c.Country, country) {
			out = append(out, c)
		}
	}
	return out
}
