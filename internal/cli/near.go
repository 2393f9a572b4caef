package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldwise/pkg/types"
)

func newNearCmd(a *app) *cobra.Command {
	var (
		lat, lng float64
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "near",
		Short: "List visited cities by distance from a point",
		Long: `Near prints visited cities sorted by great-circle distance from the
given position, nearest first.

Example:
  worldwise near --lat 38.72 --lng -9.14 --limit 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pos := types.Position{Lat: lat, Lng: lng}
			if !pos.Valid() {
				return userError("position %v,%v: %w", lat, lng, types.ErrInvalidPosition)
			}
			if limit < 0 {
				return userError("--limit must not be negative")
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			ranked := types.ByDistance(s.State().Cities, pos)
			if limit > 0 && len(ranked) > limit {
				ranked = ranked[:limit]
			}
			return a.printDistances(cmd.OutOrStdout(), ranked)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees (required)")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude in degrees (required)")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many cities (0 for all)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}
