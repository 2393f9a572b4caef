package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldwise/pkg/types"
)

type createFlags struct {
	name    string
	country string
	emoji   string
	date    string
	notes   string
	lat     float64
	lng     float64
}

func newCreateCmd(a *app) *cobra.Command {
	var f createFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a visited city",
		Long: `Create adds a city to the list through the API and prints the stored
record with its assigned id. The visit date defaults to today.

Example:
  worldwise create --name Lisbon --country Portugal --emoji 🇵🇹 --lat 38.7223 --lng -9.1393
  worldwise create --name Madrid --country Spain --date 2027-07-15 --notes "Prado" --lat 40.4168 --lng -3.7038`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			city, err := f.city(time.Now())
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			created, err := s.CreateCity(cmd.Context(), city)
			if err != nil {
				return a.storeFailure(s, err)
			}
			return a.printCity(cmd.OutOrStdout(), created)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.name, "name", "", "city name (required)")
	fl.StringVar(&f.country, "country", "", "country name")
	fl.StringVar(&f.emoji, "emoji", "", "country flag emoji")
	fl.StringVar(&f.date, "date", "", "visit date, YYYY-MM-DD or RFC 3339 (default today)")
	fl.StringVar(&f.notes, "notes", "", "notes about the trip")
	fl.Float64Var(&f.lat, "lat", 0, "latitude in degrees (required)")
	fl.Float64Var(&f.lng, "lng", 0, "longitude in degrees (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

// city builds and validates the record described by the flags.
func (f createFlags) city(now time.Time) (types.City, error) {
	c := types.City{
		CityName: strings.TrimSpace(f.name),
		Country:  strings.TrimSpace(f.country),
		Emoji:    f.emoji,
		Date:     f.date,
		Notes:    f.notes,
		Position: types.Position{Lat: f.lat, Lng: f.lng},
	}
	if c.Date == "" {
		c.Date = now.Format(time.DateOnly)
	}
	if err := c.Validate(); err != nil {
		return types.City{}, userError("invalid city: %w", err)
	}
	return c, nil
}
