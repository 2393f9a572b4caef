package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/mesh-intelligence/worldwise/pkg/types"
)

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func (a *app) printCities(w io.Writer, cities []types.City) error {
	if a.flags.jsonMode {
		return printJSON(w, cities)
	}
	if len(cities) == 0 {
		_, err := fmt.Fprintln(w, "Add your first city by clicking on a city on the map")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCITY\tCOUNTRY\tDATE")
	for _, c := range cities {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n", c.ID, c.Emoji, c.CityName, c.Country, c.Date)
	}
	return tw.Flush()
}

func (a *app) printCity(w io.Writer, c types.City) error {
	if a.flags.jsonMode {
		return printJSON(w, c)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", c.ID)
	fmt.Fprintf(tw, "City:\t%s %s\n", c.Emoji, c.CityName)
	fmt.Fprintf(tw, "Country:\t%s\n", c.Country)
	fmt.Fprintf(tw, "Visited:\t%s\n", c.Date)
	fmt.Fprintf(tw, "Position:\t%s, %s\n", formatCoord(c.Position.Lat), formatCoord(c.Position.Lng))
	if c.Notes != "" {
		fmt.Fprintf(tw, "Notes:\t%s\n", c.Notes)
	}
	return tw.Flush()
}

func (a *app) printCountries(w io.Writer, countries []types.Country) error {
	if a.flags.jsonMode {
		return printJSON(w, countries)
	}
	if len(countries) == 0 {
		_, err := fmt.Fprintln(w, "Add your first city by clicking on a city on the map")
		return err
	}
	for _, c := range countries {
		if _, err := fmt.Fprintf(w, "%s %s\n", c.Emoji, c.Country); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) printDistances(w io.Writer, ds []types.CityDistance) error {
	if a.flags.jsonMode {
		return printJSON(w, ds)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCITY\tCOUNTRY\tDISTANCE")
	for _, d := range ds {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%.1f km\n", d.City.ID, d.City.Emoji, d.City.CityName, d.City.Country, d.DistanceKm)
	}
	return tw.Flush()
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
