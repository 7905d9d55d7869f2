package provision

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/wtracker/internal/conf"
	"github.com/tphakala/wtracker/internal/datastore"
	"github.com/tphakala/wtracker/internal/runtime"
)

// Command creates a new cobra.Command that recreates the forecast store.
func Command(settings *conf.Settings, build runtime.BuildInfo) *cobra.Command {
	var (
		locationsFile string
		dump          bool
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Drop and recreate the forecast tables and seed the tracked locations",
		Long: "Drops the forecasts and locations tables, recreates them and seeds the location registry. " +
			"All stored forecasts are deleted. Locations come from --locations, the config file, or the built-in defaults.",
		RunE: func(cmd *cobra.Command, args []string) error {
			seeds, source, err := resolveSeeds(settings, locationsFile)
			if err != nil {
				return err
			}

			if dump {
				data, err := conf.MarshalLocations(seeds)
				if err != nil {
					return fmt.Errorf("error encoding locations: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			rt, err := runtime.New(settings, build, runtime.StoreOnly())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Store.Reset(datastore.LocationsFromSeeds(seeds)); err != nil {
				return err
			}

			locations, err := rt.Store.ListLocations()
			if err != nil {
				return err
			}
			writeSummary(cmd.OutOrStdout(), source, locations)
			return nil
		},
	}

	cmd.Flags().StringVarP(&locationsFile, "locations", "l", "", "YAML file with the locations to seed")
	cmd.Flags().BoolVar(&dump, "dump", false, "Print the resolved locations as YAML and exit without touching the database")

	return cmd
}

// resolveSeeds returns the seed locations and where they came from.
func resolveSeeds(settings *conf.Settings, path string) ([]conf.LocationSeed, string, error) {
	switch {
	case path != "":
		seeds, err := conf.LoadLocations(path)
		if err != nil {
			return nil, "", err
		}
		return seeds, path, nil
	case len(settings.Locations) > 0:
		return settings.Locations, "config", nil
	default:
		return conf.DefaultLocations(), "defaults", nil
	}
}

// writeSummary prints the recreated tables and the seeded registry.
func writeSummary(w io.Writer, source string, locations []datastore.Location) {
	fmt.Fprintln(w, "forecasts and locations tables recreated")
	fmt.Fprintln(w, center(fmt.Sprintf(" locations (%s) ", source), 70, '-'))
	for _, l := range locations {
		fmt.Fprintf(w, "%-10d %-26s tracked=%t\n", l.ID, l.Label(), l.Tracked)
	}
	fmt.Fprintf(w, "%d locations seeded\n", len(locations))
}

// center pads s on both sides with fill up to width.
func center(s string, width int, fill rune) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	right := width - len(s) - left
	return strings.Repeat(string(fill), left) + s + strings.Repeat(string(fill), right)
}
