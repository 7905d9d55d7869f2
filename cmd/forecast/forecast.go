package forecast

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/wtracker/internal/conf"
	"github.com/tphakala/wtracker/internal/runtime"
	"github.com/tphakala/wtracker/internal/weather"
)

// Command creates a new cobra.Command that prints the current forecast of
// every tracked location.
func Command(settings *conf.Settings, build runtime.BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print the current forecast for each tracked location",
		Long: "For each tracked location prints the first stored forecast after the current time, " +
			"or the most recent stored forecast when none is in the future.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtime.New(settings, build)
			if err != nil {
				return err
			}
			defer rt.Close()

			locations, err := rt.Store.ListTrackedLocations()
			if err != nil {
				return err
			}

			current, selectErr := rt.Weather.CurrentForecasts()
			if current == nil {
				return selectErr
			}

			missing, failed := weather.SplitSelectionErrors(selectErr)
			WriteReport(cmd.OutOrStdout(), locations, current)
			for _, loc := range locations {
				if missing[loc.ID] {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: no forecasts stored\n", loc.City)
				}
			}
			return failed
		},
	}

	return cmd
}
