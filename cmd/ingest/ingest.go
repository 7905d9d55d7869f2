package ingest

import (
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/tphakala/wtracker/internal/conf"
	"github.com/tphakala/wtracker/internal/errors"
	"github.com/tphakala/wtracker/internal/runtime"
	"github.com/tphakala/wtracker/internal/weather"
)

// Command creates a new cobra.Command that runs one ingestion pass.
func Command(settings *conf.Settings, build runtime.BuildInfo) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch and store forecasts for all tracked locations",
		Long: "Fetches the 5 day / 3 hour forecast of every tracked location and appends it to the forecast store. " +
			"A failing location does not stop the run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtime.New(settings, build)
			if err != nil {
				return err
			}
			defer rt.Close()

			summary, err := rt.Weather.IngestAll(cmd.Context())
			if summary != nil {
				WriteReport(cmd.OutOrStdout(), summary)
			}
			if err != nil {
				return err
			}

			if failed := len(summary.Failed()); strict && failed > 0 {
				return fmt.Errorf("%d of %d locations failed", failed, len(summary.Results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when any location fails")

	return cmd
}

// WriteReport prints the outcome and stored total of every location and
// the number of locations processed.
func WriteReport(w io.Writer, summary *weather.IngestSummary) {
	for _, r := range summary.Results {
		fmt.Fprintf(w, "Updating location %d: %s, %s ... ", r.LocationID, r.City, r.Country)
		if r.OK() {
			fmt.Fprintf(w, "%d written, %d total forecasts\n", r.Rows, r.TotalRows)
			continue
		}
		fmt.Fprintf(w, "REQUEST FAILED: %s\n", failureReason(r))
		fmt.Fprintf(w, "%d total forecasts\n", r.TotalRows)
	}
	fmt.Fprintf(w, "%d locations updated\n", len(summary.Results))
}

// failureReason returns a short description of a failed location.
func failureReason(r weather.LocationResult) string {
	var enhanced *errors.EnhancedError
	if r.Failure == weather.FailureFetch && errors.As(r.Err, &enhanced) {
		if status, ok := enhanced.GetContext()["status_code"].(int); ok {
			return fmt.Sprintf("status code %d (%s)", status, http.StatusText(status))
		}
	}
	return fmt.Sprintf("%s: %v", r.Failure, r.Err)
}
