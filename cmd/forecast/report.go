package forecast

import (
	"fmt"
	"io"

	"github.com/tphakala/wtracker/internal/datastore"
)

const (
	reportHeader    = "date/time          location      conditions temperature humidity %cloudy  wind"
	reportSeparator = "-----------------  ------------- ---------- ----------- -------- ------- -------"

	// timestampWidth keeps "YYYY-MM-DD HH:MM"
	timestampWidth = 16
)

// WriteReport prints the fixed-width forecast table in registry order.
// Locations without a current forecast are skipped.
func WriteReport(w io.Writer, locations []datastore.Location, current map[string]datastore.Forecast) {
	_, _ = io.WriteString(w, "\n"+reportHeader+"\n"+reportSeparator+"\n")
	for _, loc := range locations {
		f, ok := current[loc.City]
		if !ok {
			continue
		}
		fmt.Fprintln(w, formatRow(loc.City, f))
	}
}

// formatRow renders one table line.
func formatRow(city string, f datastore.Forecast) string {
	ts := f.Timestamp
	if len(ts) > timestampWidth {
		ts = ts[:timestampWidth]
	}
	return fmt.Sprintf("%s   %-16s%-13s%dF        %d%%     %3d%%   %s",
		ts, city, f.Conditions, f.Temperature, f.Humidity, f.PercCloudy, f.Wind)
}
