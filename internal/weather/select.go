package weather

import (
	"time"

	"github.com/tphakala/wtracker/internal/datastore"
	"github.com/tphakala/wtracker/internal/errors"
	"github.com/tphakala/wtracker/internal/observability/metrics"
)

// SelectCurrent picks the forecast describing current conditions from rows
// ordered by ascending epoch: the first row strictly after now, or the last
// row when every forecast is at or before now.
func SelectCurrent(rows []datastore.Forecast, now time.Time) (datastore.Forecast, error) {
	f, _, err := selectCurrent(rows, now)
	return f, err
}

// selectCurrent also reports whether the selection fell back to the latest
// past forecast.
func selectCurrent(rows []datastore.Forecast, now time.Time) (forecast datastore.Forecast, fallback bool, err error) {
	if len(rows) == 0 {
		return datastore.Forecast{}, false, errors.New(ErrNoForecasts).
			Component(componentName).
			Category(errors.CategoryNotFound).
			Context("operation", "select_current").
			Build()
	}

	cutoff := now.Unix()
	for i := range rows {
		if rows[i].Epoch > cutoff {
			return rows[i], false, nil
		}
	}
	return rows[len(rows)-1], true, nil
}

// CurrentForecast returns the current forecast for a location.
func (s *Service) CurrentForecast(loc datastore.Location) (datastore.Forecast, error) {
	scanStart := time.Now()
	rows, err := s.db.ScanForecasts(loc.ID)
	s.recordDb(metrics.OpScanForecasts, err, scanStart)
	if err != nil {
		return datastore.Forecast{}, err
	}

	forecast, fallback, err := selectCurrent(rows, s.clock.Now())
	if err != nil {
		s.recordSelection(metrics.StatusEmpty)
		return datastore.Forecast{}, errors.New(err).
			Component(componentName).
			Category(errors.CategoryNotFound).
			Context("operation", "current_forecast").
			Location(loc.ID).
			Context("city", loc.City).
			Build()
	}

	if fallback {
		s.recordSelection(metrics.StatusFallback)
		s.logger.Debug("no upcoming forecast, using latest stored", "location_id", loc.ID, "epoch", forecast.Epoch)
	} else {
		s.recordSelection(metrics.StatusUpcoming)
	}
	return forecast, nil
}

// CurrentForecasts returns the current forecast of every tracked location
// keyed by city. Locations that fail are left out and their errors are
// joined into the returned error; the map is returned in either case. A
// registry failure returns a nil map.
func (s *Service) CurrentForecasts() (map[string]datastore.Forecast, error) {
	listStart := time.Now()
	locations, err := s.db.ListTrackedLocations()
	s.recordDb(metrics.OpListLocations, err, listStart)
	if err != nil {
		return nil, err
	}

	current := make(map[string]datastore.Forecast, len(locations))
	var errs []error
	for _, loc := range locations {
		forecast, err := s.CurrentForecast(loc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		current[loc.City] = forecast
	}

	return current, errors.Join(errs...)
}

// SplitSelectionErrors separates the error returned by CurrentForecasts
// into the ids of locations that have no stored forecasts and an error
// joining every other failure. other is nil when each failure was a
// location without forecasts.
func SplitSelectionErrors(err error) (missing map[int]bool, other error) {
	if err == nil {
		return nil, nil
	}

	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}

	missing = make(map[int]bool)
	var others []error
	for _, e := range errs {
		var enhanced *errors.EnhancedError
		if errors.IsNotFound(e) && errors.As(e, &enhanced) {
			if id, ok := enhanced.LocationID(); ok {
				missing[id] = true
				continue
			}
		}
		others = append(others, e)
	}
	return missing, errors.Join(others...)
}

func (s *Service) recordSelection(result string) {
	if s.metrics != nil {
		s.metrics.RecordWeatherSelection(result)
	}
}
