// conf/validate.go

package conf

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	// Validate Database settings
	if err := validateDatabaseSettings(&settings.Database); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate OpenWeather settings
	if err := validateOpenWeatherSettings(&settings.OpenWeather); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate Poll settings
	if settings.Poll.Interval <= 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("poll interval must be a positive number of minutes, got %d", settings.Poll.Interval))
	}

	// Validate Sentry settings
	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry DSN is required when sentry is enabled")
	}

	// Validate location seeds
	if err := ValidateLocations(settings.Locations); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// If there are any errors, return the ValidationError
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateDatabaseSettings validates the selected store backend
func validateDatabaseSettings(settings *DatabaseSettings) error {
	var errs []string

	switch settings.Type {
	case DatabaseSQLite:
		if settings.SQLite.Path == "" {
			errs = append(errs, "sqlite path must not be empty")
		}
	case DatabaseMySQL:
		if settings.MySQL.Host == "" {
			errs = append(errs, "mysql host must not be empty")
		}
		if settings.MySQL.Database == "" {
			errs = append(errs, "mysql database must not be empty")
		}
		if settings.MySQL.Username == "" {
			errs = append(errs, "mysql username must not be empty")
		}
		if port, err := strconv.Atoi(settings.MySQL.Port); err != nil || port < 1 || port > 65535 {
			errs = append(errs, fmt.Sprintf("mysql port %q is not a valid port", settings.MySQL.Port))
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown database type %q, must be %s or %s", settings.Type, DatabaseSQLite, DatabaseMySQL))
	}

	if len(errs) > 0 {
		return errors.New("database settings errors: " + strings.Join(errs, ", "))
	}
	return nil
}

// validateOpenWeatherSettings validates the forecast provider settings. An
// empty API key is accepted here and rejected by the commands that fetch.
func validateOpenWeatherSettings(settings *OpenWeatherSettings) error {
	var errs []string

	if u, err := url.Parse(settings.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("endpoint %q must be an absolute http(s) URL", settings.Endpoint))
	}
	if settings.RequestsPerMinute <= 0 {
		errs = append(errs, "requests per minute must be greater than zero")
	}
	if settings.Timeout < 0 {
		errs = append(errs, "timeout must not be negative")
	}

	if len(errs) > 0 {
		return errors.New("openweather settings errors: " + strings.Join(errs, ", "))
	}
	return nil
}

// ValidateLocations checks location seeds for positive, unique ids and a city name.
func ValidateLocations(seeds []LocationSeed) error {
	var errs []string
	seen := make(map[int]bool, len(seeds))

	for i, seed := range seeds {
		if seed.ID <= 0 {
			errs = append(errs, fmt.Sprintf("location %d: id must be positive", i))
		}
		if strings.TrimSpace(seed.City) == "" {
			errs = append(errs, fmt.Sprintf("location %d: city must not be empty", i))
		}
		if seen[seed.ID] {
			errs = append(errs, fmt.Sprintf("location %d: duplicate id %d", i, seed.ID))
		}
		seen[seed.ID] = true
	}

	if len(errs) > 0 {
		return errors.New("location errors: " + strings.Join(errs, ", "))
	}
	return nil
}
