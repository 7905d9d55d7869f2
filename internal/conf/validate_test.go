package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Database.Type = DatabaseSQLite
	s.Database.SQLite.Path = "wtracker.db"
	s.OpenWeather.Endpoint = "https://api.openweathermap.org/data/2.5/forecast"
	s.OpenWeather.Timeout = 10 * time.Second
	s.OpenWeather.RequestsPerMinute = 60
	s.Poll.Interval = 180
	s.Locations = DefaultLocations()
	return s
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(s *Settings)
		wantErr string
	}{
		{"valid", func(s *Settings) {}, ""},
		{"unknown database", func(s *Settings) { s.Database.Type = "postgres" }, "unknown database type"},
		{"empty sqlite path", func(s *Settings) { s.Database.SQLite.Path = "" }, "sqlite path"},
		{"mysql missing host", func(s *Settings) {
			s.Database.Type = DatabaseMySQL
			s.Database.MySQL = MySQLSettings{Username: "root", Database: "forecasts", Port: "3306"}
		}, "mysql host"},
		{"mysql bad port", func(s *Settings) {
			s.Database.Type = DatabaseMySQL
			s.Database.MySQL = MySQLSettings{Host: "localhost", Username: "root", Database: "forecasts", Port: "99999"}
		}, "not a valid port"},
		{"relative endpoint", func(s *Settings) { s.OpenWeather.Endpoint = "/data/2.5/forecast" }, "endpoint"},
		{"zero rate", func(s *Settings) { s.OpenWeather.RequestsPerMinute = 0 }, "requests per minute"},
		{"zero poll interval", func(s *Settings) { s.Poll.Interval = 0 }, "poll interval"},
		{"sentry without dsn", func(s *Settings) { s.Sentry.Enabled = true }, "sentry DSN"},
		{"duplicate location", func(s *Settings) {
			s.Locations = append(s.Locations, LocationSeed{ID: 5809844, City: "Seattle"})
		}, "duplicate id 5809844"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := validSettings()
			tt.modify(s)

			err := ValidateSettings(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.IsType(t, ValidationError{}, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateEnvBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		wantErr bool
	}{
		{"true", false},
		{"0", false},
		{" false ", false},
		{"yes", true},
		{"", true},
	}

	for _, tt := range tests {
		err := validateEnvBool(tt.value)
		if tt.wantErr {
			assert.Error(t, err, "value %q", tt.value)
		} else {
			assert.NoError(t, err, "value %q", tt.value)
		}
	}
}

func TestValidateEnvPort(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateEnvPort("3306"))
	assert.Error(t, validateEnvPort("0"))
	assert.Error(t, validateEnvPort("65536"))
	assert.Error(t, validateEnvPort("mysql"))
}
