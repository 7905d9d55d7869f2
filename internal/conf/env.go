// env.go - Environment variable configuration and validation for wtracker
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "WTRACKER_DEBUG", validateEnvBool},

		// Forecast provider
		{"openweather.apikey", "WTRACKER_OPENWEATHER_APIKEY", nil},
		{"openweather.endpoint", "WTRACKER_OPENWEATHER_ENDPOINT", validateEnvURL},
		{"openweather.requestsperminute", "WTRACKER_OPENWEATHER_RPM", validateEnvPositiveInt},

		// Forecast store
		{"database.type", "WTRACKER_DATABASE_TYPE", validateEnvDatabaseType},
		{"database.sqlite.path", "WTRACKER_SQLITE_PATH", nil},
		{"database.mysql.host", "WTRACKER_MYSQL_HOST", nil},
		{"database.mysql.port", "WTRACKER_MYSQL_PORT", validateEnvPort},
		{"database.mysql.username", "WTRACKER_MYSQL_USER", nil},
		{"database.mysql.password", "WTRACKER_MYSQL_PASSWORD", nil},
		{"database.mysql.database", "WTRACKER_MYSQL_DATABASE", nil},

		// Scheduling and serving
		{"poll.enabled", "WTRACKER_POLL_ENABLED", validateEnvBool},
		{"poll.interval", "WTRACKER_POLL_INTERVAL", validateEnvPositiveInt},
		{"webserver.listen", "WTRACKER_LISTEN", nil},

		// Telemetry
		{"sentry.enabled", "WTRACKER_SENTRY_ENABLED", validateEnvBool},
		{"sentry.dsn", "WTRACKER_SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// Environment variable validation functions

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f, TRUE/FALSE, T/F", value)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n <= 0 {
		return fmt.Errorf("must be greater than zero, got %d", n)
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvDatabaseType(value string) error {
	switch value {
	case DatabaseSQLite, DatabaseMySQL:
		return nil
	}
	return fmt.Errorf("must be one of: %s, %s", DatabaseSQLite, DatabaseMySQL)
}

func validateEnvURL(value string) error {
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return fmt.Errorf("must be an http or https URL")
	}
	return nil
}
