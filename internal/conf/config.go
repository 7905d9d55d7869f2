// config.go: this file contains the configuration for the wtracker application
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Database backends
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// Log rotation types
const (
	RotationDaily  = "daily"
	RotationWeekly = "weekly"
	RotationSize   = "size"
)

// LogConfig defines the configuration for the structured file log
type LogConfig struct {
	Enabled  bool   // true to enable the JSON file log
	Path     string // path to the log file
	Level    string // debug, info, warn or error
	Rotation string // daily, weekly or size
	MaxSize  int64  // max size in bytes for size-based rotation
}

// SQLiteSettings contains settings for the SQLite database.
type SQLiteSettings struct {
	Path string // path to the SQLite database file
}

// MySQLSettings contains settings for the MySQL database.
type MySQLSettings struct {
	Username string // username for the MySQL database
	Password string // password for the MySQL database
	Database string // name of the MySQL database
	Host     string // host of the MySQL database, e.g. the Cloud SQL proxy address
	Port     string // port of the MySQL database
}

// DatabaseSettings selects and configures the forecast store backend.
type DatabaseSettings struct {
	Type   string         // sqlite or mysql
	SQLite SQLiteSettings // SQLite settings
	MySQL  MySQLSettings  // MySQL settings
}

// OpenWeatherSettings contains settings for the OpenWeatherMap forecast API.
type OpenWeatherSettings struct {
	APIKey            string        // OpenWeather API key
	Endpoint          string        // 5 day / 3 hour forecast endpoint
	Timeout           time.Duration // per-request timeout
	RequestsPerMinute int           // request pacing towards the API
}

// PollSettings controls scheduled ingestion runs.
type PollSettings struct {
	Enabled  bool // true to run ingestion on a schedule when serving
	Interval int  // minutes between ingestion runs
}

// WebServerSettings contains settings for the JSON API server.
type WebServerSettings struct {
	Enabled bool   // true to enable the API server
	Listen  string // listen address, e.g. ":8080"
}

// SentrySettings contains settings for error telemetry.
type SentrySettings struct {
	Enabled bool   // true to report errors to Sentry
	DSN     string // Sentry DSN
}

// LocationSeed is one entry of the location registry as provisioned.
type LocationSeed struct {
	ID      int    `yaml:"id" mapstructure:"id"`
	City    string `yaml:"city" mapstructure:"city"`
	Country string `yaml:"country" mapstructure:"country"`
	Tracked bool   `yaml:"tracked" mapstructure:"tracked"`
}

// Settings contains all configuration options for the wtracker application.
type Settings struct {
	Debug bool // true to enable debug mode

	Main struct {
		Name string    // name of the instance
		Log  LogConfig // file log settings
	}

	Database    DatabaseSettings
	OpenWeather OpenWeatherSettings
	Poll        PollSettings
	WebServer   WebServerSettings
	Sentry      SentrySettings

	Locations []LocationSeed // locations seeded by provisioning
}

// Load reads the configuration file and environment variables into settings.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper initializes viper with default values, environment bindings and
// the optional configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	for _, path := range GetDefaultConfigPaths() {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := bindEnvVars(); err != nil {
		return err
	}

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Defaults and environment are enough to run
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "wtracker"))
	}
	return append(paths, "/etc/wtracker")
}

// MaskedAPIKey returns the API key with all but the last four characters hidden.
func (s *Settings) MaskedAPIKey() string {
	key := s.OpenWeather.APIKey
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
