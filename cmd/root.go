package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/wtracker/cmd/forecast"
	"github.com/tphakala/wtracker/cmd/ingest"
	"github.com/tphakala/wtracker/cmd/provision"
	"github.com/tphakala/wtracker/cmd/serve"
	"github.com/tphakala/wtracker/internal/conf"
	"github.com/tphakala/wtracker/internal/errors"
	"github.com/tphakala/wtracker/internal/logging"
	"github.com/tphakala/wtracker/internal/runtime"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings, build runtime.BuildInfo) *cobra.Command {
	var cleanup []func()

	rootCmd := &cobra.Command{
		Use:           "wtracker",
		Short:         "Weather forecast tracker",
		Long:          "Fetches 5 day / 3 hour forecasts for tracked locations from OpenWeatherMap, stores them and reports the current forecast per location.",
		Version:       build.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		logging.Warn("failed to bind command line flags", "error", err)
	}

	rootCmd.AddCommand(
		provision.Command(settings, build),
		ingest.Command(settings, build),
		forecast.Command(settings, build),
		serve.Command(settings, build),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// flags may have changed the loaded settings
		if err := conf.ValidateSettings(settings); err != nil {
			return err
		}

		closeLog, err := logging.Init(settings)
		if err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		cleanup = append(cleanup, func() { _ = closeLog() })

		if settings.Sentry.Enabled {
			flush, err := errors.InitSentry(settings.Sentry.DSN, build.Version)
			if err != nil {
				logging.Warn("error telemetry disabled", "error", err)
			} else {
				cleanup = append(cleanup, flush)
			}
		}

		logging.Debug("starting command", "command", cmd.Name(), "version", build.Version, "database", settings.Database.Type)
		return nil
	}

	// runs after failed commands too, unlike PersistentPostRun
	cobra.OnFinalize(func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
		cleanup = nil
	})

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
// Defaults are the loaded settings so flags only override what is set.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	flags.StringVar(&settings.Database.Type, "db-type", settings.Database.Type, "Forecast store backend: sqlite or mysql")
	flags.StringVar(&settings.Database.SQLite.Path, "sqlite-path", settings.Database.SQLite.Path, "Path to the SQLite database file")
	flags.StringVar(&settings.Database.MySQL.Host, "mysql-host", settings.Database.MySQL.Host, "MySQL host")
	flags.StringVar(&settings.Database.MySQL.Database, "mysql-database", settings.Database.MySQL.Database, "MySQL database name")

	bindings := map[string]string{
		"debug":                   "debug",
		"database.type":           "db-type",
		"database.sqlite.path":    "sqlite-path",
		"database.mysql.host":     "mysql-host",
		"database.mysql.database": "mysql-database",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}
