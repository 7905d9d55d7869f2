package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/wtracker/internal/api"
	"github.com/tphakala/wtracker/internal/conf"
	"github.com/tphakala/wtracker/internal/logging"
	"github.com/tphakala/wtracker/internal/runtime"
)

// Command creates a new cobra.Command that runs the API server and the
// scheduled ingestion until interrupted.
func Command(settings *conf.Settings, build runtime.BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the forecast API and poll OpenWeather on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !settings.WebServer.Enabled && !settings.Poll.Enabled {
				return fmt.Errorf("nothing to serve: both webserver and poll are disabled")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, settings, build)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags overrides server and polling settings for this run.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	flags := cmd.Flags()
	flags.StringVar(&settings.WebServer.Listen, "listen", settings.WebServer.Listen, "Listen address of the API server")
	flags.BoolVar(&settings.Poll.Enabled, "poll", settings.Poll.Enabled, "Run ingestion on a schedule")
	flags.IntVar(&settings.Poll.Interval, "interval", settings.Poll.Interval, "Minutes between ingestion runs")

	bindings := map[string]string{
		"webserver.listen": "listen",
		"poll.enabled":     "poll",
		"poll.interval":    "interval",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}

func run(ctx context.Context, settings *conf.Settings, build runtime.BuildInfo) error {
	log := logging.ForService("serve")

	rt, err := runtime.New(settings, build)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Warn("failed to close runtime", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	if settings.WebServer.Enabled {
		server, err := api.New(settings, rt.Store, rt.Weather, api.WithMetrics(rt.Metrics))
		if err != nil {
			return err
		}
		g.Go(func() error {
			return server.Run(gctx)
		})
	}

	if settings.Poll.Enabled {
		g.Go(func() error {
			rt.Weather.StartPolling(gctx)
			return nil
		})
	}

	log.Info("wtracker started", "version", build.String(),
		"webserver", settings.WebServer.Enabled, "poll", settings.Poll.Enabled)

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("wtracker stopped")
	return nil
}
