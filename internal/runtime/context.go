// Package runtime assembles the dependencies shared by the commands: the
// forecast store, the metrics registry and the weather service.
package runtime

import (
	"fmt"

	"github.com/tphakala/wtracker/internal/conf"
	"github.com/tphakala/wtracker/internal/datastore"
	"github.com/tphakala/wtracker/internal/errors"
	"github.com/tphakala/wtracker/internal/observability"
	"github.com/tphakala/wtracker/internal/weather"
)

// BuildInfo holds build-time metadata injected at link time.
type BuildInfo struct {
	Version   string
	BuildDate string
}

// String returns "<version> (<build date>)".
func (b BuildInfo) String() string {
	if b.BuildDate == "" {
		return b.Version
	}
	return fmt.Sprintf("%s (%s)", b.Version, b.BuildDate)
}

// Context holds the opened dependencies of a command run.
type Context struct {
	Build    BuildInfo
	Settings *conf.Settings
	Store    datastore.Interface
	Metrics  *observability.Metrics
	Weather  *weather.Service
}

// Option customizes New.
type Option func(*options)

type options struct {
	store        datastore.Interface
	weatherOpts  []weather.Option
	skipServices bool
}

// WithStore uses an already constructed store instead of the configured one.
// The store is opened by New.
func WithStore(store datastore.Interface) Option {
	return func(o *options) { o.store = store }
}

// WithWeatherOptions passes options to the weather service.
func WithWeatherOptions(opts ...weather.Option) Option {
	return func(o *options) { o.weatherOpts = append(o.weatherOpts, opts...) }
}

// StoreOnly opens only the forecast store.
func StoreOnly() Option {
	return func(o *options) { o.skipServices = true }
}

// New opens the configured store and, unless StoreOnly is given, creates
// the metrics registry and the weather service.
func New(settings *conf.Settings, build BuildInfo, opts ...Option) (*Context, error) {
	if settings == nil {
		return nil, errors.Newf("settings are required").
			Component("runtime").
			Category(errors.CategoryConfiguration).
			Build()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		store = datastore.New(settings)
	}
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("failed to open forecast store: %w", err)
	}

	ctx := &Context{
		Build:    build,
		Settings: settings,
		Store:    store,
	}
	if o.skipServices {
		return ctx, nil
	}

	m, err := observability.NewMetrics()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	ctx.Metrics = m

	svc, err := weather.NewService(settings, store, m.Weather, o.weatherOpts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	ctx.Weather = svc

	return ctx, nil
}

// Close releases the weather service and the store connection.
func (c *Context) Close() error {
	if c == nil {
		return nil
	}
	if c.Weather != nil {
		c.Weather.Close()
	}
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}
