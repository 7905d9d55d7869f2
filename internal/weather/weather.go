// Package weather ingests OpenWeatherMap 5 day / 3 hour forecasts for the
// tracked locations and selects the current forecast per location.
package weather

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tphakala/wtracker/internal/conf"
	"github.com/tphakala/wtracker/internal/datastore"
	"github.com/tphakala/wtracker/internal/errors"
	"github.com/tphakala/wtracker/internal/logging"
	"github.com/tphakala/wtracker/internal/observability/metrics"
)

const componentName = "weather"

// Sentinel errors for the failure taxonomy. Errors returned by the service
// wrap one of these and carry a category from the errors package.
var (
	// ErrFetchFailed marks a transport error or non-2xx provider response.
	ErrFetchFailed = errors.NewStd("forecast fetch failed")
	// ErrDataFormat marks a payload that is missing fields or has wrong types.
	ErrDataFormat = errors.NewStd("malformed forecast payload")
	// ErrNoForecasts marks a location without stored forecasts.
	ErrNoForecasts = errors.NewStd("no forecasts stored")
	// ErrIngestInProgress is returned when an ingestion run is already active.
	ErrIngestInProgress = errors.NewStd("ingestion already in progress")
)

// Fetcher retrieves the raw forecast payload for a provider city id. A
// transport failure is returned as an error; any HTTP response is returned
// with its status code.
type Fetcher interface {
	FetchForecast(ctx context.Context, locationID int) (body []byte, status int, err error)
}

// Service handles forecast ingestion and selection
type Service struct {
	fetcher  Fetcher
	db       datastore.Interface
	settings *conf.Settings
	metrics  *metrics.WeatherMetrics
	clock    Clock
	logger   *slog.Logger

	// held for the duration of IngestAll
	ingestMu sync.Mutex
}

// Option customizes a Service.
type Option func(*Service)

// WithFetcher replaces the OpenWeather fetcher built from settings.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithClock replaces the system clock used for selection.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// NewService creates a new weather service. Unless WithFetcher is given,
// forecasts are fetched from the OpenWeather endpoint in settings.
func NewService(settings *conf.Settings, db datastore.Interface, weatherMetrics *metrics.WeatherMetrics, opts ...Option) (*Service, error) {
	if settings == nil || db == nil {
		return nil, errors.New(fmt.Errorf("weather service requires settings and a datastore")).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Context("operation", "new_service").
			Build()
	}

	s := &Service{
		db:       db,
		settings: settings,
		metrics:  weatherMetrics,
		clock:    SystemClock{},
		logger:   logging.ForService(componentName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fetcher == nil {
		s.fetcher = NewOpenWeatherFetcher(&settings.OpenWeather, weatherMetrics)
		s.logger.Debug("using OpenWeather fetcher",
			"endpoint", settings.OpenWeather.Endpoint,
			"api_key", settings.MaskedAPIKey())
	}

	return s, nil
}

// Close releases resources held by the fetcher.
func (s *Service) Close() {
	if c, ok := s.fetcher.(interface{ Close() }); ok {
		c.Close()
	}
}
