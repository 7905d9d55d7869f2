package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tphakala/wtracker/internal/conf"
	"github.com/tphakala/wtracker/internal/errors"
	"github.com/tphakala/wtracker/internal/httpclient"
	"github.com/tphakala/wtracker/internal/logging"
	"github.com/tphakala/wtracker/internal/observability/metrics"
)

const (
	openWeatherProviderName = "openweather"
	openWeatherKeyParam     = "appid"

	// maxPayloadBytes bounds the forecast document read from the provider
	maxPayloadBytes = 4 << 20
)

// OpenWeatherFetcher fetches 5 day / 3 hour forecasts by city id.
type OpenWeatherFetcher struct {
	client   *httpclient.Client
	endpoint string
	apiKey   string
}

// NewOpenWeatherFetcher creates a fetcher paced by the configured request
// rate. Provider responses are counted on weatherMetrics when it is non-nil.
func NewOpenWeatherFetcher(settings *conf.OpenWeatherSettings, weatherMetrics *metrics.WeatherMetrics) *OpenWeatherFetcher {
	return newOpenWeatherFetcher(settings, weatherMetrics, nil)
}

func newOpenWeatherFetcher(settings *conf.OpenWeatherSettings, weatherMetrics *metrics.WeatherMetrics, transport http.RoundTripper) *OpenWeatherFetcher {
	client := httpclient.New(&httpclient.Config{
		DefaultTimeout:    settings.Timeout,
		RequestsPerMinute: settings.RequestsPerMinute,
		Transport:         transport,
	})

	client.SetBeforeRequestHook(func(req *http.Request) {
		req.Header.Set("Accept", "application/json")
	})

	logger := logging.ForService(componentName).With("provider", openWeatherProviderName)
	client.SetAfterResponseHook(func(req *http.Request, resp *http.Response, err error, elapsed time.Duration) {
		masked := maskAPIKey(req.URL.String(), openWeatherKeyParam)
		if err != nil {
			logger.Debug("forecast request failed", "url", masked, "error", err, "duration_ms", elapsed.Milliseconds())
			return
		}
		logger.Debug("forecast request completed", "url", masked, "status", resp.StatusCode, "duration_ms", elapsed.Milliseconds())
		if weatherMetrics != nil {
			weatherMetrics.RecordWeatherProviderRequest(req.Method, resp.StatusCode)
		}
	})

	return &OpenWeatherFetcher{
		client:   client,
		endpoint: settings.Endpoint,
		apiKey:   settings.APIKey,
	}
}

// FetchForecast implements Fetcher. Non-2xx responses are returned with
// their body and status and no error.
func (f *OpenWeatherFetcher) FetchForecast(ctx context.Context, locationID int) ([]byte, int, error) {
	if f.apiKey == "" {
		return nil, 0, errors.Newf("OpenWeather API key not configured").
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Context("operation", "fetch_forecast").
			Context("provider", openWeatherProviderName).
			Build()
	}

	requestURL, err := f.forecastURL(locationID)
	if err != nil {
		return nil, 0, errors.New(err).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Context("operation", "build_forecast_url").
			Context("provider", openWeatherProviderName).
			Build()
	}

	resp, err := f.client.Get(ctx, requestURL)
	if err != nil {
		return nil, 0, errors.New(err).
			Component(componentName).
			Category(errors.CategoryNetwork).
			Context("operation", "fetch_forecast").
			Context("provider", openWeatherProviderName).
			Location(locationID).
			Build()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, resp.StatusCode, errors.New(fmt.Errorf("error reading response body: %w", err)).
			Component(componentName).
			Category(errors.CategoryNetwork).
			Context("operation", "read_forecast").
			Context("provider", openWeatherProviderName).
			Location(locationID).
			Build()
	}

	return body, resp.StatusCode, nil
}

// forecastURL adds the city id and API key to the configured endpoint.
func (f *OpenWeatherFetcher) forecastURL(locationID int) (string, error) {
	u, err := url.Parse(f.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid forecast endpoint: %w", err)
	}
	q := u.Query()
	q.Set("id", strconv.Itoa(locationID))
	q.Set(openWeatherKeyParam, f.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Close releases idle provider connections.
func (f *OpenWeatherFetcher) Close() {
	f.client.Close()
}

// maskAPIKey replaces the value of keyParam in a URL so it can be logged.
func maskAPIKey(rawURL, keyParam string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "[unparseable url]"
	}
	q := u.Query()
	if !q.Has(keyParam) {
		return rawURL
	}
	q.Set(keyParam, "***MASKED***")
	u.RawQuery = q.Encode()
	return u.String()
}
