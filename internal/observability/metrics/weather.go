// Package metrics provides forecast ingestion metrics for observability
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// WeatherMetrics contains Prometheus metrics for forecast ingestion and selection
type WeatherMetrics struct {
	registry *prometheus.Registry

	// Provider fetch metrics
	weatherFetchesTotal          *prometheus.CounterVec
	weatherFetchDuration         *prometheus.HistogramVec
	weatherProviderRequestsTotal *prometheus.CounterVec

	// Payload validation metrics
	weatherDataFormatErrorsTotal *prometheus.CounterVec

	// Database operations metrics
	weatherDbOperationsTotal *prometheus.CounterVec
	weatherDbDuration        *prometheus.HistogramVec

	// Ingestion run metrics
	weatherIngestRunsTotal      *prometheus.CounterVec
	weatherIngestRunDuration    prometheus.Histogram
	weatherLocationsTotal       *prometheus.CounterVec
	weatherForecastRowsTotal    prometheus.Counter
	weatherLastIngestTimestamp  prometheus.Gauge
	weatherStoredForecastsGauge *prometheus.GaugeVec

	// Selection metrics
	weatherSelectionsTotal *prometheus.CounterVec
}

// NewWeatherMetrics creates and registers new weather metrics
func NewWeatherMetrics(registry *prometheus.Registry) (*WeatherMetrics, error) {
	m := &WeatherMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *WeatherMetrics) initMetrics() {
	m.weatherFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_fetches_total",
			Help: "Total number of forecast fetch operations",
		},
		[]string{"status"}, // status: success, error
	)

	m.weatherFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "weather_fetch_duration_seconds",
			Help: "Time taken to fetch a forecast payload",
			// 100ms to ~50s
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10),
		},
		[]string{"status"},
	)

	m.weatherProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_provider_requests_total",
			Help: "Total number of HTTP requests to the forecast provider",
		},
		[]string{"method", "status_code"},
	)

	m.weatherDataFormatErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_data_format_errors_total",
			Help: "Total number of forecast payloads rejected as malformed",
		},
		[]string{"field"},
	)

	m.weatherDbOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_db_operations_total",
			Help: "Total number of forecast store operations",
		},
		[]string{"operation", "status"},
	)

	m.weatherDbDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "weather_db_duration_seconds",
			Help: "Time taken for forecast store operations",
			// 1ms to ~500ms
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
		},
		[]string{"operation"},
	)

	m.weatherIngestRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_ingest_runs_total",
			Help: "Total number of ingestion runs over all tracked locations",
		},
		[]string{"status"}, // status: success, partial, error
	)

	m.weatherIngestRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "weather_ingest_run_duration_seconds",
		Help:    "Time taken by a full ingestion run",
		Buckets: prometheus.ExponentialBuckets(BucketStart1s, BucketFactor2, BucketCount12),
	})

	m.weatherLocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_ingest_locations_total",
			Help: "Total number of location ingestions by outcome",
		},
		[]string{"result"}, // result: success, fetch, data_format, database
	)

	m.weatherForecastRowsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weather_forecast_rows_ingested_total",
		Help: "Total number of forecast rows written",
	})

	m.weatherLastIngestTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "weather_last_ingest_timestamp_seconds",
		Help: "Unix time of the last ingestion run that completed without failures",
	})

	m.weatherStoredForecastsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "weather_stored_forecasts",
			Help: "Number of stored forecast rows per location after the last ingestion",
		},
		[]string{"location_id"},
	)

	m.weatherSelectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_selections_total",
			Help: "Total number of current forecast selections by outcome",
		},
		[]string{"result"}, // result: upcoming, fallback, empty
	)
}

// Describe implements the Collector interface
func (m *WeatherMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *WeatherMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

func (m *WeatherMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.weatherFetchesTotal,
		m.weatherFetchDuration,
		m.weatherProviderRequestsTotal,
		m.weatherDataFormatErrorsTotal,
		m.weatherDbOperationsTotal,
		m.weatherDbDuration,
		m.weatherIngestRunsTotal,
		m.weatherIngestRunDuration,
		m.weatherLocationsTotal,
		m.weatherForecastRowsTotal,
		m.weatherLastIngestTimestamp,
		m.weatherStoredForecastsGauge,
		m.weatherSelectionsTotal,
	}
}

// RecordWeatherFetch records a forecast fetch and its duration in seconds
func (m *WeatherMetrics) RecordWeatherFetch(status string, duration float64) {
	m.weatherFetchesTotal.WithLabelValues(status).Inc()
	m.weatherFetchDuration.WithLabelValues(status).Observe(duration)
}

// RecordWeatherProviderRequest records an HTTP request to the provider
func (m *WeatherMetrics) RecordWeatherProviderRequest(method string, statusCode int) {
	m.weatherProviderRequestsTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

// RecordWeatherDataFormatError records a rejected payload by offending field
func (m *WeatherMetrics) RecordWeatherDataFormatError(field string) {
	m.weatherDataFormatErrorsTotal.WithLabelValues(field).Inc()
}

// RecordWeatherDbOperation records a forecast store operation and its duration in seconds
func (m *WeatherMetrics) RecordWeatherDbOperation(operation, status string, duration float64) {
	m.weatherDbOperationsTotal.WithLabelValues(operation, status).Inc()
	m.weatherDbDuration.WithLabelValues(operation).Observe(duration)
}

// RecordWeatherLocationIngest records the outcome of one location ingestion
func (m *WeatherMetrics) RecordWeatherLocationIngest(result string, rows int) {
	m.weatherLocationsTotal.WithLabelValues(result).Inc()
	if rows > 0 {
		m.weatherForecastRowsTotal.Add(float64(rows))
	}
}

// UpdateStoredForecasts sets the stored row count for a location
func (m *WeatherMetrics) UpdateStoredForecasts(locationID int, total int64) {
	m.weatherStoredForecastsGauge.WithLabelValues(strconv.Itoa(locationID)).Set(float64(total))
}

// RecordWeatherIngestRun records a completed ingestion run. finishedUnix is
// only published for runs without failures.
func (m *WeatherMetrics) RecordWeatherIngestRun(status string, duration float64, finishedUnix int64) {
	m.weatherIngestRunsTotal.WithLabelValues(status).Inc()
	m.weatherIngestRunDuration.Observe(duration)
	if status == StatusSuccess {
		m.weatherLastIngestTimestamp.Set(float64(finishedUnix))
	}
}

// RecordWeatherSelection records the outcome of a current forecast selection
func (m *WeatherMetrics) RecordWeatherSelection(result string) {
	m.weatherSelectionsTotal.WithLabelValues(result).Inc()
}
