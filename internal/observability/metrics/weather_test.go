package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) (*WeatherMetrics, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	m, err := NewWeatherMetrics(registry)
	require.NoError(t, err)
	return m, registry
}

// findFamily returns the gathered metric family with the given name.
func findFamily(t *testing.T, registry *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric family %s not gathered", name)
	return nil
}

func TestNewWeatherMetricsDuplicateRegistration(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewWeatherMetrics(registry)
	require.NoError(t, err)

	_, err = NewWeatherMetrics(registry)
	assert.Error(t, err, "registering twice on one registry must fail")
}

func TestRecordWeatherFetch(t *testing.T) {
	t.Parallel()
	m, registry := newTestMetrics(t)

	m.RecordWeatherFetch(StatusSuccess, 0.25)
	m.RecordWeatherFetch(StatusSuccess, 0.5)
	m.RecordWeatherFetch(StatusError, 1)

	assert.InDelta(t, 2, testutil.ToFloat64(m.weatherFetchesTotal.WithLabelValues(StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.weatherFetchesTotal.WithLabelValues(StatusError)), 0)

	mf := findFamily(t, registry, "weather_fetch_duration_seconds")
	assert.Equal(t, dto.MetricType_HISTOGRAM, mf.GetType())

	var samples uint64
	for _, metric := range mf.GetMetric() {
		samples += metric.GetHistogram().GetSampleCount()
	}
	assert.EqualValues(t, 3, samples)
}

func TestRecordWeatherLocationIngest(t *testing.T) {
	t.Parallel()
	m, _ := newTestMetrics(t)

	m.RecordWeatherLocationIngest(StatusSuccess, 40)
	m.RecordWeatherLocationIngest("fetch", 0)

	assert.InDelta(t, 40, testutil.ToFloat64(m.weatherForecastRowsTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.weatherLocationsTotal.WithLabelValues("fetch")), 0)
}

func TestRecordWeatherIngestRun(t *testing.T) {
	t.Parallel()
	m, _ := newTestMetrics(t)

	m.RecordWeatherIngestRun(StatusSuccess, 3.5, 1700000000)
	m.RecordWeatherIngestRun(StatusPartial, 2, 1700003600)

	assert.InDelta(t, 1700000000, testutil.ToFloat64(m.weatherLastIngestTimestamp), 0,
		"partial runs do not advance the last success timestamp")
	assert.InDelta(t, 1, testutil.ToFloat64(m.weatherIngestRunsTotal.WithLabelValues(StatusPartial)), 0)
}

func TestStoredForecastsAndSelections(t *testing.T) {
	t.Parallel()
	m, registry := newTestMetrics(t)

	m.UpdateStoredForecasts(2643741, 80)
	m.RecordWeatherSelection(StatusUpcoming)
	m.RecordWeatherSelection(StatusFallback)
	m.RecordWeatherProviderRequest("GET", 200)
	m.RecordWeatherDataFormatError("list[3].main.temp")
	m.RecordWeatherDbOperation(OpAppendForecasts, StatusSuccess, 0.004)

	mf := findFamily(t, registry, "weather_stored_forecasts")
	require.Len(t, mf.GetMetric(), 1)
	metric := mf.GetMetric()[0]
	assert.InDelta(t, 80, metric.GetGauge().GetValue(), 0)
	require.Len(t, metric.GetLabel(), 1)
	assert.Equal(t, "2643741", metric.GetLabel()[0].GetValue())

	assert.Equal(t, 2, testutil.CollectAndCount(m.weatherSelectionsTotal))
	assert.InDelta(t, 1, testutil.ToFloat64(m.weatherProviderRequestsTotal.WithLabelValues("GET", "200")), 0)
}
