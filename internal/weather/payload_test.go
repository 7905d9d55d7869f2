package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/wtracker/internal/errors"
)

func TestParseForecastPayload_FieldMapping(t *testing.T) {
	t.Parallel()

	body := forecastPayload(t, 2643741, "London", "GB", []payloadEntry{
		{Epoch: 1500000000, TempKelvin: 300, Humidity: 64, Clouds: 20, WindSpeed: 25.8, WindDeg: 45, Conditions: "Rain", Icon: "10d"},
	})

	payload, err := ParseForecastPayload(body)
	require.NoError(t, err)

	assert.Equal(t, 2643741, payload.CityID)
	assert.Equal(t, "London, GB", payload.Label())
	require.Len(t, payload.Entries, 1)

	rows := payload.Rows(2643741)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, int64(1500000000), row.Epoch)
	assert.Equal(t, "2017-07-14 02:40:00", row.Timestamp)
	assert.Equal(t, 2643741, row.LocationID)
	assert.Equal(t, "London, GB", row.City)
	assert.Equal(t, "Rain", row.Conditions)
	assert.Equal(t, 80, row.Temperature)
	assert.Equal(t, 64, row.Humidity)
	assert.Equal(t, 20, row.PercCloudy)
	assert.Equal(t, "25 NE", row.Wind)
	assert.Equal(t, "http://openweathermap.org/img/w/10d.png", row.IconURL)
}

func TestParseForecastPayload_DataFormatErrors(t *testing.T) {
	t.Parallel()

	const validEntry = `{"dt": 1, "dt_txt": "1970-01-01 00:00:01", "main": {"temp": 280, "humidity": 50}, "clouds": {"all": 10}, "wind": {"speed": 1, "deg": 1}, "weather": [{"main": "Clear", "icon": "01d"}]}`

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"invalid json", `{invalid`, ""},
		{"missing city", `{"list": []}`, "city.id"},
		{"city id wrong type", `{"city": {"id": "x", "name": "a", "country": "b"}, "list": []}`, "city.id"},
		{"missing list", `{"city": {"id": 1, "name": "a", "country": "b"}}`, "list"},
		{
			"missing temperature",
			`{"city": {"id": 1, "name": "a", "country": "b"}, "list": [` + validEntry + `, {"dt": 2, "dt_txt": "1970-01-01 00:00:02", "main": {"humidity": 50}, "clouds": {"all": 10}, "wind": {"speed": 1, "deg": 1}, "weather": [{"main": "Clear", "icon": "01d"}]}]}`,
			"main.temp",
		},
		{
			"humidity out of range",
			`{"city": {"id": 1, "name": "a", "country": "b"}, "list": [{"dt": 1, "dt_txt": "1970-01-01 00:00:01", "main": {"temp": 280, "humidity": 120}, "clouds": {"all": 10}, "wind": {"speed": 1, "deg": 1}, "weather": [{"main": "Clear", "icon": "01d"}]}]}`,
			"main.humidity",
		},
		{
			"negative clouds",
			`{"city": {"id": 1, "name": "a", "country": "b"}, "list": [{"dt": 1, "dt_txt": "1970-01-01 00:00:01", "main": {"temp": 280, "humidity": 10}, "clouds": {"all": -1}, "wind": {"speed": 1, "deg": 1}, "weather": [{"main": "Clear", "icon": "01d"}]}]}`,
			"clouds.all",
		},
		{
			"empty weather array",
			`{"city": {"id": 1, "name": "a", "country": "b"}, "list": [{"dt": 1, "dt_txt": "1970-01-01 00:00:01", "main": {"temp": 280, "humidity": 10}, "clouds": {"all": 1}, "wind": {"speed": 1, "deg": 1}, "weather": []}]}`,
			"weather",
		},
		{
			"missing dt_txt",
			`{"city": {"id": 1, "name": "a", "country": "b"}, "list": [{"dt": 1700000000, "main": {"temp": 280, "humidity": 80}, "clouds": {"all": 90}, "wind": {"speed": 5, "deg": 200}, "weather": [{"main": "Drizzle", "icon": "09n"}]}]}`,
			"dt_txt",
		},
		{
			"dt_txt wrong type",
			`{"city": {"id": 1, "name": "a", "country": "b"}, "list": [{"dt": 1, "dt_txt": 1, "main": {"temp": 280, "humidity": 10}, "clouds": {"all": 1}, "wind": {"speed": 1, "deg": 1}, "weather": [{"main": "Clear", "icon": "01d"}]}]}`,
			"dt_txt",
		},
		{
			"wind speed wrong type",
			`{"city": {"id": 1, "name": "a", "country": "b"}, "list": [{"dt": 1, "dt_txt": "1970-01-01 00:00:01", "main": {"temp": 280, "humidity": 10}, "clouds": {"all": 1}, "wind": {"speed": "fast", "deg": 1}, "weather": [{"main": "Clear", "icon": "01d"}]}]}`,
			"wind.speed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			payload, err := ParseForecastPayload([]byte(tt.body))
			require.Error(t, err)
			assert.Nil(t, payload)
			assert.ErrorIs(t, err, ErrDataFormat)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
			assert.Equal(t, tt.field, formatFieldOrEmpty(err))
		})
	}
}

func TestParseForecastPayload_ReportsEntryIndex(t *testing.T) {
	t.Parallel()

	body := `{"city": {"id": 1, "name": "a", "country": "b"}, "list": [` +
		`{"dt": 1, "dt_txt": "1970-01-01 00:00:01", "main": {"temp": 280, "humidity": 10}, "clouds": {"all": 1}, "wind": {"speed": 1, "deg": 1}, "weather": [{"main": "Clear", "icon": "01d"}]},` +
		`{"dt": 2, "dt_txt": "1970-01-01 00:00:02", "main": {"temp": 280, "humidity": 10}, "clouds": {"all": 1}, "wind": {"speed": 1, "deg": 1}, "weather": [{"main": "Clear"}]}]}`

	_, err := ParseForecastPayload([]byte(body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list[1].weather[0].icon")

	var enhanced *errors.EnhancedError
	require.ErrorAs(t, err, &enhanced)
	assert.Equal(t, 1, enhanced.GetContext()["entry"])
}

// formatFieldOrEmpty returns the field context of a data format error.
func formatFieldOrEmpty(err error) string {
	var enhanced *errors.EnhancedError
	if !errors.As(err, &enhanced) {
		return ""
	}
	field, _ := enhanced.GetContext()["field"].(string)
	return field
}
