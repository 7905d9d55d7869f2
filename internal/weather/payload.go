package weather

import (
	"fmt"

	"github.com/antonholmquist/jason"

	"github.com/tphakala/wtracker/internal/datastore"
	"github.com/tphakala/wtracker/internal/errors"
)

// TimestampLayout is the layout of the provider's dt_txt field.
const TimestampLayout = "2006-01-02 15:04:05"

// ForecastPayload is a parsed 5 day / 3 hour forecast document.
type ForecastPayload struct {
	CityID   int
	CityName string
	Country  string
	Entries  []ForecastEntry
}

// ForecastEntry is one 3-hour slot as reported by the provider, before
// unit conversion.
type ForecastEntry struct {
	Epoch      int64
	Timestamp  string
	TempKelvin float64
	Humidity   int
	Clouds     int
	WindSpeed  float64
	WindDeg    float64
	Conditions string
	IconCode   string
}

// ParseForecastPayload extracts the city and every list entry from a raw
// forecast document. A missing field, a field of the wrong type, an empty
// weather array or a percentage outside [0,100] fails the whole payload
// with an error wrapping ErrDataFormat.
func ParseForecastPayload(body []byte) (*ForecastPayload, error) {
	root, err := jason.NewObjectFromBytes(body)
	if err != nil {
		return nil, dataFormatError(-1, "", err)
	}

	payload := &ForecastPayload{}

	cityID, err := root.GetInt64("city", "id")
	if err != nil {
		return nil, dataFormatError(-1, "city.id", err)
	}
	payload.CityID = int(cityID)

	if payload.CityName, err = root.GetString("city", "name"); err != nil {
		return nil, dataFormatError(-1, "city.name", err)
	}
	if payload.Country, err = root.GetString("city", "country"); err != nil {
		return nil, dataFormatError(-1, "city.country", err)
	}

	list, err := root.GetObjectArray("list")
	if err != nil {
		return nil, dataFormatError(-1, "list", err)
	}

	payload.Entries = make([]ForecastEntry, 0, len(list))
	for i, item := range list {
		entry, err := parseEntry(i, item)
		if err != nil {
			return nil, err
		}
		payload.Entries = append(payload.Entries, entry)
	}

	return payload, nil
}

// parseEntry reads a single list element.
func parseEntry(i int, item *jason.Object) (ForecastEntry, error) {
	var entry ForecastEntry
	var err error

	if entry.Epoch, err = item.GetInt64("dt"); err != nil {
		return entry, dataFormatError(i, "dt", err)
	}

	if entry.Timestamp, err = item.GetString("dt_txt"); err != nil {
		return entry, dataFormatError(i, "dt_txt", err)
	}

	if entry.TempKelvin, err = item.GetFloat64("main", "temp"); err != nil {
		return entry, dataFormatError(i, "main.temp", err)
	}
	if entry.Humidity, err = percentage(item, "main", "humidity"); err != nil {
		return entry, dataFormatError(i, "main.humidity", err)
	}
	if entry.Clouds, err = percentage(item, "clouds", "all"); err != nil {
		return entry, dataFormatError(i, "clouds.all", err)
	}
	if entry.WindSpeed, err = item.GetFloat64("wind", "speed"); err != nil {
		return entry, dataFormatError(i, "wind.speed", err)
	}
	if entry.WindDeg, err = item.GetFloat64("wind", "deg"); err != nil {
		return entry, dataFormatError(i, "wind.deg", err)
	}

	conditions, err := item.GetObjectArray("weather")
	if err != nil {
		return entry, dataFormatError(i, "weather", err)
	}
	if len(conditions) == 0 {
		return entry, dataFormatError(i, "weather", fmt.Errorf("empty array"))
	}
	if entry.Conditions, err = conditions[0].GetString("main"); err != nil {
		return entry, dataFormatError(i, "weather[0].main", err)
	}
	if entry.IconCode, err = conditions[0].GetString("icon"); err != nil {
		return entry, dataFormatError(i, "weather[0].icon", err)
	}

	return entry, nil
}

// percentage reads a numeric field that must lie in [0,100].
func percentage(item *jason.Object, keys ...string) (int, error) {
	value, err := item.GetFloat64(keys...)
	if err != nil {
		return 0, err
	}
	if value < 0 || value > 100 {
		return 0, fmt.Errorf("value %v outside [0,100]", value)
	}
	return int(value), nil
}

// Label returns the city as "<name>, <country>".
func (p *ForecastPayload) Label() string {
	return p.CityName + ", " + p.Country
}

// Rows normalizes the payload into forecast rows for a location.
func (p *ForecastPayload) Rows(locationID int) []datastore.Forecast {
	city := p.Label()
	rows := make([]datastore.Forecast, 0, len(p.Entries))
	for _, e := range p.Entries {
		rows = append(rows, datastore.Forecast{
			Epoch:       e.Epoch,
			Timestamp:   e.Timestamp,
			LocationID:  locationID,
			City:        city,
			Conditions:  e.Conditions,
			Temperature: KelvinToFahrenheit(e.TempKelvin),
			Humidity:    e.Humidity,
			PercCloudy:  e.Clouds,
			Wind:        FormatWind(e.WindSpeed, e.WindDeg),
			IconURL:     IconURL(e.IconCode),
		})
	}
	return rows
}

// dataFormatError wraps ErrDataFormat with the offending entry and field.
// index is -1 for fields outside the list.
func dataFormatError(index int, field string, cause error) error {
	path := field
	if index >= 0 {
		path = fmt.Sprintf("list[%d].%s", index, field)
	}

	var err error
	if path == "" {
		err = fmt.Errorf("%w: %w", ErrDataFormat, cause)
	} else {
		err = fmt.Errorf("%w: %s: %w", ErrDataFormat, path, cause)
	}

	builder := errors.New(err).
		Component(componentName).
		Category(errors.CategoryValidation).
		Context("operation", "parse_forecast").
		Context("field", field)
	if index >= 0 {
		builder = builder.Context("entry", index)
	}
	return builder.Build()
}
