package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tphakala/wtracker/internal/conf"
	"github.com/tphakala/wtracker/internal/datastore"
	"github.com/tphakala/wtracker/internal/errors"
)

// createTestSettings returns settings pointing at the default endpoint with
// a test key.
func createTestSettings(t *testing.T, opts ...func(*conf.Settings)) *conf.Settings {
	t.Helper()

	settings := &conf.Settings{}
	settings.OpenWeather = conf.OpenWeatherSettings{
		APIKey:            "test-api-key",
		Endpoint:          "https://api.openweathermap.org/data/2.5/forecast",
		Timeout:           5 * time.Second,
		RequestsPerMinute: 6000,
	}
	settings.Poll.Interval = 180

	for _, opt := range opts {
		opt(settings)
	}
	return settings
}

// testLocations is the seed registry used across the tests.
func testLocations() []datastore.Location {
	return []datastore.Location{
		{ID: 2643741, City: "London", Country: "UK", Tracked: true},
		{ID: 2964077, City: "Glenbeigh", Country: "IE", Tracked: true},
		{ID: 5809844, City: "Seattle", Country: "US", Tracked: true},
	}
}

// payloadEntry describes one list element for forecastPayload.
type payloadEntry struct {
	Epoch      int64
	TempKelvin float64
	Humidity   float64
	Clouds     float64
	WindSpeed  float64
	WindDeg    float64
	Conditions string
	Icon       string
}

// forecastPayload renders a provider document for the given city.
func forecastPayload(t *testing.T, cityID int, name, country string, entries []payloadEntry) []byte {
	t.Helper()

	list := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		list = append(list, map[string]any{
			"dt":     e.Epoch,
			"dt_txt": time.Unix(e.Epoch, 0).UTC().Format(TimestampLayout),
			"main": map[string]any{
				"temp":     e.TempKelvin,
				"humidity": e.Humidity,
			},
			"clouds": map[string]any{"all": e.Clouds},
			"wind": map[string]any{
				"speed": e.WindSpeed,
				"deg":   e.WindDeg,
			},
			"weather": []map[string]any{
				{"id": 800, "main": e.Conditions, "description": "test", "icon": e.Icon},
			},
		})
	}

	doc := map[string]any{
		"cod":  "200",
		"cnt":  len(list),
		"list": list,
		"city": map[string]any{
			"id":      cityID,
			"name":    name,
			"country": country,
		},
	}
	body, err := json.Marshal(doc)
	require.NoError(t, err)
	return body
}

// regularEntries returns n entries three hours apart starting at start.
func regularEntries(n int, start int64) []payloadEntry {
	entries := make([]payloadEntry, 0, n)
	for i := range n {
		entries = append(entries, payloadEntry{
			Epoch:      start + int64(i)*3*3600,
			TempKelvin: 280 + float64(i%5),
			Humidity:   float64(50 + i),
			Clouds:     float64(i * 2),
			WindSpeed:  3.7,
			WindDeg:    float64(i * 9),
			Conditions: "Clouds",
			Icon:       "04d",
		})
	}
	return entries
}

// fetchResponse is a canned fetcher answer.
type fetchResponse struct {
	body   []byte
	status int
	err    error
}

// stubFetcher answers by location id and records the requested ids.
type stubFetcher struct {
	mu        sync.Mutex
	responses map[int]fetchResponse
	calls     []int
	// onFetch runs before the response is returned when set
	onFetch func(locationID int)
}

func (f *stubFetcher) FetchForecast(_ context.Context, locationID int) ([]byte, int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, locationID)
	resp, ok := f.responses[locationID]
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(locationID)
	}
	if !ok {
		return []byte(`{"cod":"404","message":"city not found"}`), 404, nil
	}
	return resp.body, resp.status, resp.err
}

func (f *stubFetcher) requested() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

// memStore is an in-memory datastore.Interface.
type memStore struct {
	mu        sync.Mutex
	locations map[int]datastore.Location
	forecasts []datastore.Forecast
	nextID    uint

	// failures injected per operation
	appendErr map[int]error
	scanErr   map[int]error
	listErr   error
}

var _ datastore.Interface = (*memStore)(nil)

func newMemStore(locations ...datastore.Location) *memStore {
	s := &memStore{
		locations: make(map[int]datastore.Location),
		appendErr: make(map[int]error),
		scanErr:   make(map[int]error),
	}
	for _, loc := range locations {
		s.locations[loc.ID] = loc
	}
	return s
}

func (s *memStore) Open() error  { return nil }
func (s *memStore) Close() error { return nil }

func (s *memStore) Reset(locations []datastore.Location) error {
	s.mu.Lock()
	s.locations = make(map[int]datastore.Location)
	s.forecasts = nil
	s.mu.Unlock()
	return s.SaveLocations(locations)
}

func (s *memStore) SaveLocations(locations []datastore.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, loc := range locations {
		s.locations[loc.ID] = loc
	}
	return nil
}

func (s *memStore) ListLocations() ([]datastore.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocations(func(datastore.Location) bool { return true }), nil
}

func (s *memStore) ListTrackedLocations() ([]datastore.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.sortedLocations(func(l datastore.Location) bool { return l.Tracked }), nil
}

func (s *memStore) sortedLocations(keep func(datastore.Location) bool) []datastore.Location {
	out := make([]datastore.Location, 0, len(s.locations))
	for _, loc := range s.locations {
		if keep(loc) {
			out = append(out, loc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) GetLocation(id int) (*datastore.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.locations[id]
	if !ok {
		return nil, errors.New(fmt.Errorf("%w: %d", datastore.ErrLocationNotFound, id)).
			Category(errors.CategoryNotFound).
			Build()
	}
	return &loc, nil
}

func (s *memStore) AppendForecasts(locationID int, rows []datastore.Forecast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.appendErr[locationID]; err != nil {
		return err
	}
	if _, ok := s.locations[locationID]; !ok {
		return errors.New(fmt.Errorf("%w: %d", datastore.ErrLocationNotFound, locationID)).
			Category(errors.CategoryNotFound).
			Build()
	}
	for _, row := range rows {
		s.nextID++
		row.ID = s.nextID
		row.LocationID = locationID
		s.forecasts = append(s.forecasts, row)
	}
	return nil
}

func (s *memStore) ScanForecasts(locationID int) ([]datastore.Forecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scanErr[locationID]; err != nil {
		return nil, err
	}
	var out []datastore.Forecast
	for _, f := range s.forecasts {
		if f.LocationID == locationID {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Epoch != out[j].Epoch {
			return out[i].Epoch < out[j].Epoch
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memStore) CountForecasts(locationID int) (int64, error) {
	rows, err := s.ScanForecasts(locationID)
	return int64(len(rows)), err
}

// newTestService builds a Service over a memStore and stub fetcher.
func newTestService(t *testing.T, store *memStore, fetcher Fetcher, opts ...Option) *Service {
	t.Helper()

	opts = append([]Option{WithFetcher(fetcher)}, opts...)
	svc, err := NewService(createTestSettings(t), store, nil, opts...)
	require.NoError(t, err)
	return svc
}

// fixedClock returns a clock stopped at the given epoch second.
func fixedClock(epoch int64) Clock {
	return ClockFunc(func() time.Time { return time.Unix(epoch, 0) })
}
