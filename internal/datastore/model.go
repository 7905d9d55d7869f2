package datastore

import "github.com/tphakala/wtracker/internal/conf"

// Location is a place whose forecasts are tracked. ID is the forecast
// provider's city id.
type Location struct {
	ID      int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	City    string `gorm:"size:100;not null" json:"city"`
	Country string `gorm:"size:8" json:"country"`
	Tracked bool   `gorm:"index;not null" json:"tracked"`
}

// TableName sets the table name for Location
func (Location) TableName() string {
	return "locations"
}

// Label returns the location as "<city>, <country>".
func (l Location) Label() string {
	if l.Country == "" {
		return l.City
	}
	return l.City + ", " + l.Country
}

// LocationsFromSeeds converts configured seed entries to registry rows.
func LocationsFromSeeds(seeds []conf.LocationSeed) []Location {
	locations := make([]Location, 0, len(seeds))
	for _, s := range seeds {
		locations = append(locations, Location{ID: s.ID, City: s.City, Country: s.Country, Tracked: s.Tracked})
	}
	return locations
}

// Forecast is one 3-hour forecast slot for a location. Rows are append-only;
// repeated ingestion of the same slot stores another row.
type Forecast struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Epoch       int64  `gorm:"index:idx_forecasts_location_epoch,priority:2;not null" json:"epoch"`
	Timestamp   string `gorm:"size:19" json:"timestamp"`
	LocationID  int    `gorm:"index:idx_forecasts_location_epoch,priority:1;not null" json:"location_id"`
	City        string `gorm:"size:120" json:"city"`
	Conditions  string `gorm:"size:50" json:"conditions"`
	Temperature int    `json:"temperature"` // Fahrenheit
	Humidity    int    `json:"humidity"`    // percent
	PercCloudy  int    `json:"perc_cloudy"` // percent
	Wind        string `gorm:"size:20" json:"wind"`
	IconURL     string `gorm:"size:255" json:"icon_url"`
}

// TableName sets the table name for Forecast
func (Forecast) TableName() string {
	return "forecasts"
}
