package conf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// locationFile is the layout of a location seed file.
type locationFile struct {
	Locations []LocationSeed `yaml:"locations"`
}

// DefaultLocations returns the locations seeded when no seed file is given.
func DefaultLocations() []LocationSeed {
	return []LocationSeed{
		{ID: 5809844, City: "Seattle", Country: "US", Tracked: true},
		{ID: 2643741, City: "London", Country: "UK", Tracked: true},
		{ID: 2965140, City: "Cork", Country: "IE", Tracked: true},
		{ID: 2964077, City: "Glenbeigh", Country: "IE", Tracked: true},
		{ID: 3128832, City: "Madrid", Country: "ES", Tracked: true},
		{ID: 6454924, City: "Nice", Country: "FR", Tracked: true},
	}
}

// LoadLocations reads a YAML seed file. Entries without an explicit
// tracked flag are tracked.
func LoadLocations(path string) ([]LocationSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading location file: %w", err)
	}

	return ParseLocations(data)
}

// ParseLocations decodes a YAML location seed document.
func ParseLocations(data []byte) ([]LocationSeed, error) {
	var raw struct {
		Locations []struct {
			ID      int    `yaml:"id"`
			City    string `yaml:"city"`
			Country string `yaml:"country"`
			Tracked *bool  `yaml:"tracked"`
		} `yaml:"locations"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing location file: %w", err)
	}

	seeds := make([]LocationSeed, 0, len(raw.Locations))
	for _, l := range raw.Locations {
		tracked := true
		if l.Tracked != nil {
			tracked = *l.Tracked
		}
		seeds = append(seeds, LocationSeed{ID: l.ID, City: l.City, Country: l.Country, Tracked: tracked})
	}

	if err := ValidateLocations(seeds); err != nil {
		return nil, err
	}
	return seeds, nil
}

// MarshalLocations encodes seeds in the seed file layout.
func MarshalLocations(seeds []LocationSeed) ([]byte, error) {
	return yaml.Marshal(locationFile{Locations: seeds})
}
