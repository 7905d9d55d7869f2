package weather

import (
	"fmt"
	"strconv"
)

// IconBaseURL is the location of OpenWeatherMap condition icons.
const IconBaseURL = "http://openweathermap.org/img/w/"

// KelvinToFahrenheit converts a Kelvin temperature to whole degrees
// Fahrenheit, truncating toward zero. 273 is used as the offset. The
// product is rounded before the offset is added so the result does not
// depend on whether the platform fuses multiply-add.
func KelvinToFahrenheit(k float64) int {
	return int(float64(1.8*(k-273)) + 32)
}

// compassBand maps angles in (lower, upper] to a compass point.
type compassBand struct {
	lower, upper float64
	point        string
}

// compassBands covers 22.5 to 337.5 degrees; any other angle is north.
var compassBands = []compassBand{
	{22.5, 67.5, "NE"},
	{67.5, 112.5, "E"},
	{112.5, 157.5, "SE"},
	{157.5, 202.5, "S"},
	{202.5, 247.5, "SW"},
	{247.5, 292.5, "W"},
	{292.5, 337.5, "NW"},
}

// CompassPoint returns the 8-way compass point for a wind direction in
// degrees. Angles are not normalized, so negative angles and angles of 360
// or more are north.
func CompassPoint(deg float64) string {
	for _, band := range compassBands {
		if deg > band.lower && deg <= band.upper {
			return band.point
		}
	}
	return "N"
}

// FormatWind renders wind as "<speed> <compass>" with the speed truncated
// to an integer.
func FormatWind(speed, deg float64) string {
	return strconv.Itoa(int(speed)) + " " + CompassPoint(deg)
}

// IconURL returns the image URL for an OpenWeatherMap icon code.
func IconURL(code string) string {
	return fmt.Sprintf("%s%s.png", IconBaseURL, code)
}
