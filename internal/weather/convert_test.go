package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKelvinToFahrenheit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		kelvin float64
		want   int
	}{
		{"freezing offset", 273, 32},
		{"warm day", 300, 80},
		{"fraction truncates", 283.9, 51},
		{"below offset truncates toward zero", 255.5, 0},
		{"well below zero", 240, -27},
		{"product rounded before offset", 258, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, KelvinToFahrenheit(tt.kelvin))
		})
	}
}

func TestCompassPoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		deg  float64
		want string
	}{
		{0, "N"},
		{22.5, "N"},
		{22.6, "NE"},
		{45, "NE"},
		{67.5, "NE"},
		{90, "E"},
		{112.5, "E"},
		{135, "SE"},
		{180, "S"},
		{202.5, "S"},
		{225, "SW"},
		{270, "W"},
		{315, "NW"},
		{337.5, "NW"},
		{337.6, "N"},
		{359, "N"},
		{360, "N"},
		{725, "N"},
		{-45, "N"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CompassPoint(tt.deg), "deg=%v", tt.deg)
	}
}

func TestFormatWind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "25 NE", FormatWind(25, 45))
	assert.Equal(t, "10 N", FormatWind(10, 0))
	assert.Equal(t, "10 N", FormatWind(10, 359))
	assert.Equal(t, "10 E", FormatWind(10, 90))
	assert.Equal(t, "3 SW", FormatWind(3.99, 210))
	assert.Equal(t, "0 S", FormatWind(0.4, 180))
}

func TestIconURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http://openweathermap.org/img/w/10d.png", IconURL("10d"))
}
