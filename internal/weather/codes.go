package weather

import (
	"fmt"
	"math"
	"strings"
)

// WMO weather interpretation codes
var descriptions = map[int]string{
	0:  "Clear",
	1:  "Mainly Clear",
	2:  "Partly Cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Foggy",
	51: "Light Drizzle",
	53: "Drizzle",
	55: "Heavy Drizzle",
	61: "Light Rain",
	63: "Rain",
	65: "Heavy Rain",
	71: "Light Snow",
	73: "Snow",
	75: "Heavy Snow",
	77: "Snow Grains",
	80: "Light Rain Showers",
	81: "Rain Showers",
	82: "Heavy Rain Showers",
	85: "Light Snow Showers",
	86: "Snow Showers",
	95: "Thunderstorm",
	96: "Thunderstorm with Hail",
	99: "Thunderstorm with Hail",
}

// Describe returns the display text for a WMO weather code.
func Describe(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return "Unknown"
}

// ToCelsius converts a whole Fahrenheit temperature, rounding to the nearest degree.
func ToCelsius(f int) int {
	return int(math.Round(float64(f-32) * 5 / 9))
}

// LocationName formats a location as "CITY, COUNTRY".
func LocationName(loc Location) string {
	if loc.City == "" {
		return "YOUR LOCATION"
	}
	name := loc.City
	if loc.Country != "" {
		name = fmt.Sprintf("%s, %s", loc.City, loc.Country)
	}
	return strings.ToUpper(strings.TrimSpace(name))
}
