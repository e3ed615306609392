package weather

// Defaults are served when a lookup fails.
type Defaults struct {
	Latitude     float64
	Longitude    float64
	City         string
	Country      string
	TemperatureF float64
	Description  string
}

// Location is where the weather is read for.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Fallback  bool    `json:"fallback"`
}

// Reading is the current weather at a location, in imperial units.
type Reading struct {
	TemperatureF int    `json:"temperatureF"`
	Description  string `json:"description"`
	Code         int    `json:"code"`
	Humidity     int    `json:"humidity"`
	WindSpeedMph int    `json:"windSpeedMph"`
	Fallback     bool   `json:"fallback"`
}

// Query selects the location of a ticket. Coordinates, when both set, take
// priority over the caller IP.
type Query struct {
	IP        string
	Latitude  *float64
	Longitude *float64
	Unit      string
}

// Ticket is the weather display payload.
type Ticket struct {
	Location     string  `json:"location"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Temperature  int     `json:"temperature"`
	Unit         string  `json:"unit"`
	TemperatureF int     `json:"temperatureF"`
	TemperatureC int     `json:"temperatureC"`
	Description  string  `json:"description"`
	Code         int     `json:"code"`
	Humidity     int     `json:"humidity"`
	WindSpeed    int     `json:"windSpeed"`
	WindUnit     string  `json:"windUnit"`

	LocationFallback bool `json:"locationFallback"`
	WeatherFallback  bool `json:"weatherFallback"`
}
