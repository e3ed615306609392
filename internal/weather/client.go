package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jaki95/record-player/config"
)

// Client resolves a caller's location and current weather from public APIs,
// falling back to Defaults whenever a lookup fails.
type Client struct {
	http        *http.Client
	ipLookupURL string
	forecastURL string
	defaults    Defaults
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the client used for both APIs.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// NewClient creates a weather client from configuration
func NewClient(cfg config.WeatherConfig, opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		ipLookupURL: strings.TrimRight(cfg.IPLookupURL, "/"),
		forecastURL: cfg.ForecastURL,
		defaults:    DefaultsFromConfig(cfg.Fallback),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultsFromConfig converts the YAML fallback section.
func DefaultsFromConfig(fb config.WeatherFallback) Defaults {
	return Defaults{
		Latitude:     fb.Latitude,
		Longitude:    fb.Longitude,
		City:         fb.City,
		Country:      fb.Country,
		TemperatureF: fb.TemperatureF,
		Description:  fb.Description,
	}
}

// FallbackLocation is the location used when IP lookup fails.
func (c *Client) FallbackLocation() Location {
	return Location{
		Latitude:  c.defaults.Latitude,
		Longitude: c.defaults.Longitude,
		City:      c.defaults.City,
		Country:   c.defaults.Country,
		Fallback:  true,
	}
}

// FallbackReading is the reading used when the forecast lookup fails.
func (c *Client) FallbackReading() Reading {
	return Reading{
		TemperatureF: int(math.Round(c.defaults.TemperatureF)),
		Description:  c.defaults.Description,
		Fallback:     true,
	}
}

type ipLookupResponse struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	City        string   `json:"city"`
	CountryName string   `json:"country_name"`
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
}

// lookupURL queries the caller's own address for public IPs and the
// server's address otherwise.
func (c *Client) lookupURL(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast() {
		return c.ipLookupURL + "/json/"
	}
	return c.ipLookupURL + "/" + url.PathEscape(parsed.String()) + "/json/"
}

// Locate resolves an IP address to coordinates and a city name.
func (c *Client) Locate(ctx context.Context, ip string) Location {
	loc, err := c.locate(ctx, ip)
	if err != nil {
		slog.Warn("Could not determine location from IP, using fallback", "error", err)
		return c.FallbackLocation()
	}
	return loc
}

func (c *Client) locate(ctx context.Context, ip string) (Location, error) {
	var data ipLookupResponse
	if err := c.getJSON(ctx, c.lookupURL(ip), &data); err != nil {
		return Location{}, err
	}
	if data.Error {
		return Location{}, fmt.Errorf("ip lookup error: %s", data.Reason)
	}
	if data.Latitude == nil || data.Longitude == nil {
		return Location{}, fmt.Errorf("ip lookup returned no coordinates")
	}

	city := data.City
	if city == "" {
		city = "Unknown"
	}

	return Location{
		Latitude:  *data.Latitude,
		Longitude: *data.Longitude,
		City:      city,
		Country:   data.CountryName,
	}, nil
}

type forecastResponse struct {
	Current *struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

// Current returns the current weather at the given coordinates.
func (c *Client) Current(ctx context.Context, lat, lon float64) Reading {
	reading, err := c.current(ctx, lat, lon)
	if err != nil {
		slog.Error("Error fetching weather, using fallback", "error", err)
		return c.FallbackReading()
	}
	return reading
}

func (c *Client) current(ctx context.Context, lat, lon float64) (Reading, error) {
	u, err := url.Parse(c.forecastURL)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid forecast url: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", "temperature_2m,weather_code,relative_humidity_2m,wind_speed_10m")
	q.Set("temperature_unit", "fahrenheit")
	q.Set("wind_speed_unit", "mph")
	q.Set("timezone", "auto")
	u.RawQuery = q.Encode()

	var data forecastResponse
	if err := c.getJSON(ctx, u.String(), &data); err != nil {
		return Reading{}, err
	}
	if data.Current == nil {
		return Reading{}, fmt.Errorf("forecast response has no current conditions")
	}

	cur := data.Current
	return Reading{
		TemperatureF: int(math.Round(cur.Temperature)),
		Description:  Describe(cur.WeatherCode),
		Code:         cur.WeatherCode,
		Humidity:     int(math.Round(cur.Humidity)),
		WindSpeedMph: int(math.Round(cur.WindSpeed)),
	}, nil
}

// Ticket resolves the location and weather for a query. It never fails;
// every lookup degrades to the configured defaults.
func (c *Client) Ticket(ctx context.Context, q Query) Ticket {
	var loc Location
	if q.Latitude != nil && q.Longitude != nil {
		loc = Location{Latitude: *q.Latitude, Longitude: *q.Longitude}
		// Coordinates come from the browser; the IP lookup only adds a name
		if named, err := c.locate(ctx, q.IP); err == nil {
			loc.City = named.City
			loc.Country = named.Country
		}
	} else {
		loc = c.Locate(ctx, q.IP)
	}

	reading := c.Current(ctx, loc.Latitude, loc.Longitude)

	unit := strings.ToUpper(q.Unit)
	if unit != "C" {
		unit = "F"
	}
	tempC := ToCelsius(reading.TemperatureF)
	temp := reading.TemperatureF
	if unit == "C" {
		temp = tempC
	}

	return Ticket{
		Location:         LocationName(loc),
		Latitude:         loc.Latitude,
		Longitude:        loc.Longitude,
		Temperature:      temp,
		Unit:             unit,
		TemperatureF:     reading.TemperatureF,
		TemperatureC:     tempC,
		Description:      reading.Description,
		Code:             reading.Code,
		Humidity:         reading.Humidity,
		WindSpeed:        reading.WindSpeedMph,
		WindUnit:         "mph",
		LocationFallback: loc.Fallback,
		WeatherFallback:  reading.Fallback,
	}
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request failed with status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
