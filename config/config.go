package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/jaki95/record-player/internal/domain"
	"gopkg.in/yaml.v3"
)

const DefaultMode = "Royalty-Free Music (No API Key Required)"

type Config struct {
	LogLevel int    `yaml:"log_level"`
	Mode     string `yaml:"mode"`

	Server  ServerConfig  `yaml:"server"`
	Relay   RelayConfig   `yaml:"relay"`
	Storage StorageConfig `yaml:"storage"`
	Tracks  []TrackConfig `yaml:"tracks"`
	Weather WeatherConfig `yaml:"weather"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`

	// Base URL written into track descriptors. Built from the request when empty.
	PublicBaseURL   string        `yaml:"public_base_url"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type RelayConfig struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	HeaderTimeout  time.Duration `yaml:"header_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	UserAgent      string        `yaml:"user_agent"`
	BufferSize     int           `yaml:"buffer_size"`
}

type StorageConfig struct {
	// Type of storage: "local" or "gcs"
	Type string `yaml:"type"`

	// Local storage options
	MusicDir string `yaml:"music_dir"`

	// GCS options
	Bucket          string `yaml:"bucket"`
	ObjectPrefix    string `yaml:"object_prefix"`
	CredentialsFile string `yaml:"credentials_file"`

	// Register every audio object found in storage at startup.
	Discover bool `yaml:"discover"`
}

// TrackConfig is one registry entry. Exactly one of File or URL must be set.
type TrackConfig struct {
	ID       int    `yaml:"id"`
	Title    string `yaml:"title"`
	Artist   string `yaml:"artist"`
	File     string `yaml:"file"`
	URL      string `yaml:"url"`
	Image    string `yaml:"image"`
	Duration int    `yaml:"duration"`
}

type WeatherConfig struct {
	IPLookupURL string          `yaml:"ip_lookup_url"`
	ForecastURL string          `yaml:"forecast_url"`
	Timeout     time.Duration   `yaml:"timeout"`
	Fallback    WeatherFallback `yaml:"fallback"`
}

// WeatherFallback is served when location or forecast lookups fail.
type WeatherFallback struct {
	Latitude     float64 `yaml:"latitude"`
	Longitude    float64 `yaml:"longitude"`
	City         string  `yaml:"city"`
	Country      string  `yaml:"country"`
	TemperatureF float64 `yaml:"temperature_f"`
	Description  string  `yaml:"description"`
}

// DefaultTracks is the built-in registry used when the config names no tracks.
func DefaultTracks() []TrackConfig {
	return []TrackConfig{
		{
			ID:       1,
			Title:    "Relaxing Lofi",
			Artist:   "Tessera",
			File:     "Relaxing Lofi Tessera.mp3",
			Duration: 180,
		},
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config *Config

	// Unmarshal the YAML data into the struct
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = DefaultMode
	}

	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == "" {
		c.Server.Port = "3000"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Relay.ConnectTimeout == 0 {
		c.Relay.ConnectTimeout = 10 * time.Second
	}
	if c.Relay.HeaderTimeout == 0 {
		c.Relay.HeaderTimeout = 15 * time.Second
	}
	if c.Relay.IdleTimeout == 0 {
		c.Relay.IdleTimeout = 30 * time.Second
	}
	if c.Relay.UserAgent == "" {
		c.Relay.UserAgent = "record-player-relay/1.0"
	}
	if c.Relay.BufferSize <= 0 {
		c.Relay.BufferSize = 32 * 1024
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.MusicDir == "" {
		c.Storage.MusicDir = "music"
	}

	if c.Tracks == nil && !c.Storage.Discover {
		c.Tracks = DefaultTracks()
	}

	if c.Weather.IPLookupURL == "" {
		c.Weather.IPLookupURL = "https://ipapi.co"
	}
	if c.Weather.ForecastURL == "" {
		c.Weather.ForecastURL = "https://api.open-meteo.com/v1/forecast"
	}
	if c.Weather.Timeout == 0 {
		c.Weather.Timeout = 10 * time.Second
	}

	// Center of the contiguous US
	fb := &c.Weather.Fallback
	if fb.Latitude == 0 && fb.Longitude == 0 {
		fb.Latitude = 39.8283
		fb.Longitude = -98.5795
	}
	if fb.City == "" {
		fb.City = "Central US"
	}
	if fb.Country == "" {
		fb.Country = "United States"
	}
	if fb.TemperatureF == 0 {
		fb.TemperatureF = 72
	}
	if fb.Description == "" {
		fb.Description = "Clear"
	}
}

// Validate reports configuration values that would fail later at startup.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "local":
	case "gcs":
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for gcs storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	for i, t := range c.Tracks {
		if (t.File == "") == (t.URL == "") {
			return fmt.Errorf("track %d (index %d): exactly one of file or url must be set", t.ID, i)
		}
	}

	return nil
}

// Source converts the entry's file or url into a domain source.
func (t TrackConfig) Source() domain.Source {
	if t.URL != "" {
		return domain.RemoteSource(t.URL)
	}
	return domain.LocalSource(t.File)
}

// Track converts the entry into a domain track.
func (t TrackConfig) Track() domain.Track {
	return domain.Track{
		ID:              t.ID,
		Title:           t.Title,
		Artist:          t.Artist,
		Image:           t.Image,
		DurationSeconds: t.Duration,
		Source:          t.Source(),
	}
}

// DomainTracks converts every configured track.
func (c *Config) DomainTracks() []domain.Track {
	tracks := make([]domain.Track, 0, len(c.Tracks))
	for _, t := range c.Tracks {
		tracks = append(tracks, t.Track())
	}
	return tracks
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}
