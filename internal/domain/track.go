package domain

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// SourceKind tells the relay how to reach a track's audio bytes.
type SourceKind string

const (
	// SourceLocal is an object in the configured music storage (a file or a GCS object).
	SourceLocal SourceKind = "local"
	// SourceRemote is an http(s) URL fetched on every request.
	SourceRemote SourceKind = "remote"
)

var ErrInvalidSource = errors.New("invalid track source")

// Source is the physical location of a track. Location is never sent to clients.
type Source struct {
	Kind     SourceKind `json:"kind"`
	Location string     `json:"-"`
}

// LocalSource returns a source pointing at a storage object name.
func LocalSource(name string) Source {
	return Source{Kind: SourceLocal, Location: name}
}

// RemoteSource returns a source pointing at an upstream URL.
func RemoteSource(rawURL string) Source {
	return Source{Kind: SourceRemote, Location: rawURL}
}

// Validate checks that the location is usable for its kind.
func (s Source) Validate() error {
	if strings.TrimSpace(s.Location) == "" {
		return fmt.Errorf("%w: empty location", ErrInvalidSource)
	}

	switch s.Kind {
	case SourceLocal:
		if path.IsAbs(s.Location) || strings.HasPrefix(s.Location, `\`) {
			return fmt.Errorf("%w: local source must be relative to the music storage", ErrInvalidSource)
		}
		cleaned := path.Clean(strings.ReplaceAll(s.Location, `\`, "/"))
		if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
			return fmt.Errorf("%w: local source escapes the music storage", ErrInvalidSource)
		}
	case SourceRemote:
		u, err := url.Parse(s.Location)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSource, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: remote source must be an absolute http(s) URL", ErrInvalidSource)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSource, s.Kind)
	}

	return nil
}

// Track is one playable audio item. Tracks are built once at startup and never mutated.
type Track struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Image           string `json:"image,omitempty"`
	DurationSeconds int    `json:"duration,omitempty"`
	Source          Source `json:"source"`
}

// TrackDescriptor is the wire shape returned by /api/lofi-track. URL always
// points back at this process's relay endpoint.
type TrackDescriptor struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	URL      string `json:"url"`
	Image    string `json:"image,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

// AudioPath is the relay path serving the track with the given id.
func AudioPath(id int) string {
	return fmt.Sprintf("/api/audio/%d", id)
}

// NewDescriptor builds the client-facing descriptor for a track.
func NewDescriptor(t Track, baseURL string) TrackDescriptor {
	return TrackDescriptor{
		ID:       t.ID,
		Title:    t.Title,
		Artist:   t.Artist,
		URL:      strings.TrimRight(baseURL, "/") + AudioPath(t.ID),
		Image:    t.Image,
		Duration: t.DurationSeconds,
	}
}
