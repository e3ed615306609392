package catalog

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/jaki95/record-player/internal/domain"
)

// Lister is the part of the music storage discovery needs.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Discover turns every audio object in storage into a local track. Names of
// the form "Artist - Title.ext" are split; anything else becomes the title.
// Ids are assigned sequentially starting at start. Objects listed in skip
// (already registered sources) are ignored.
func Discover(ctx context.Context, lister Lister, start int, skip map[string]bool) ([]domain.Track, error) {
	names, err := lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list music storage: %w", err)
	}

	tracks := make([]domain.Track, 0, len(names))
	id := start
	for _, name := range names {
		if skip[name] {
			continue
		}
		artist, title := parseName(name)
		tracks = append(tracks, domain.Track{
			ID:     id,
			Title:  title,
			Artist: artist,
			Source: domain.LocalSource(name),
		})
		id++
	}

	return tracks, nil
}

func parseName(name string) (artist, title string) {
	base := path.Base(name)
	base = strings.TrimSuffix(base, path.Ext(base))

	if parts := strings.SplitN(base, " - ", 2); len(parts) == 2 {
		artist = strings.TrimSpace(parts[0])
		title = strings.TrimSpace(parts[1])
		if artist != "" && title != "" {
			return artist, title
		}
	}

	return "Unknown Artist", strings.TrimSpace(base)
}

// LocalNames returns the storage names already used by local tracks.
func LocalNames(tracks []domain.Track) map[string]bool {
	names := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		if t.Source.Kind == domain.SourceLocal {
			names[t.Source.Location] = true
		}
	}
	return names
}
