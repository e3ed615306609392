package catalog

import (
	"fmt"
	"math/rand/v2"

	"github.com/jaki95/record-player/internal/domain"
)

// Registry is the fixed, in-memory track list. It is built once at startup
// and is safe for any number of concurrent readers.
type Registry struct {
	tracks []domain.Track
	byID   map[int]int
	intN   func(n int) int
}

// Option configures a Registry.
type Option func(*Registry)

// WithIntN replaces the random index source used by Random.
// fn must return a value in [0, n).
func WithIntN(fn func(n int) int) Option {
	return func(r *Registry) {
		r.intN = fn
	}
}

// New validates and copies tracks into a registry.
func New(tracks []domain.Track, opts ...Option) (*Registry, error) {
	if len(tracks) == 0 {
		return nil, ErrEmpty
	}

	r := &Registry{
		tracks: make([]domain.Track, len(tracks)),
		byID:   make(map[int]int, len(tracks)),
		intN:   rand.IntN,
	}
	copy(r.tracks, tracks)

	for i, t := range r.tracks {
		if err := t.Source.Validate(); err != nil {
			return nil, fmt.Errorf("track %d: %w", t.ID, err)
		}
		if _, exists := r.byID[t.ID]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, t.ID)
		}
		r.byID[t.ID] = i
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Random returns a uniformly chosen track.
func (r *Registry) Random() domain.Track {
	return r.tracks[r.intN(len(r.tracks))]
}

// Lookup returns the track with the given id.
func (r *Registry) Lookup(id int) (domain.Track, error) {
	i, ok := r.byID[id]
	if !ok {
		return domain.Track{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return r.tracks[i], nil
}

// All returns a copy of every track in configuration order.
func (r *Registry) All() []domain.Track {
	out := make([]domain.Track, len(r.tracks))
	copy(out, r.tracks)
	return out
}

func (r *Registry) Len() int {
	return len(r.tracks)
}

// MaxID returns the highest track id, used to number discovered tracks.
func (r *Registry) MaxID() int {
	maxID := 0
	for _, t := range r.tracks {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	return maxID
}
