package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/jaki95/record-player/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTracks() []domain.Track {
	return []domain.Track{
		{ID: 1, Title: "Relaxing Lofi", Artist: "Tessera", DurationSeconds: 180, Source: domain.LocalSource("Relaxing Lofi Tessera.mp3")},
		{ID: 2, Title: "Night Drive", Artist: "Someone", Source: domain.RemoteSource("https://cdn.example.com/night.mp3")},
		{ID: 7, Title: "Rain", Artist: "Other", Source: domain.LocalSource("rain.mp3")},
	}
}

func TestNewRegistry(t *testing.T) {
	r, err := New(testTracks())
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 7, r.MaxID())
	assert.Equal(t, testTracks(), r.All())
}

func TestNewRegistryErrors(t *testing.T) {
	tests := []struct {
		name   string
		tracks []domain.Track
		err    error
	}{
		{"empty", nil, ErrEmpty},
		{"duplicate id", []domain.Track{
			{ID: 1, Source: domain.LocalSource("a.mp3")},
			{ID: 1, Source: domain.LocalSource("b.mp3")},
		}, ErrDuplicateID},
		{"invalid source", []domain.Track{
			{ID: 1, Source: domain.RemoteSource("not a url")},
		}, domain.ErrInvalidSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.tracks)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, r)
		})
	}
}

func TestRegistryIsImmutable(t *testing.T) {
	tracks := testTracks()
	r, err := New(tracks)
	require.NoError(t, err)

	tracks[0].Title = "changed"
	all := r.All()
	all[1].Title = "changed too"

	track, err := r.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, "Relaxing Lofi", track.Title)

	track, err = r.Lookup(2)
	require.NoError(t, err)
	assert.Equal(t, "Night Drive", track.Title)
}

func TestLookup(t *testing.T) {
	r, err := New(testTracks())
	require.NoError(t, err)

	track, err := r.Lookup(7)
	require.NoError(t, err)
	assert.Equal(t, "Rain", track.Title)

	for _, id := range []int{0, 3, 99, -1} {
		_, err := r.Lookup(id)
		assert.True(t, errors.Is(err, ErrNotFound), "id %d", id)
	}
}

func TestRandomUsesInjectedSource(t *testing.T) {
	r, err := New(testTracks(), WithIntN(func(n int) int {
		assert.Equal(t, 3, n)
		return 2
	}))
	require.NoError(t, err)
	assert.Equal(t, 7, r.Random().ID)
}

func TestRandomSelectsEveryTrack(t *testing.T) {
	r, err := New(testTracks())
	require.NoError(t, err)

	counts := make(map[int]int)
	const draws = 3000
	for i := 0; i < draws; i++ {
		track := r.Random()
		_, err := r.Lookup(track.ID)
		require.NoError(t, err)
		counts[track.ID]++
	}

	// Each track expects ~1000 draws; 700 is far outside plausible variance.
	for _, track := range testTracks() {
		assert.Greater(t, counts[track.ID], 700, "track %d starved", track.ID)
	}
}

type fakeLister struct {
	names []string
	err   error
}

func (f fakeLister) List(context.Context) ([]string, error) {
	return f.names, f.err
}

func TestDiscover(t *testing.T) {
	lister := fakeLister{names: []string{
		"Relaxing Lofi Tessera.mp3",
		"Tessera - Morning Coffee.mp3",
		"lofi/Someone - Night Drive.ogg",
		"lofi/ - broken.mp3",
	}}

	tracks, err := Discover(context.Background(), lister, 10, LocalNames(testTracks()))
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	assert.Equal(t, 10, tracks[0].ID)
	assert.Equal(t, "Tessera", tracks[0].Artist)
	assert.Equal(t, "Morning Coffee", tracks[0].Title)
	assert.Equal(t, domain.LocalSource("Tessera - Morning Coffee.mp3"), tracks[0].Source)

	assert.Equal(t, 11, tracks[1].ID)
	assert.Equal(t, "Someone", tracks[1].Artist)
	assert.Equal(t, "Night Drive", tracks[1].Title)

	assert.Equal(t, 12, tracks[2].ID)
	assert.Equal(t, "Unknown Artist", tracks[2].Artist)
	assert.Equal(t, "- broken", tracks[2].Title)
}

func TestDiscoverListError(t *testing.T) {
	_, err := Discover(context.Background(), fakeLister{err: errors.New("boom")}, 1, nil)
	assert.Error(t, err)
}
