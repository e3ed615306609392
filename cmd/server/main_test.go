package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaki95/record-player/config"
	"github.com/jaki95/record-player/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMusicDir(t *testing.T, names ...string) storage.Storage {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("audio"), 0644))
	}
	store, err := storage.NewLocalFileStorage(dir)
	require.NoError(t, err)
	return store
}

func TestBuildRegistryNumbersDiscoveredAfterConfigured(t *testing.T) {
	store := newMusicDir(t, "Known.mp3", "Nujabes - Aruarian Dance.mp3")

	cfg := config.Default()
	cfg.Storage.Discover = true
	cfg.Tracks = []config.TrackConfig{
		{ID: 3, Title: "Known", Artist: "A", File: "Known.mp3"},
		{ID: 7, Title: "Remote", Artist: "B", URL: "https://cdn.example.com/b.mp3"},
	}

	registry, err := buildRegistry(context.Background(), cfg, store)
	require.NoError(t, err)
	require.Equal(t, 3, registry.Len())

	track, err := registry.Lookup(8)
	require.NoError(t, err)
	assert.Equal(t, "Nujabes", track.Artist)
	assert.Equal(t, "Aruarian Dance", track.Title)
	assert.Equal(t, 8, registry.MaxID())
}

func TestBuildRegistryDiscoveryOnly(t *testing.T) {
	store := newMusicDir(t, "Tessera - Relaxing Lofi.mp3")

	cfg := config.Default()
	cfg.Storage.Discover = true
	cfg.Tracks = nil

	registry, err := buildRegistry(context.Background(), cfg, store)
	require.NoError(t, err)

	track, err := registry.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, "Relaxing Lofi", track.Title)
}

func TestBuildRegistryWithoutDiscovery(t *testing.T) {
	store := newMusicDir(t, "Extra.mp3")

	cfg := config.Default()
	registry, err := buildRegistry(context.Background(), cfg, store)
	require.NoError(t, err)
	assert.Equal(t, len(cfg.Tracks), registry.Len())
}
