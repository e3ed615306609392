package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaki95/record-player/config"
	"github.com/jaki95/record-player/internal/catalog"
	"github.com/jaki95/record-player/internal/relay"
	"github.com/jaki95/record-player/internal/server"
	"github.com/jaki95/record-player/internal/storage"
	"github.com/jaki95/record-player/internal/weather"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Path to the YAML configuration file")
	port := flag.String("port", "", "Server port (overrides the config file)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		slog.Warn("Configuration file not found, using defaults", "path", *configPath)
	} else if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	// Setup logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	registry, err := buildRegistry(ctx, cfg, store)
	if err != nil {
		return err
	}

	srv := server.New(
		cfg,
		registry,
		relay.New(store, cfg.Relay),
		weather.NewClient(cfg.Weather),
	)

	slog.Info("Starting record player relay", "addr", cfg.Addr(), "storage", cfg.Storage.Type, "tracks", registry.Len())
	return srv.Start(ctx)
}

// buildRegistry combines the configured tracks with any audio discovered in
// storage, numbering discovered tracks after the highest configured id.
func buildRegistry(ctx context.Context, cfg *config.Config, store storage.Storage) (*catalog.Registry, error) {
	tracks := cfg.DomainTracks()
	if !cfg.Storage.Discover {
		return catalog.New(tracks)
	}

	// discovery may be the only source of tracks
	start := 1
	if len(tracks) > 0 {
		configured, err := catalog.New(tracks)
		if err != nil {
			return nil, err
		}
		start = configured.MaxID() + 1
	}

	discovered, err := catalog.Discover(ctx, store, start, catalog.LocalNames(tracks))
	if err != nil {
		return nil, err
	}
	slog.Info("Discovered tracks in storage", "count", len(discovered))

	return catalog.New(append(tracks, discovered...))
}
