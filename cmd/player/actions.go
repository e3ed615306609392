package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/jaki95/record-player/internal/client"
	"github.com/jaki95/record-player/internal/domain"
	"github.com/jaki95/record-player/internal/playback"
	"github.com/k0kubun/go-ansi"
	"github.com/urfave/cli/v2"
)

const defaultTimeout = 15 * time.Second

func newClient(c *cli.Context) *client.Client {
	return client.New(c.String("server"), c.Duration("timeout"))
}

func playAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cl := newClient(c)
	machine := playback.NewMachine()
	if c.Bool("verbose") {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		machine.AddListener(func(t playback.Transition) {
			logger.Info("Playback state changed", "from", t.From, "to", t.To, "event", t.Event, "error", t.Err)
		})
	}

	if err := machine.Start(); err != nil {
		return err
	}

	var (
		descriptor domain.TrackDescriptor
		err        error
	)
	if c.Bool("pick") {
		descriptor, err = pickTrack(ctx, cl)
	} else {
		spin := func(action func(context.Context) error) error {
			return spinner.New().Title("Loading...").Context(ctx).ActionWithErr(action).Run()
		}
		descriptor, err = awaitTrack(ctx, spin, cl.RandomTrack)
	}
	if err != nil {
		return fmt.Errorf("failed to load a track: %w", errors.Join(err, machine.Fail(err)))
	}

	out := io.Writer(io.Discard)
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", errors.Join(err, machine.Fail(err)))
		}
		defer f.Close()
		out = f
	}

	s := &session{
		client:  cl,
		machine: machine,
		audio:   out,
		term:    ansi.NewAnsiStdout(),
	}
	return s.play(ctx, descriptor)
}

// awaitTrack runs load in its own goroutine while spin shows progress. The
// spinner may return before its action does, so the result is read only
// once load has finished.
func awaitTrack(
	ctx context.Context,
	spin func(action func(context.Context) error) error,
	load func(context.Context) (domain.TrackDescriptor, error),
) (domain.TrackDescriptor, error) {
	var (
		descriptor domain.TrackDescriptor
		loadErr    error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		descriptor, loadErr = load(ctx)
	}()

	spinErr := spin(func(ctx context.Context) error {
		select {
		case <-finished:
		case <-ctx.Done():
		}
		return nil
	})

	select {
	case <-finished:
	case <-ctx.Done():
		return domain.TrackDescriptor{}, ctx.Err()
	}
	if loadErr != nil {
		return domain.TrackDescriptor{}, loadErr
	}
	if spinErr != nil {
		return domain.TrackDescriptor{}, spinErr
	}
	return descriptor, nil
}

// pickTrack lets the user choose from the server's track list.
func pickTrack(ctx context.Context, cl *client.Client) (domain.TrackDescriptor, error) {
	tracks, err := cl.Tracks(ctx)
	if err != nil {
		return domain.TrackDescriptor{}, err
	}
	if len(tracks) == 0 {
		return domain.TrackDescriptor{}, fmt.Errorf("server has no tracks")
	}

	options := make([]huh.Option[int], len(tracks))
	for i, t := range tracks {
		options[i] = huh.NewOption(fmt.Sprintf("%s - %s", t.Artist, t.Title), i)
	}

	var choice int
	err = huh.NewSelect[int]().
		Height(10).
		Title("Choose a track").
		Options(options...).
		Value(&choice).
		Run()
	if err != nil {
		return domain.TrackDescriptor{}, err
	}

	return domain.NewDescriptor(tracks[choice], cl.BaseURL), nil
}

func tracksAction(c *cli.Context) error {
	tracks, err := newClient(c).Tracks(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, domain.TrackList{Tracks: tracks})
}

func healthAction(c *cli.Context) error {
	health, err := newClient(c).Health(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, health)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "?"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
