package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jaki95/record-player/internal/client"
	"github.com/jaki95/record-player/internal/domain"
	"github.com/jaki95/record-player/internal/playback"
	"github.com/schollz/progressbar/v3"
)

// session streams one track while driving the playback state machine.
// The machine must already be Loading.
type session struct {
	client  *client.Client
	machine *playback.Machine
	audio   io.Writer
	term    io.Writer
}

func (s *session) play(ctx context.Context, d domain.TrackDescriptor) error {
	var (
		bar      *progressbar.ProgressBar
		startErr error
	)
	onProgress := func(received, total int64) {
		if bar == nil {
			// Headers arrived, audio is flowing
			startErr = s.machine.Started()
			bar = s.newBar(d, total)
		}
		bar.Set64(received)
	}

	_, err := s.client.Stream(ctx, d, s.audio, onProgress)
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(s.term)
	}

	switch {
	case err == nil:
		if err := errors.Join(startErr, s.machine.Stop()); err != nil {
			return fmt.Errorf("playback state: %w", err)
		}
		fmt.Fprintf(s.term, "Finished %s - %s\n", d.Artist, d.Title)
		return nil
	case ctx.Err() != nil:
		if err := errors.Join(startErr, s.machine.Stop()); err != nil {
			return fmt.Errorf("playback state: %w", err)
		}
		fmt.Fprintln(s.term, "Stopped")
		return nil
	default:
		if stateErr := errors.Join(startErr, s.machine.Fail(err)); stateErr != nil {
			return fmt.Errorf("playback of %q failed: %w", d.Title, errors.Join(err, stateErr))
		}
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) {
			return fmt.Errorf("cannot play %q: %w", d.Title, statusErr)
		}
		return fmt.Errorf("playback of %q failed: %w", d.Title, err)
	}
}

func (s *session) newBar(d domain.TrackDescriptor, total int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(s.term),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][%s][reset] %s - %s", formatDuration(d.Duration), d.Artist, d.Title)),
	)
}
