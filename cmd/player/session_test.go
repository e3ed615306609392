package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/jaki95/record-player/internal/client"
	"github.com/jaki95/record-player/internal/domain"
	"github.com/jaki95/record-player/internal/playback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, handler http.HandlerFunc) (*session, *bytes.Buffer, *bytes.Buffer, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m := playback.NewMachine()
	require.NoError(t, m.Start())

	var audio, term bytes.Buffer
	return &session{
		client:  client.New(srv.URL, time.Second),
		machine: m,
		audio:   &audio,
		term:    &term,
	}, &audio, &term, srv.URL
}

func TestSessionPlaysToCompletion(t *testing.T) {
	payload := bytes.Repeat([]byte{0xff, 0xfb}, 8192)
	s, audio, term, base := newSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	})

	var states []playback.State
	s.machine.AddListener(func(tr playback.Transition) {
		states = append(states, tr.To)
	})

	err := s.play(context.Background(), domain.TrackDescriptor{ID: 1, Title: "Relaxing Lofi", Artist: "Tessera", URL: base + "/api/audio/1", Duration: 180})
	require.NoError(t, err)

	assert.Equal(t, payload, audio.Bytes())
	assert.Equal(t, []playback.State{playback.StatePlaying, playback.StateStopped}, states)
	assert.Equal(t, playback.StateStopped, s.machine.State())
	assert.NoError(t, s.machine.Err())
	assert.Contains(t, term.String(), "Finished Tessera - Relaxing Lofi")
}

func TestSessionServerError(t *testing.T) {
	s, _, _, base := newSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Track not found"}`))
	})

	err := s.play(context.Background(), domain.TrackDescriptor{ID: 99, Title: "Missing", URL: base + "/api/audio/99"})

	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, playback.StateStopped, s.machine.State())
	assert.Equal(t, err.Error(), `cannot play "Missing": `+statusErr.Error())
	assert.Error(t, s.machine.Err())
}

func TestSessionCancelledStops(t *testing.T) {
	release := make(chan struct{})
	s, _, term, base := newSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("first"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	s.machine.AddListener(func(tr playback.Transition) {
		if tr.To == playback.StatePlaying {
			go func() {
				time.Sleep(50 * time.Millisecond)
				cancel()
			}()
		}
	})

	err := s.play(ctx, domain.TrackDescriptor{ID: 1, URL: base})
	require.NoError(t, err)
	assert.Equal(t, playback.StateStopped, s.machine.State())
	assert.NoError(t, s.machine.Err())
	assert.Contains(t, term.String(), "Stopped")
}

func TestSessionReportsRejectedTransitions(t *testing.T) {
	s, _, _, base := newSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	})
	// never started, so Started and Stop are both out of order
	s.machine = playback.NewMachine()

	err := s.play(context.Background(), domain.TrackDescriptor{ID: 1, Title: "Out Of Order", URL: base})
	require.ErrorIs(t, err, playback.ErrInvalidTransition)
	assert.Equal(t, playback.StateStopped, s.machine.State())
}

func TestSessionFailRejectedIsReported(t *testing.T) {
	s, _, _, base := newSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"Upstream source unavailable"}`))
	})
	s.machine = playback.NewMachine()

	err := s.play(context.Background(), domain.TrackDescriptor{ID: 1, Title: "Broken", URL: base})
	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.ErrorIs(t, err, playback.ErrInvalidTransition)
}

func TestAwaitTrackOutlivesSpinner(t *testing.T) {
	want := domain.TrackDescriptor{ID: 1, Title: "Relaxing Lofi"}
	load := func(ctx context.Context) (domain.TrackDescriptor, error) {
		time.Sleep(20 * time.Millisecond)
		return want, nil
	}
	// the spinner gives up straight away without waiting for its action
	spin := func(action func(context.Context) error) error {
		go action(context.Background())
		return nil
	}

	got, err := awaitTrack(context.Background(), spin, load)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAwaitTrackErrors(t *testing.T) {
	spinFailure := errors.New("no terminal")
	loadFailure := errors.New("server down")
	runAction := func(action func(context.Context) error) error {
		return action(context.Background())
	}

	tests := []struct {
		name    string
		spin    func(func(context.Context) error) error
		loadErr error
		wantErr error
	}{
		{"load error", runAction, loadFailure, loadFailure},
		{"spinner error", func(action func(context.Context) error) error {
			action(context.Background())
			return spinFailure
		}, nil, spinFailure},
		{"load error wins", func(action func(context.Context) error) error {
			action(context.Background())
			return spinFailure
		}, loadFailure, loadFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			load := func(context.Context) (domain.TrackDescriptor, error) {
				return domain.TrackDescriptor{ID: 1}, tt.loadErr
			}
			_, err := awaitTrack(context.Background(), tt.spin, load)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAwaitTrackCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	load := func(ctx context.Context) (domain.TrackDescriptor, error) {
		<-ctx.Done()
		return domain.TrackDescriptor{}, ctx.Err()
	}
	spin := func(action func(context.Context) error) error {
		cancel()
		return nil
	}

	_, err := awaitTrack(ctx, spin, load)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "3:00", formatDuration(180))
	assert.Equal(t, "0:07", formatDuration(7))
	assert.Equal(t, "?", formatDuration(0))
}
