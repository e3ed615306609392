package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jaki95/record-player/internal/domain"
)

// StatusError is returned for any non-2xx answer from the server.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// ProgressFunc receives the bytes received so far and the expected total,
// which is -1 when the server does not send a length.
type ProgressFunc func(received, total int64)

// Client talks to a record-player server.
type Client struct {
	BaseURL   string
	HTTP      *http.Client
	UserAgent string
	// Timeout bounds metadata calls. Zero means no limit.
	Timeout time.Duration
}

// New creates a client for the server at baseURL. Metadata calls are bounded
// by timeout; streams are bounded only by the caller's context.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		HTTP:      &http.Client{},
		UserAgent: "record-player/1.0",
		Timeout:   timeout,
	}
}

// RandomTrack asks the server to pick a track.
func (c *Client) RandomTrack(ctx context.Context) (domain.TrackDescriptor, error) {
	var d domain.TrackDescriptor
	err := c.getJSON(ctx, "/api/lofi-track", &d)
	return d, err
}

// Tracks lists every track the server knows about.
func (c *Client) Tracks(ctx context.Context) ([]domain.Track, error) {
	var list domain.TrackList
	if err := c.getJSON(ctx, "/tracks", &list); err != nil {
		return nil, err
	}
	return list.Tracks, nil
}

// Health returns the server's health report.
func (c *Client) Health(ctx context.Context) (domain.Health, error) {
	var h domain.Health
	err := c.getJSON(ctx, "/health", &h)
	return h, err
}

// Stream copies the audio behind d into w and returns the byte count.
// onProgress may be nil.
func (c *Client) Stream(ctx context.Context, d domain.TrackDescriptor, w io.Writer, onProgress ProgressFunc) (int64, error) {
	target := d.URL
	if target == "" {
		target = c.BaseURL + domain.AudioPath(d.ID)
	}

	resp, err := c.do(ctx, target)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if onProgress != nil {
		onProgress(0, resp.ContentLength)
		w = &progressWriter{w: w, total: resp.ContentLength, report: onProgress}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("stream interrupted after %d bytes: %w", n, err)
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return n, fmt.Errorf("stream ended after %d of %d bytes", n, resp.ContentLength)
	}
	return n, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	resp, err := c.do(ctx, c.BaseURL+path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// do issues a GET and turns non-2xx answers into a StatusError.
func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body) == nil {
			statusErr.Message = body.Error
		}
		return nil, statusErr
	}
	return resp, nil
}

type progressWriter struct {
	w        io.Writer
	received int64
	total    int64
	report   ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.received += int64(n)
	p.report(p.received, p.total)
	return n, err
}
