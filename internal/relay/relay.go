package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jaki95/record-player/config"
	"github.com/jaki95/record-player/internal/cors"
	"github.com/jaki95/record-player/internal/domain"
	"github.com/jaki95/record-player/internal/storage"
)

const DefaultContentType = "audio/mpeg"

// Relay streams a track's bytes from its source to an HTTP client. Local
// and remote sources go through the same Serve call.
type Relay struct {
	storage storage.Storage
	client  *http.Client
	cfg     config.RelayConfig
}

// Option configures a Relay.
type Option func(*Relay)

// WithHTTPClient replaces the client used for remote sources.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Relay) {
		r.client = c
	}
}

// New creates a relay reading local tracks from store.
func New(store storage.Storage, cfg config.RelayConfig, opts ...Option) *Relay {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 32 * 1024
	}

	r := &Relay{
		storage: store,
		client:  &http.Client{Transport: newTransport(cfg)},
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// newTransport bounds connection setup and the wait for response headers.
// There is no overall client timeout; a long stream is only cut when it
// stalls for IdleTimeout.
func newTransport(cfg config.RelayConfig) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.HeaderTimeout,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
		DisableCompression:    true,
	}
}

// source is a resolved, open track source ready to be copied to the client.
type source struct {
	body         io.ReadCloser
	status       int
	contentType  string
	length       int64 // -1 when unknown
	contentRange string
	cancel       context.CancelFunc
}

func (s *source) Close() error {
	defer s.cancel()
	if s.body == nil {
		return nil
	}
	return s.body.Close()
}

// Serve relays track to w. Errors before the headers are sent are answered
// with an error response by Serve itself; errors after that terminate the
// response. The returned error is for logging only.
func (r *Relay) Serve(w http.ResponseWriter, req *http.Request, track domain.Track) error {
	// Cancelled by the client going away or by the idle watchdog
	ctx, cancel := context.WithCancelCause(req.Context())

	var (
		src *source
		err error
	)
	switch track.Source.Kind {
	case domain.SourceLocal:
		src, err = r.openLocal(ctx, req, track.Source.Location)
	case domain.SourceRemote:
		src, err = r.openRemote(ctx, req, track.Source.Location)
	default:
		err = fmt.Errorf("unsupported source kind %q", track.Source.Kind)
	}
	if err != nil {
		cancel(nil)
		var rangeErr *rangeNotSatisfiableError
		if errors.As(err, &rangeErr) {
			writeRangeNotSatisfiable(w, rangeErr.size)
			return nil
		}
		writeError(w, err)
		return err
	}
	src.cancel = func() { cancel(nil) }
	defer src.Close()

	h := w.Header()
	cors.Apply(h)
	h.Set("Accept-Ranges", "bytes")
	contentType := src.contentType
	if contentType == "" {
		contentType = DefaultContentType
	}
	h.Set("Content-Type", contentType)
	if src.length >= 0 {
		h.Set("Content-Length", strconv.FormatInt(src.length, 10))
	}
	if src.contentRange != "" {
		h.Set("Content-Range", src.contentRange)
	}
	w.WriteHeader(src.status)

	if req.Method == http.MethodHead {
		return nil
	}

	watchdog := newIdleReader(src.body, r.cfg.IdleTimeout, func() { cancel(ErrIdleTimeout) })
	defer watchdog.Stop()

	_, err = r.pump(ctx, w, watchdog)
	return err
}

type rangeNotSatisfiableError struct {
	size int64
}

func (e *rangeNotSatisfiableError) Error() string {
	return fmt.Sprintf("range not satisfiable for %d byte source", e.size)
}

func (r *Relay) openLocal(ctx context.Context, req *http.Request, name string) (*source, error) {
	info, err := r.storage.Stat(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, err
	}

	rng, err := parseRange(req.Header.Get("Range"), info.Size)
	if err != nil {
		return nil, &rangeNotSatisfiableError{size: info.Size}
	}

	offset, length, status := int64(0), int64(-1), http.StatusOK
	if rng != nil {
		offset, length, status = rng.start, rng.length, http.StatusPartialContent
	}

	obj, err := r.storage.Open(ctx, name, offset, length)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, err
	}

	src := &source{
		body:        obj.Body,
		status:      status,
		contentType: info.ContentType,
		length:      info.Size,
	}
	if rng != nil {
		src.length = rng.length
		src.contentRange = rng.contentRange(info.Size)
	}
	return src, nil
}

func (r *Relay) openRemote(ctx context.Context, req *http.Request, rawURL string) (*source, error) {
	out, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	out.Header.Set("User-Agent", r.cfg.UserAgent)
	if rg := req.Header.Get("Range"); rg != "" {
		out.Header.Set("Range", rg)
	}

	resp, err := r.client.Do(out)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		resp.Body.Close()
		return nil, &rangeNotSatisfiableError{size: contentRangeTotal(resp.Header.Get("Content-Range"))}
	default:
		resp.Body.Close()
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	return &source{
		body:         resp.Body,
		status:       resp.StatusCode,
		contentType:  resp.Header.Get("Content-Type"),
		length:       resp.ContentLength,
		contentRange: resp.Header.Get("Content-Range"),
	}, nil
}

// contentRangeTotal extracts the complete length from "bytes */N" or
// "bytes a-b/N", or -1.
func contentRangeTotal(header string) int64 {
	i := strings.LastIndex(header, "/")
	if i < 0 {
		return -1
	}
	total, err := strconv.ParseInt(header[i+1:], 10, 64)
	if err != nil {
		return -1
	}
	return total
}

// pump copies src to w with a fixed buffer, flushing after every chunk.
func (r *Relay) pump(ctx context.Context, w http.ResponseWriter, src io.Reader) (int64, error) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, r.cfg.BufferSize)

	var written int64
	for {
		if ctx.Err() != nil {
			cause := context.Cause(ctx)
			op := "write"
			if errors.Is(cause, ErrIdleTimeout) {
				op = "read"
			}
			return written, &StreamError{Op: op, Written: written, Err: cause}
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			m, writeErr := w.Write(buf[:n])
			written += int64(m)
			if writeErr != nil {
				return written, &StreamError{Op: "write", Written: written, Err: writeErr}
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, &StreamError{Op: "read", Written: written, Err: readErr}
		}
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError answers a failure to open a source. Bodies never name the
// underlying file or upstream URL.
func writeError(w http.ResponseWriter, err error) {
	status, msg := StatusFor(err)

	h := w.Header()
	cors.Apply(h)
	h.Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}

func writeRangeNotSatisfiable(w http.ResponseWriter, size int64) {
	h := w.Header()
	cors.Apply(h)
	h.Set("Accept-Ranges", "bytes")
	if size >= 0 {
		h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
	}
	w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
}

// StatusFor maps a relay error to the HTTP status and public message sent
// to the client.
func StatusFor(err error) (int, string) {
	var upstreamErr *UpstreamError
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "Audio file not found"
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway, "Upstream source unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
