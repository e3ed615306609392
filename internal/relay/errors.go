package relay

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a local source file does not exist.
	ErrNotFound = errors.New("audio source not found")

	// ErrIdleTimeout means the source produced no bytes within the idle timeout.
	ErrIdleTimeout = errors.New("audio source idle timeout")
)

// UpstreamError is a failure to obtain a remote source before any byte was
// sent to the client: connection refused, timeout or a non-2xx status.
type UpstreamError struct {
	// StatusCode is the upstream HTTP status, or 0 when no response arrived.
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream request failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StreamError is a failure after the response headers were sent. The
// response is terminated and the error is only logged.
type StreamError struct {
	// Op is "read" for source failures and "write" for client failures.
	Op      string
	Written int64
	Err     error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s failed after %d bytes: %v", e.Op, e.Written, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
