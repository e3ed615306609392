package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored audio object.
type ObjectInfo struct {
	Name        string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Object is an open, possibly ranged, reader over a stored audio object.
type Object struct {
	ObjectInfo
	Body io.ReadCloser
}

// Storage defines the read side of the music library the relay serves
// local tracks from.
type Storage interface {
	// Stat returns metadata for the named object, or ErrNotFound.
	Stat(ctx context.Context, name string) (*ObjectInfo, error)

	// Open returns a reader starting at offset. A negative length reads to the end.
	Open(ctx context.Context, name string, offset, length int64) (*Object, error)

	// List returns the names of every audio object in the library.
	List(ctx context.Context) ([]string, error)

	Close() error
}

var contentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".flac": "audio/flac",
	".wav":  "audio/wav",
}

// ContentTypeFor returns the audio MIME type for a file name, or "" when the
// extension is not a known audio format.
func ContentTypeFor(name string) string {
	return contentTypes[strings.ToLower(path.Ext(name))]
}

// IsAudio reports whether name has a known audio extension.
func IsAudio(name string) bool {
	return ContentTypeFor(name) != ""
}
