package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalFileStorage implements the Storage interface for a music directory on
// the local filesystem.
type LocalFileStorage struct {
	musicDir string
}

// NewLocalFileStorage creates a new local file storage instance
func NewLocalFileStorage(musicDir string) (*LocalFileStorage, error) {
	abs, err := filepath.Abs(musicDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve music directory %s: %w", musicDir, err)
	}

	return &LocalFileStorage{musicDir: abs}, nil
}

// resolve maps an object name to a path inside the music directory.
func (s *LocalFileStorage) resolve(name string) (string, error) {
	full := filepath.Join(s.musicDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(s.musicDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return full, nil
}

// Stat returns the size and content type of a music file
func (s *LocalFileStorage) Stat(_ context.Context, name string) (*ObjectInfo, error) {
	fullPath, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, name)
	}

	return &ObjectInfo{
		Name:        name,
		Size:        info.Size(),
		ContentType: ContentTypeFor(name),
		ModTime:     info.ModTime(),
	}, nil
}

// Open returns a reader for the requested byte range of a music file
func (s *LocalFileStorage) Open(ctx context.Context, name string, offset, length int64) (*Object, error) {
	info, err := s.Stat(ctx, name)
	if err != nil {
		return nil, err
	}

	fullPath, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}

	if offset > 0 {
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to seek %s: %w", name, err)
		}
	}

	var body io.ReadCloser = file
	if length >= 0 {
		body = &limitedFile{Reader: io.LimitReader(file, length), Closer: file}
	}

	return &Object{ObjectInfo: *info, Body: body}, nil
}

// List returns every audio file under the music directory, as slash-separated names
func (s *LocalFileStorage) List(_ context.Context) ([]string, error) {
	var results []string

	err := filepath.WalkDir(s.musicDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsAudio(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(s.musicDir, p)
		if err != nil {
			return err
		}
		results = append(results, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read music directory: %w", err)
	}

	sort.Strings(results)
	return results, nil
}

// Close is a no-op for local storage
func (s *LocalFileStorage) Close() error {
	return nil
}

type limitedFile struct {
	io.Reader
	io.Closer
}
