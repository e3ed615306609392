package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStorage implements the Storage interface for Google Cloud Storage
type GCSStorage struct {
	client       *storage.Client
	bucket       string
	objectPrefix string
}

// NewGCSStorage creates a new GCSStorage instance
func NewGCSStorage(ctx context.Context, bucketName, objectPrefix, credentialsFile string, opts ...option.ClientOption) (*GCSStorage, error) {
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	// Falls back to application default credentials
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{
		client:       client,
		bucket:       bucketName,
		objectPrefix: strings.Trim(objectPrefix, "/"),
	}, nil
}

// objectName maps a track name to its full object name in the bucket
func (s *GCSStorage) objectName(name string) string {
	name = strings.TrimPrefix(name, "/")
	if s.objectPrefix != "" {
		return s.objectPrefix + "/" + name
	}
	return name
}

// trackName is the inverse of objectName
func (s *GCSStorage) trackName(objectName string) string {
	if s.objectPrefix != "" {
		return strings.TrimPrefix(objectName, s.objectPrefix+"/")
	}
	return objectName
}

func mapGCSError(name string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}

// Stat returns the object's size and content type
func (s *GCSStorage) Stat(ctx context.Context, name string) (*ObjectInfo, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(s.objectName(name)).Attrs(ctx)
	if err != nil {
		return nil, mapGCSError(name, fmt.Errorf("failed to read object attributes: %w", err))
	}

	contentType := attrs.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = ContentTypeFor(name)
	}

	return &ObjectInfo{
		Name:        name,
		Size:        attrs.Size,
		ContentType: contentType,
		ModTime:     attrs.Updated,
	}, nil
}

// Open returns a range reader over the object
func (s *GCSStorage) Open(ctx context.Context, name string, offset, length int64) (*Object, error) {
	info, err := s.Stat(ctx, name)
	if err != nil {
		return nil, err
	}

	reader, err := s.client.Bucket(s.bucket).Object(s.objectName(name)).NewRangeReader(ctx, offset, length)
	if err != nil {
		return nil, mapGCSError(name, fmt.Errorf("failed to open object: %w", err))
	}

	return &Object{ObjectInfo: *info, Body: reader}, nil
}

// List returns every audio object under the configured prefix
func (s *GCSStorage) List(ctx context.Context) ([]string, error) {
	prefix := ""
	if s.objectPrefix != "" {
		prefix = s.objectPrefix + "/"
	}

	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{
		Prefix: prefix,
	})

	var results []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error listing objects: %w", err)
		}

		// Skip directories (objects ending with /)
		if strings.HasSuffix(attrs.Name, "/") || !IsAudio(attrs.Name) {
			continue
		}

		results = append(results, s.trackName(attrs.Name))
	}

	sort.Strings(results)
	return results, nil
}

// Close closes the GCS client
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
