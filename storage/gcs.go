package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var _ io.Closer = (*GCSStorage)(nil)

// GCSStorage implements Storage for Google Cloud Storage
type GCSStorage struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSStorage creates a read-only GCS storage instance using application
// default credentials
func NewGCSStorage(ctx context.Context, cfg StorageConfig) (*GCSStorage, error) {
	client, err := gcs.NewClient(ctx, option.WithScopes(gcs.ScopeReadOnly))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStorage{
		client: client,
		bucket: cfg.GCSBucket,
		prefix: keyPrefix(cfg.Root),
	}, nil
}

// EnsureDir is a no-op; GCS has no directories
func (s *GCSStorage) EnsureDir(ctx context.Context, dir string) error {
	return nil
}

// List returns object names directly under dir
func (s *GCSStorage) List(ctx context.Context, dir string) ([]string, error) {
	prefix := dirPrefix(s.prefix, dir)

	it := s.client.Bucket(s.bucket).Objects(ctx, &gcs.Query{
		Prefix:    prefix,
		Delimiter: "/",
	})

	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list GCS objects: %w", err)
		}
		// Synthetic "directory" entries only carry Prefix
		if attrs.Name == "" {
			continue
		}
		name := strings.TrimPrefix(attrs.Name, prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Download retrieves a file from GCS
func (s *GCSStorage) Download(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	key := s.prefix + strings.TrimPrefix(storagePath, "/")
	reader, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, storagePath)
		}
		return nil, fmt.Errorf("failed to download from GCS: %w", err)
	}
	return reader, nil
}

// Location returns the bucket URI
func (s *GCSStorage) Location() string {
	return "gs://" + s.bucket + "/" + s.prefix
}

// Close releases the underlying client
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
