package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"visaletter-backend/config"
)

// ErrNotFound is returned when a storage path does not exist
var ErrNotFound = errors.New("storage: not found")

// Storage is the read side of the policy asset tree. Paths are slash
// separated and relative to the storage root ("rules/master_rules.txt").
type Storage interface {
	// EnsureDir makes sure a directory exists; object stores treat it as a no-op
	EnsureDir(ctx context.Context, dir string) error

	// List returns the file names directly under dir in lexicographic order.
	// A missing directory yields an empty list.
	List(ctx context.Context, dir string) ([]string, error)

	// Download retrieves a file by storage path
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Location describes the root for diagnostics
	Location() string
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = config.StorageLocal
	StorageTypeS3    StorageType = config.StorageS3
	StorageTypeGCS   StorageType = config.StorageGCS
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	Root         string // local directory, or key prefix for object stores
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
	GCSBucket    string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(ctx context.Context, cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.Root)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("S3 bucket is required for S3 storage")
		}
		return NewS3Storage(ctx, cfg)
	case StorageTypeGCS:
		if cfg.GCSBucket == "" {
			return nil, errors.New("GCS bucket is required for GCS storage")
		}
		return NewGCSStorage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// NewStorageFromConfig creates a storage instance from the asset configuration
func NewStorageFromConfig(ctx context.Context, cfg config.AssetConfig) (Storage, error) {
	return NewStorage(ctx, StorageConfig{
		Type:         StorageType(cfg.StorageType),
		Root:         cfg.Root,
		S3Bucket:     cfg.S3Bucket,
		S3Region:     cfg.S3Region,
		AWSAccessKey: cfg.AWSAccessKey,
		AWSSecretKey: cfg.AWSSecretKey,
		GCSBucket:    cfg.GCSBucket,
	})
}

// Close releases the backend's client when it holds one (GCS); other
// backends are a no-op
func Close(s Storage) error {
	if closer, ok := s.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// ReadText downloads a file and returns its content as a string
func ReadText(ctx context.Context, s Storage, storagePath string) (string, error) {
	rc, err := s.Download(ctx, storagePath)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", storagePath, err)
	}
	return string(data), nil
}

// keyPrefix turns a configured root into an object key prefix ("" or "policy/")
func keyPrefix(root string) string {
	root = strings.TrimSpace(root)
	if root == "" {
		return ""
	}
	cleaned := strings.Trim(path.Clean("/"+strings.ReplaceAll(root, "\\", "/")), "/")
	if cleaned == "" || cleaned == "." {
		return ""
	}
	return cleaned + "/"
}

// dirPrefix returns the key prefix listing the direct children of dir
func dirPrefix(prefix, dir string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return prefix
	}
	return prefix + dir + "/"
}
