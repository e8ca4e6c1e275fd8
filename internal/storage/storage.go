// Package storage contains the byte-storage abstraction used for uploaded
// files, with a local-disk implementation and an S3-compatible one (MinIO).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"fileshare/internal/config"
)

// UploadPrefix is the key prefix every uploaded file is stored under.
const UploadPrefix = "uploads/"

var (
	// ErrObjectNotFound is returned by Get and Stat when no object exists for a key.
	ErrObjectNotFound = errors.New("object not found")
	// ErrObjectExists is returned by Put when the key is already taken.
	ErrObjectExists = errors.New("object already exists")
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
type PutObjectOptions struct {
	Size        int64
	ContentType string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Storage is a key/value byte store. Methods use context and streaming readers.
type Storage interface {
	// Put creates an object under the given key. It never replaces existing
	// content: a taken key fails with ErrObjectExists.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get opens an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Stat returns an object's info without opening its content.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Delete removes an object by key. Deleting a missing key succeeds.
	Delete(ctx context.Context, key string) error
}

// KeyForFilename derives the storage key of an uploaded file. The filename
// must already be validated as a single path element.
func KeyForFilename(filename string) string {
	return UploadPrefix + filename
}

// New builds the backend selected by cfg.Backend.
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocal(cfg.LocalDir)
	case "minio":
		return NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
