// Package storage provides the object storage backends blobs are read from.
package storage

import (
	"context"
	"time"
)

// ObjectInfo describes a stored blob object.
type ObjectInfo struct {
	Path    string
	Size    int64
	ETag    string
	ModTime time.Time
}

// BlobStore abstracts the object storage a sheet blob is fetched from.
// Implementations include S3 and the local filesystem.
type BlobStore interface {
	// Get reads the whole object at objectPath into memory.
	// Returns an OBJECT_NOT_FOUND storage error if the object does not exist.
	Get(ctx context.Context, objectPath string) ([]byte, error)

	// Stat returns size, ETag and modification time without reading the body.
	Stat(ctx context.Context, objectPath string) (ObjectInfo, error)

	// Exists checks if an object exists in storage.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// Upload copies a local file to objectPath. Used to publish a blob
	// produced by the external generator.
	Upload(ctx context.Context, localPath, objectPath string) error

	// ListObjects returns all object paths under the given prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)

	// Describe returns a human readable location for logs, such as
	// "s3://bucket" or a directory path.
	Describe() string
}
