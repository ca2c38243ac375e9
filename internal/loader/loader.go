// Package loader fetches a sheet blob from storage and turns it into an
// immutable, identified snapshot.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	apperrors "github.com/arkilian/sheetblob/internal/errors"
	"github.com/arkilian/sheetblob/internal/schema"
	"github.com/arkilian/sheetblob/internal/storage"
	"github.com/arkilian/sheetblob/internal/table"
	"github.com/arkilian/sheetblob/pkg/types"
)

// Compression is the envelope a blob object is stored in.
type Compression string

const (
	CompressionNone   Compression = "none"
	CompressionSnappy Compression = "snappy"
)

// Valid reports whether c is a known compression.
func (c Compression) Valid() bool {
	switch c {
	case "", CompressionNone, CompressionSnappy:
		return true
	}
	return false
}

// Snapshot is one successfully loaded blob.
type Snapshot struct {
	ID          uuid.UUID
	Version     string
	Fingerprint string
	Source      string
	ETag        string
	Size        int
	LoadedAt    time.Time
	Store       *table.Store
}

// Options configures a Loader.
type Options struct {
	// Object is the blob's path inside the storage backend
	Object string

	// Compression of the stored object (default: none)
	Compression Compression

	// Build is passed to table.Build
	Build table.BuildOptions

	// Logger for load events (default: slog.Default)
	Logger *slog.Logger
}

// Loader loads one blob object against one catalog.
type Loader struct {
	store       storage.BlobStore
	catalog     *types.Catalog
	fingerprint string
	opts        Options
}

// New returns a loader reading opts.Object from store.
func New(store storage.BlobStore, catalog *types.Catalog, opts Options) *Loader {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Compression == "" {
		opts.Compression = CompressionNone
	}
	if opts.Build.Logger == nil {
		opts.Build.Logger = opts.Logger
	}
	return &Loader{
		store:       store,
		catalog:     catalog,
		fingerprint: schema.Fingerprint(catalog),
		opts:        opts,
	}
}

// Catalog returns the catalog blobs are decoded with.
func (l *Loader) Catalog() *types.Catalog {
	return l.catalog
}

// Storage returns the backend blobs are read from.
func (l *Loader) Storage() storage.BlobStore {
	return l.store
}

// Object returns the configured object path.
func (l *Loader) Object() string {
	return l.opts.Object
}

// Load fetches, decompresses and decodes the blob. It either returns a
// complete snapshot or an error.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	source := l.store.Describe() + "/" + l.opts.Object

	data, err := l.store.Get(ctx, l.opts.Object)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source, err)
	}

	snap, err := l.Decode(data, source)
	if err != nil {
		return nil, err
	}

	// The ETag is informational; a failed Stat does not fail the load.
	if info, err := l.store.Stat(ctx, l.opts.Object); err == nil {
		snap.ETag = info.ETag
	}

	l.opts.Logger.InfoContext(ctx, "Loaded sheet blob",
		"id", snap.ID,
		"version", snap.Version,
		"fingerprint", snap.Fingerprint,
		"source", source,
		"bytes", snap.Size,
		"records", snap.Store.RecordCount(),
		"duration", time.Since(start))
	return snap, nil
}

// Decode builds a snapshot from raw object bytes.
func (l *Loader) Decode(data []byte, source string) (*Snapshot, error) {
	raw, err := Decompress(data, l.opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	st, err := table.Build(raw, l.catalog, l.opts.Build)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}

	return &Snapshot{
		ID:          uuid.New(),
		Version:     st.Version(),
		Fingerprint: l.fingerprint,
		Source:      source,
		Size:        len(data),
		LoadedAt:    time.Now(),
		Store:       st,
	}, nil
}

// Decompress removes the storage envelope from data.
func Decompress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case "", CompressionNone:
		return data, nil
	case CompressionSnappy:
		out, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCategoryDecode, apperrors.CodeDecompressFailed,
				"snappy decode failed", err)
		}
		return out, nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown compression %q", c))
	}
}
