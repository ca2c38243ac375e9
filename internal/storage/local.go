package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	apperrors "github.com/arkilian/sheetblob/internal/errors"
)

// LocalStorage implements BlobStore using the local filesystem.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local filesystem storage rooted at basePath.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Get reads an object from local storage.
func (l *LocalStorage) Get(ctx context.Context, objectPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.FullPath(objectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(objectPath, err)
		}
		return nil, apperrors.NewStorageError(apperrors.CodeDownloadFailed,
			fmt.Sprintf("failed to read %s", objectPath), err)
	}
	return data, nil
}

// Stat returns object metadata. The ETag is the hex MD5 of the content, the
// same form S3 uses for single-part objects.
func (l *LocalStorage) Stat(ctx context.Context, objectPath string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	fullPath := l.FullPath(objectPath)
	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ObjectInfo{}, notFound(objectPath, err)
		}
		return ObjectInfo{}, apperrors.NewStorageError(apperrors.CodeDownloadFailed,
			fmt.Sprintf("failed to open %s", objectPath), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ObjectInfo{}, err
	}

	hash := md5.New()
	if _, err := io.Copy(hash, f); err != nil {
		return ObjectInfo{}, apperrors.NewStorageError(apperrors.CodeDownloadFailed,
			fmt.Sprintf("failed to hash %s", objectPath), err)
	}

	return ObjectInfo{
		Path:    objectPath,
		Size:    info.Size(),
		ETag:    hex.EncodeToString(hash.Sum(nil)),
		ModTime: info.ModTime(),
	}, nil
}

// Exists checks if an object exists in local storage.
func (l *LocalStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(l.FullPath(objectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Upload copies a local file into storage. The object is written to a
// temporary file and renamed so readers and watchers never see a partial blob.
func (l *LocalStorage) Upload(ctx context.Context, localPath, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	destPath := l.FullPath(objectPath)
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to copy %s: %w", localPath, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, destPath)
}

// ListObjects returns all object paths under the given prefix.
func (l *LocalStorage) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	searchDir := l.FullPath(prefix)
	var objects []string

	err := filepath.Walk(searchDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil // prefix doesn't exist, return empty list
			}
			return err
		}
		if !info.IsDir() {
			rel, err := filepath.Rel(l.basePath, path)
			if err != nil {
				return err
			}
			objects = append(objects, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return objects, nil
}

// Describe returns the base directory.
func (l *LocalStorage) Describe() string {
	return l.basePath
}

// FullPath returns the filesystem path for an object. The hot reloader
// watches this path.
func (l *LocalStorage) FullPath(objectPath string) string {
	return filepath.Join(l.basePath, objectPath)
}

func notFound(objectPath string, cause error) error {
	return apperrors.NewStorageError(apperrors.CodeObjectNotFound,
		fmt.Sprintf("object %s not found", objectPath), cause).
		WithDetails(map[string]interface{}{"object": objectPath})
}
