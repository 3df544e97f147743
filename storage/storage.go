// Package storage hands uploaded issue photos off to object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"locallink-be/config"

	"github.com/google/uuid"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// URL is where a stored object can be fetched publicly.
	URL(key string) string
	Bucket() string
}

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image is too large")
)

// imageTypes maps accepted content types to the stored file extension.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// New builds the backend named by STORAGE_BACKEND. It returns nil when no
// backend is configured.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "gcs":
		client, err := NewGCSClient(ctx, cfg.GCS, cfg.PublicURL)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "minio":
		client, err := NewMinioClient(cfg.Minio, cfg.PublicURL)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Backend)
	}
}

// Uploader validates images and stores them under fresh keys.
type Uploader struct {
	backend  ObjectStorage
	maxBytes int64
}

func NewUploader(backend ObjectStorage, maxBytes int64) *Uploader {
	return &Uploader{backend: backend, maxBytes: maxBytes}
}

func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// Upload stores one image and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := imageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	if u.maxBytes > 0 && size > u.maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, size, u.maxBytes)
	}

	key := path.Join("issues", uuid.NewString()+ext)
	if err := u.backend.Put(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("store %s in %s: %w", key, u.backend.Bucket(), err)
	}
	return u.backend.URL(key), nil
}

// objectURL joins a base URL and key.
func objectURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
