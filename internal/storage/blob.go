package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lapor-chat/internal/config"
	"lapor-chat/internal/imtypes"
)

// ErrBlobNotFound is returned when deleting a key that holds no blob.
var ErrBlobNotFound = errors.New("blob not found")

// ErrInvalidKey is returned for keys outside the upload namespace.
var ErrInvalidKey = errors.New("invalid blob key")

// BlobLocator is implemented by backends whose objects are fetched from a
// signed URL rather than served by the API server itself.
type BlobLocator interface {
	Locate(ctx context.Context, key string) (string, error)
}

// BlobURLPrefix is the API route under which blob URLs are published.
const BlobURLPrefix = "/blobs/"

// NewStorageService builds the blob backend selected by cfg.Type.
// publicURL is the externally reachable API server origin.
func NewStorageService(ctx context.Context, cfg config.StorageConfig, publicURL string, log *zap.SugaredLogger) (imtypes.StorageService, error) {
	urls := blobURLBuilder{base: strings.TrimSuffix(publicURL, "/") + BlobURLPrefix}
	var (
		svc imtypes.StorageService
		err error
	)
	switch cfg.Type {
	case "local":
		svc, err = NewLocalStorageService(cfg, urls)
	case "minio":
		svc, err = NewMinIOStorageService(ctx, cfg, urls, log)
	case "s3":
		svc, err = NewS3StorageService(ctx, cfg, urls, log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return svc, nil
}

type blobURLBuilder struct {
	base string
}

func (b blobURLBuilder) url(key string) string {
	return b.base + key
}

// newObjectKey returns prefix + uuid + extension. The extension comes from
// the file name, or from the MIME type when the name has none.
func newObjectKey(prefix, fileName, mimeType string) string {
	ext := filepath.Ext(fileName)
	if ext == "" && mimeType != "" {
		if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return prefix + uuid.NewString() + strings.ToLower(ext)
}

// validateKey rejects keys that escape prefix.
func validateKey(prefix, key string) error {
	if key == "" || !strings.HasPrefix(key, prefix) || !filepath.IsLocal(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
