package imtypes

import (
	"context"
	"io"
)

// StorageService is the blob store. It lives here so that storage and
// services do not import each other.
type StorageService interface {
	// UploadFile stores the reader's bytes under a freshly generated key.
	UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error)
	// DeleteFile removes the blob stored under key.
	DeleteFile(ctx context.Context, key string) error
}
