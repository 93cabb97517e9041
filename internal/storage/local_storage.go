package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"lapor-chat/internal/config"
	"lapor-chat/internal/imtypes"
)

// LocalStorageService keeps blobs on the local filesystem under basePath.
type LocalStorageService struct {
	basePath  string
	keyPrefix string
	urls      blobURLBuilder
}

// NewLocalStorageService creates the base directory if needed.
func NewLocalStorageService(cfg config.StorageConfig, urls blobURLBuilder) (*LocalStorageService, error) {
	if err := os.MkdirAll(filepath.Join(cfg.LocalPath, cfg.KeyPrefix), 0o755); err != nil {
		return nil, fmt.Errorf("create local storage dir %q: %w", cfg.LocalPath, err)
	}
	return &LocalStorageService{
		basePath:  cfg.LocalPath,
		keyPrefix: cfg.KeyPrefix,
		urls:      urls,
	}, nil
}

// BasePath is the directory the static file route serves from.
func (s *LocalStorageService) BasePath() string {
	return s.basePath
}

// UploadFile writes the reader to a new file. A fileSize <= 0 means unknown.
func (s *LocalStorageService) UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*imtypes.FileInfo, error) {
	key := newObjectKey(s.keyPrefix, fileName, mimeType)
	dstPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("create file %q: %w", dstPath, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, reader)
	if err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("write file: %w", err)
	}
	if fileSize > 0 && written != fileSize {
		os.Remove(dstPath)
		return nil, fmt.Errorf("size mismatch: expected %d, wrote %d", fileSize, written)
	}

	return &imtypes.FileInfo{
		URL:      s.urls.url(key),
		Key:      key,
		Size:     written,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}

// DeleteFile removes the file stored under key.
func (s *LocalStorageService) DeleteFile(ctx context.Context, key string) error {
	if err := validateKey(s.keyPrefix, key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return ErrBlobNotFound
	}
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}
