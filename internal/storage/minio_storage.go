package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"lapor-chat/internal/config"
	"lapor-chat/internal/imtypes"
)

// MinIOStorageService stores blobs in a MinIO bucket.
type MinIOStorageService struct {
	client     *minio.Client
	bucket     string
	keyPrefix  string
	presignTTL time.Duration
	urls       blobURLBuilder
}

// NewMinIOStorageService connects to MinIO and makes sure the bucket exists.
func NewMinIOStorageService(ctx context.Context, cfg config.StorageConfig, urls blobURLBuilder, log *zap.SugaredLogger) (*MinIOStorageService, error) {
	mc := cfg.MinIO
	cl, err := minio.New(strings.TrimPrefix(strings.TrimPrefix(mc.Endpoint, "http://"), "https://"), &minio.Options{
		Creds:  credentials.NewStaticV4(mc.AccessKey, mc.SecretKey, ""),
		Secure: mc.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	s := &MinIOStorageService{
		client:     cl,
		bucket:     mc.Bucket,
		keyPrefix:  cfg.KeyPrefix,
		presignTTL: mc.PresignTTL,
		urls:       urls,
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	log.Infow("minio storage ready", "endpoint", mc.Endpoint, "bucket", mc.Bucket)
	return s, nil
}

func (s *MinIOStorageService) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *MinIOStorageService) UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*imtypes.FileInfo, error) {
	key := newObjectKey(s.keyPrefix, fileName, mimeType)
	size := fileSize
	if size <= 0 {
		size = -1
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{ContentType: mimeType})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}
	return &imtypes.FileInfo{
		URL:      s.urls.url(key),
		Key:      key,
		Size:     info.Size,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}

func (s *MinIOStorageService) DeleteFile(ctx context.Context, key string) error {
	if err := validateKey(s.keyPrefix, key); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// Locate returns a presigned GET URL for key.
func (s *MinIOStorageService) Locate(ctx context.Context, key string) (string, error) {
	if err := validateKey(s.keyPrefix, key); err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}
