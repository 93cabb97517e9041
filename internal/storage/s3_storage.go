package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"lapor-chat/internal/config"
	"lapor-chat/internal/imtypes"
)

// S3StorageService stores blobs in an AWS S3 bucket.
type S3StorageService struct {
	client     *s3.Client
	uploader   *manager.Uploader
	presigner  *s3.PresignClient
	bucket     string
	keyPrefix  string
	presignTTL time.Duration
	urls       blobURLBuilder
}

// NewS3StorageService loads AWS credentials from the default chain.
func NewS3StorageService(ctx context.Context, cfg config.StorageConfig, urls blobURLBuilder, log *zap.SugaredLogger) (*S3StorageService, error) {
	awsConf, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.S3.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsConf)
	log.Infow("s3 storage ready", "bucket", cfg.S3.BucketName, "region", cfg.S3.Region)
	return &S3StorageService{
		client:     client,
		uploader:   manager.NewUploader(client),
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.S3.BucketName,
		keyPrefix:  cfg.KeyPrefix,
		presignTTL: cfg.S3.PresignTTL,
		urls:       urls,
	}, nil
}

func (s *S3StorageService) UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*imtypes.FileInfo, error) {
	key := newObjectKey(s.keyPrefix, fileName, mimeType)
	counter := &countingReader{r: reader}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        counter,
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	return &imtypes.FileInfo{
		URL:      s.urls.url(key),
		Key:      key,
		Size:     counter.n,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}

func (s *S3StorageService) DeleteFile(ctx context.Context, key string) error {
	if err := validateKey(s.keyPrefix, key); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Locate returns a presigned GET URL for key.
func (s *S3StorageService) Locate(ctx context.Context, key string) (string, error) {
	if err := validateKey(s.keyPrefix, key); err != nil {
		return "", err
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
