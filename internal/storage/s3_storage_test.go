package storage

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

func TestS3StorageService(t *testing.T) {
	ctx := context.Background()
	newService := func(endpoint string) *S3StorageService {
		client := s3.New(s3.Options{
			Region: "ap-southeast-3",
			Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{AccessKeyID: "AKIDTEST", SecretAccessKey: "secret"}, nil
			}),
			BaseEndpoint: aws.String(endpoint),
			UsePathStyle: true,
		})
		return &S3StorageService{
			client:     client,
			presigner:  s3.NewPresignClient(client),
			bucket:     "media",
			keyPrefix:  "chat/",
			presignTTL: 10 * time.Minute,
		}
	}

	t.Run("should presign a get for keys under the prefix", func(t *testing.T) {
		req := require.New(t)
		svc := newService("http://127.0.0.1:9000")

		raw, err := svc.Locate(ctx, "chat/a.jpg")

		req.NoError(err)
		u, err := url.Parse(raw)
		req.NoError(err)
		req.Equal("/media/chat/a.jpg", u.Path)
		req.Equal("600", u.Query().Get("X-Amz-Expires"))
		req.NotEmpty(u.Query().Get("X-Amz-Signature"))
		req.True(strings.HasPrefix(u.Query().Get("X-Amz-Credential"), "AKIDTEST/"))
	})

	t.Run("should reject keys outside the prefix without calling s3", func(t *testing.T) {
		store := &recordingObjectStore{}
		srv := httptest.NewServer(store)
		defer srv.Close()
		svc := newService(srv.URL)

		for _, key := range badBlobKeys {
			_, err := svc.Locate(ctx, key)
			require.ErrorIs(t, err, ErrInvalidKey, key)
			require.ErrorIs(t, svc.DeleteFile(ctx, key), ErrInvalidKey, key)
		}
		require.Empty(t, store.seen())
	})

	t.Run("should delete the object", func(t *testing.T) {
		req := require.New(t)
		store := &recordingObjectStore{}
		srv := httptest.NewServer(store)
		defer srv.Close()
		svc := newService(srv.URL)

		req.NoError(svc.DeleteFile(ctx, "chat/a.jpg"))

		req.Equal([]string{"DELETE /media/chat/a.jpg"}, store.seen())
	})
}
