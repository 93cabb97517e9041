package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"lapor-chat/internal/config"
)

func TestLocalStorageService(t *testing.T) {
	ctx := context.Background()
	newService := func(t *testing.T) *LocalStorageService {
		svc, err := NewLocalStorageService(config.StorageConfig{
			LocalPath: t.TempDir(),
			KeyPrefix: "uploads/",
		}, blobURLBuilder{base: "http://api.test" + BlobURLPrefix})
		require.NoError(t, err)
		return svc
	}

	t.Run("should store under a fresh key and publish a url", func(t *testing.T) {
		req := require.New(t)
		svc := newService(t)

		info, err := svc.UploadFile(ctx, strings.NewReader("jpegbytes"), 9, "photo.JPG", "image/jpeg")

		req.NoError(err)
		req.True(strings.HasPrefix(info.Key, "uploads/"))
		req.True(strings.HasSuffix(info.Key, ".jpg"))
		req.Equal("http://api.test/blobs/"+info.Key, info.URL)
		body, err := os.ReadFile(filepath.Join(svc.BasePath(), info.Key))
		req.NoError(err)
		req.Equal("jpegbytes", string(body))

		other, err := svc.UploadFile(ctx, strings.NewReader("jpegbytes"), 9, "photo.JPG", "image/jpeg")
		req.NoError(err)
		req.NotEqual(info.Key, other.Key)
	})

	t.Run("should derive the extension from the mime type", func(t *testing.T) {
		req := require.New(t)
		svc := newService(t)

		info, err := svc.UploadFile(ctx, strings.NewReader("x"), 0, "", "image/png")

		req.NoError(err)
		req.Equal(".png", filepath.Ext(info.Key))
		req.EqualValues(1, info.Size)
	})

	t.Run("should reject a size mismatch", func(t *testing.T) {
		req := require.New(t)
		svc := newService(t)

		_, err := svc.UploadFile(ctx, strings.NewReader("abc"), 10, "a.png", "image/png")

		req.Error(err)
	})

	t.Run("should delete once and refuse foreign keys", func(t *testing.T) {
		req := require.New(t)
		svc := newService(t)
		info, err := svc.UploadFile(ctx, strings.NewReader("x"), 1, "a.png", "image/png")
		req.NoError(err)

		req.NoError(svc.DeleteFile(ctx, info.Key))
		req.ErrorIs(svc.DeleteFile(ctx, info.Key), ErrBlobNotFound)
		req.ErrorIs(svc.DeleteFile(ctx, "uploads/../../etc/passwd"), ErrInvalidKey)
		req.ErrorIs(svc.DeleteFile(ctx, "config.yaml"), ErrInvalidKey)
	})
}
