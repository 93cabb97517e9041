package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"
)

// recordingObjectStore answers every request with 204 and keeps "METHOD path".
type recordingObjectStore struct {
	mu       sync.Mutex
	requests []string
}

func (s *recordingObjectStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *recordingObjectStore) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

var badBlobKeys = []string{"", "other/a.jpg", "chat/../../etc/passwd", "/chat/a.jpg", "../chat/a.jpg"}

func TestMinIOStorageService(t *testing.T) {
	ctx := context.Background()
	newService := func(t *testing.T, endpoint string) *MinIOStorageService {
		cl, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
			Region: "us-east-1",
		})
		require.NoError(t, err)
		return &MinIOStorageService{client: cl, bucket: "media", keyPrefix: "chat/", presignTTL: 15 * time.Minute}
	}

	t.Run("should presign a get for keys under the prefix", func(t *testing.T) {
		req := require.New(t)
		svc := newService(t, "127.0.0.1:9000")

		raw, err := svc.Locate(ctx, "chat/a.jpg")

		req.NoError(err)
		u, err := url.Parse(raw)
		req.NoError(err)
		req.Equal("/media/chat/a.jpg", u.Path)
		req.Equal("900", u.Query().Get("X-Amz-Expires"))
		req.NotEmpty(u.Query().Get("X-Amz-Signature"))
		req.True(strings.HasPrefix(u.Query().Get("X-Amz-Credential"), "minioadmin/"))
	})

	t.Run("should reject keys outside the prefix without calling minio", func(t *testing.T) {
		store := &recordingObjectStore{}
		srv := httptest.NewServer(store)
		defer srv.Close()
		svc := newService(t, strings.TrimPrefix(srv.URL, "http://"))

		for _, key := range badBlobKeys {
			_, err := svc.Locate(ctx, key)
			require.ErrorIs(t, err, ErrInvalidKey, key)
			require.ErrorIs(t, svc.DeleteFile(ctx, key), ErrInvalidKey, key)
		}
		require.Empty(t, store.seen())
	})

	t.Run("should remove the object", func(t *testing.T) {
		req := require.New(t)
		store := &recordingObjectStore{}
		srv := httptest.NewServer(store)
		defer srv.Close()
		svc := newService(t, strings.TrimPrefix(srv.URL, "http://"))

		req.NoError(svc.DeleteFile(ctx, "chat/a.jpg"))

		req.Equal([]string{"DELETE /media/chat/a.jpg"}, store.seen())
	})
}
