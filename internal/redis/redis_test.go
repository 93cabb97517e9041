package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestRedisTokenBlacklist(t *testing.T) {
	ctx := context.Background()

	t.Run("should remember a revoked jti until expiry", func(t *testing.T) {
		req := require.New(t)
		srv, client := newTestClient(t)
		bl := NewRedisTokenBlacklist(client)

		req.NoError(bl.Add(ctx, "jti-1", time.Now().Add(time.Minute)))

		revoked, err := bl.IsBlacklisted(ctx, "jti-1")
		req.NoError(err)
		req.True(revoked)

		srv.FastForward(2 * time.Minute)
		revoked, err = bl.IsBlacklisted(ctx, "jti-1")
		req.NoError(err)
		req.False(revoked)
	})

	t.Run("should skip tokens that already expired", func(t *testing.T) {
		req := require.New(t)
		srv, client := newTestClient(t)
		bl := NewRedisTokenBlacklist(client)

		req.NoError(bl.Add(ctx, "jti-2", time.Now().Add(-time.Second)))

		req.False(srv.Exists(blacklistKeyPrefix + "jti-2"))
	})
}

func TestRedisUploadOwnership(t *testing.T) {
	ctx := context.Background()

	t.Run("should release only for the uploader", func(t *testing.T) {
		req := require.New(t)
		_, client := newTestClient(t)
		own := NewRedisUploadOwnership(client, time.Hour)
		req.NoError(own.Record(ctx, "uploads/a.png", "u1"))

		req.ErrorIs(own.Release(ctx, "uploads/a.png", "u2"), ErrUploadNotOwned)
		req.NoError(own.Release(ctx, "uploads/a.png", "u1"))
		req.ErrorIs(own.Release(ctx, "uploads/a.png", "u1"), ErrUploadNotOwned)
	})

	t.Run("should forget records after the ttl", func(t *testing.T) {
		req := require.New(t)
		srv, client := newTestClient(t)
		own := NewRedisUploadOwnership(client, time.Minute)
		req.NoError(own.Record(ctx, "uploads/b.png", "u1"))

		srv.FastForward(2 * time.Minute)

		req.ErrorIs(own.Release(ctx, "uploads/b.png", "u1"), ErrUploadNotOwned)
	})
}
