package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const uploadOwnerKeyPrefix = "upload:owner:"

// ErrUploadNotOwned is returned when the caller did not upload the blob or
// the ownership record has expired.
var ErrUploadNotOwned = errors.New("upload not owned by caller")

// UploadOwnership remembers who uploaded a blob so that only the uploader
// can issue the compensating delete.
type UploadOwnership interface {
	Record(ctx context.Context, key, userID string) error
	// Release checks ownership and forgets the record.
	Release(ctx context.Context, key, userID string) error
}

type redisUploadOwnership struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisUploadOwnership keeps ownership records for ttl.
func NewRedisUploadOwnership(client redis.Cmdable, ttl time.Duration) UploadOwnership {
	return &redisUploadOwnership{client: client, ttl: ttl}
}

func (r *redisUploadOwnership) Record(ctx context.Context, key, userID string) error {
	if err := r.client.Set(ctx, uploadOwnerKeyPrefix+key, userID, r.ttl).Err(); err != nil {
		return fmt.Errorf("record owner of %s: %w", key, err)
	}
	return nil
}

func (r *redisUploadOwnership) Release(ctx context.Context, key, userID string) error {
	owner, err := r.client.Get(ctx, uploadOwnerKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrUploadNotOwned
	}
	if err != nil {
		return fmt.Errorf("read owner of %s: %w", key, err)
	}
	if owner != userID {
		return ErrUploadNotOwned
	}
	if err := r.client.Del(ctx, uploadOwnerKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release owner of %s: %w", key, err)
	}
	return nil
}
