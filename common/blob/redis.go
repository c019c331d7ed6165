package blob

import (
	"context"
	"errors"

	rediswrap "github.com/snipline/cutout/common/redis"
)

// RedisStore keeps blob content in Redis. Content is stored without expiry;
// lifetime is managed by explicit Delete calls from the owning record flow.
type RedisStore struct {
	redis  *rediswrap.Client
	logger rediswrap.Logger
}

// NewRedisStore creates a Redis-backed blob store
func NewRedisStore(client *rediswrap.Client, logger rediswrap.Logger) *RedisStore {
	return &RedisStore{
		redis:  client,
		logger: logger,
	}
}

// Upload stores content and returns its address
func (s *RedisStore) Upload(ctx context.Context, data []byte, pathHint, contentType string) (Ref, error) {
	address := newAddress("redis", pathHint)

	if err := s.redis.SetWithExpiry(ctx, blobKey(address), data, 0); err != nil {
		return Ref{}, &OpError{Op: "upload", Err: err}
	}

	s.logger.Debug("blob stored", "backend", "redis", "size_bytes", len(data))
	return Ref{Address: address, Size: int64(len(data))}, nil
}

// Fetch retrieves content by address
func (s *RedisStore) Fetch(ctx context.Context, address string) ([]byte, error) {
	data, err := s.redis.GetBytes(ctx, blobKey(address))
	if errors.Is(err, rediswrap.ErrNotFound) {
		return nil, &OpError{Op: "fetch", Err: ErrNotFound}
	}
	if err != nil {
		return nil, &OpError{Op: "fetch", Err: err}
	}

	return data, nil
}

// Delete removes content by address
func (s *RedisStore) Delete(ctx context.Context, address string) error {
	if err := s.redis.Delete(ctx, blobKey(address)); err != nil {
		return &OpError{Op: "delete", Err: err}
	}

	return nil
}

// Type returns the backend type identifier
func (s *RedisStore) Type() string {
	return "redis"
}

func blobKey(address string) string {
	return "blob:" + address
}
