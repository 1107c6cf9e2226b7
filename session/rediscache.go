package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "session:revoked:"

// RedisRevokedTokenCache shares revocations across server instances. Entries
// carry a TTL matching the credential's remaining lifetime, so Redis expires
// them on its own and Cleanup has nothing to do.
type RedisRevokedTokenCache struct {
	client *redis.Client
}

func NewRedisRevokedTokenCache(ctx context.Context, redisURL string) (*RedisRevokedTokenCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewRedisRevokedTokenCache] invalid redis url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "[NewRedisRevokedTokenCache] ping failed")
	}
	return &RedisRevokedTokenCache{client: client}, nil
}

func (c *RedisRevokedTokenCache) Add(jti string, exp time.Time) error {
	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil
	}
	err := c.client.Set(context.Background(), revokedKeyPrefix+jti, 1, ttl).Err()
	return errors.Wrap(err, "[RedisRevokedTokenCache Add]")
}

func (c *RedisRevokedTokenCache) IsRevoked(jti string) bool {
	// A transport error does not mark the credential revoked.
	n, err := c.client.Exists(context.Background(), revokedKeyPrefix+jti).Result()
	return err == nil && n > 0
}

func (c *RedisRevokedTokenCache) Cleanup() {}

func (c *RedisRevokedTokenCache) Close() error {
	return c.client.Close()
}
