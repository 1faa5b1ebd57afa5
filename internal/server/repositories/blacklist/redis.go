package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "blacklist:jti:"

// minRedisTTL keeps entries for tokens that are already at their expiry
// from being written without a TTL.
const minRedisTTL = time.Second

// RedisStore keeps one key per revoked jti whose TTL ends when the token
// expires, so Redis discards entries by itself.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) key(jti string) string {
	return redisKeyPrefix + jti
}

func (s *RedisStore) Add(ctx context.Context, token *models.BlacklistedToken) error {
	ttl := token.ExpiresAt.Sub(s.now())
	if ttl < minRedisTTL {
		ttl = minRedisTTL
	}

	ok, err := s.client.SetNX(ctx, s.key(token.JTI), token.UserID, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if !ok {
		return common.ErrorAlreadyExists
	}
	return nil
}

func (s *RedisStore) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n > 0, nil
}
