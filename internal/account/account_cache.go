package account

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	ProfileKeyPrefix = "accounts:profile:"
	ProfileCacheTTL  = 10 * time.Minute
)

func GetProfileKey(username string) string {
	return ProfileKeyPrefix + username
}

// ProfileCache keeps serialized profiles in redis. A nil client turns every
// call into a miss, so the cache is optional.
type ProfileCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewProfileCache(rdb *redis.Client, logger ...*zap.Logger) *ProfileCache {
	l := zap.L().Named("account.cache")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("account.cache")
	}
	return &ProfileCache{rdb: rdb, logger: l}
}

func (c *ProfileCache) Get(ctx context.Context, username string) (AccountResponse, bool) {
	if c == nil || c.rdb == nil {
		return AccountResponse{}, false
	}
	cached, err := c.rdb.Get(ctx, GetProfileKey(username)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("profile cache read failed", zap.String("username", username), zap.Error(err))
		}
		return AccountResponse{}, false
	}
	var resp AccountResponse
	if err := json.Unmarshal([]byte(cached), &resp); err != nil {
		return AccountResponse{}, false
	}
	return resp, true
}

func (c *ProfileCache) Set(ctx context.Context, resp AccountResponse) {
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, GetProfileKey(resp.Username), string(data), ProfileCacheTTL).Err(); err != nil {
		c.logger.Warn("profile cache write failed", zap.String("username", resp.Username), zap.Error(err))
	}
}

func (c *ProfileCache) Invalidate(ctx context.Context, username string) {
	if c == nil || c.rdb == nil {
		return
	}
	key := GetProfileKey(username)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.logger.Error("failed to invalidate profile cache", zap.String("key", key), zap.Error(err))
	}
}
