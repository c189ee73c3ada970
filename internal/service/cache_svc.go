package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// LeaderboardCacheTTL bounds staleness when an invalidation is missed.
const LeaderboardCacheTTL = 2 * time.Minute

// releaseScript deletes a lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// CacheService is a Redis cache-aside layer for leaderboards and the lease
// store for settlement locks. With no client every operation is a no-op and
// every lock is granted, which is correct for a single replica.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService connects to redisURL. If the URL is empty or the server is
// unreachable the service runs disabled.
func NewCacheService(redisURL string, log zerolog.Logger) *CacheService {
	log = log.With().Str("component", "redis").Logger()
	if redisURL == "" {
		log.Info().Msg("no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("invalid URL, caching disabled")
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("connection failed, caching disabled")
		return &CacheService{}
	}

	log.Info().Msg("connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// NewCacheServiceWithClient wraps an existing client.
func NewCacheServiceWithClient(rdb *redis.Client) *CacheService {
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetLeaderboard returns the cached leaderboard JSON, or nil on a miss.
func (c *CacheService) GetLeaderboard(ctx context.Context, campaignID int64) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, leaderboardKey(campaignID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

func (c *CacheService) SetLeaderboard(ctx context.Context, campaignID int64, data any) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, leaderboardKey(campaignID), b, LeaderboardCacheTTL).Err()
}

// InvalidateLeaderboard is called after refreshes and settlements.
func (c *CacheService) InvalidateLeaderboard(ctx context.Context, campaignID int64) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, leaderboardKey(campaignID)).Err()
}

// TryLock claims key for ttl with SET NX. The returned unlock only removes
// the key while it still carries this holder's token.
func (c *CacheService) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if c.rdb == nil {
		return func(context.Context) error { return nil }, true, nil
	}

	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	unlock := func(ctx context.Context) error {
		return releaseScript.Run(ctx, c.rdb, []string{lockKey(key)}, token).Err()
	}
	return unlock, true, nil
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func leaderboardKey(campaignID int64) string {
	return fmt.Sprintf("leaderboard:%d", campaignID)
}

func lockKey(key string) string {
	return fmt.Sprintf("lock:%s", key)
}
