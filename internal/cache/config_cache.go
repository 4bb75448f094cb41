// Package cache holds the read-through cache for shop config snapshots,
// the payload every tablet fetches on login and after each catalog edit.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lalith-99/nextup/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConfigCache never returns errors: a broken cache is a miss.
//
// Every Invalidate bumps a per-shop version. A reader takes Version before
// it loads from the store and hands it back to Set, which drops the write if
// an invalidation happened in between. That keeps a snapshot read before a
// catalog edit from landing in the cache after the edit's Invalidate.
type ConfigCache interface {
	Get(ctx context.Context, shopID string) (*models.ShopConfig, bool)
	// Version is false when the cache can't be reached; skip Set then.
	Version(ctx context.Context, shopID string) (int64, bool)
	Set(ctx context.Context, cfg models.ShopConfig, version int64)
	Invalidate(ctx context.Context, shopID string)
}

// Noop is used when no Redis is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (*models.ShopConfig, bool) { return nil, false }
func (Noop) Version(context.Context, string) (int64, bool)          { return 0, false }
func (Noop) Set(context.Context, models.ShopConfig, int64)          {}
func (Noop) Invalidate(context.Context, string)                     {}

// errStale aborts a Set whose version was bumped.
var errStale = errors.New("config cache: snapshot is stale")

type RedisConfigCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisConfigCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisConfigCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisConfigCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Key is the Redis key for a shop's snapshot.
func Key(shopID string) string {
	return "nextup:config:" + shopID
}

// VersionKey holds the shop's invalidation counter. It has no TTL so the
// counter never resets under a reader.
func VersionKey(shopID string) string {
	return "nextup:config-version:" + shopID
}

func (c *RedisConfigCache) Get(ctx context.Context, shopID string) (*models.ShopConfig, bool) {
	raw, err := c.rdb.Get(ctx, Key(shopID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("config cache get failed", zap.String("shop_id", shopID), zap.Error(err))
		}
		return nil, false
	}

	var cfg models.ShopConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		c.logger.Warn("config cache entry corrupt", zap.String("shop_id", shopID), zap.Error(err))
		return nil, false
	}
	return &cfg, true
}

func (c *RedisConfigCache) Version(ctx context.Context, shopID string) (int64, bool) {
	v, err := c.rdb.Get(ctx, VersionKey(shopID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.logger.Warn("config cache version failed", zap.String("shop_id", shopID), zap.Error(err))
		return 0, false
	}
	return v, true
}

// Set stores cfg only while the shop's version still equals version. The
// check and the write run under WATCH, so a concurrent Invalidate either
// lands first and the write is dropped, or lands after and deletes it.
func (c *RedisConfigCache) Set(ctx context.Context, cfg models.ShopConfig, version int64) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}

	vkey := VersionKey(cfg.ShopID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, Key(cfg.ShopID), raw, c.ttl)
			return nil
		})
		return err
	}, vkey)

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("config cache set skipped, catalog changed", zap.String("shop_id", cfg.ShopID))
	default:
		c.logger.Warn("config cache set failed", zap.String("shop_id", cfg.ShopID), zap.Error(err))
	}
}

// Invalidate bumps the version and drops the snapshot in one transaction.
func (c *RedisConfigCache) Invalidate(ctx context.Context, shopID string) {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, VersionKey(shopID))
		pipe.Del(ctx, Key(shopID))
		return nil
	})
	if err != nil {
		c.logger.Warn("config cache invalidate failed", zap.String("shop_id", shopID), zap.Error(err))
	}
}
