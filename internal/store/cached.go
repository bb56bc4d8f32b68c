package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/feedmix/internal/model"
	"github.com/d60-Lab/feedmix/pkg/logger"
)

// Cached is a cache-aside decorator for account and item reads. Follow and
// reaction edges are viewer specific and always go to the inner store.
//
// Records are cached as JSON values, so every hit decodes a fresh copy and no
// two callers share an entity.
type Cached struct {
	inner Store
	cache *redis.Client
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

var _ Store = (*Cached)(nil)

// NewCached wraps inner with a Redis cache. ttl <= 0 keeps entries forever.
func NewCached(inner Store, cache *redis.Client, ttl time.Duration) *Cached {
	return &Cached{inner: inner, cache: cache, ttl: ttl}
}

func accountKey(id int64) string { return fmt.Sprintf("account:%d", id) }

func itemKey(id int64) string { return fmt.Sprintf("item:%d", id) }

func (c *Cached) GetAccount(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	if c.load(ctx, accountKey(id), &u) {
		return u, nil
	}
	u, err := c.inner.GetAccount(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	c.store(ctx, accountKey(id), u)
	return u, nil
}

func (c *Cached) GetItem(ctx context.Context, id int64) (model.Post, error) {
	var p model.Post
	if c.load(ctx, itemKey(id), &p) {
		return p, nil
	}
	p, err := c.inner.GetItem(ctx, id)
	if err != nil {
		return model.Post{}, err
	}
	c.store(ctx, itemKey(id), p)
	return p, nil
}

func (c *Cached) IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	return c.inner.IsFollowing(ctx, followerID, followeeID)
}

func (c *Cached) HasReacted(ctx context.Context, viewerID, itemID int64) (bool, error) {
	return c.inner.HasReacted(ctx, viewerID, itemID)
}

// Invalidate drops cached records, e.g. after a profile edit.
func (c *Cached) Invalidate(ctx context.Context, accountIDs, itemIDs []int64) error {
	keys := make([]string, 0, len(accountIDs)+len(itemIDs))
	for _, id := range accountIDs {
		keys = append(keys, accountKey(id))
	}
	for _, id := range itemIDs {
		keys = append(keys, itemKey(id))
	}
	if len(keys) == 0 {
		return nil
	}
	return c.cache.Del(ctx, keys...).Err()
}

func (c *Cached) load(ctx context.Context, key string, dst any) bool {
	data, err := c.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("cache read failed, falling back to store", zap.String("key", key), zap.Error(err))
		}
		c.misses.Add(1)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.Warn("cache entry undecodable", zap.String("key", key), zap.Error(err))
		c.misses.Add(1)
		return false
	}
	c.hits.Add(1)
	return true
}

func (c *Cached) store(ctx context.Context, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Counters reports cache hits and misses since the last reset.
func (c *Cached) Counters() CacheCounters {
	return CacheCounters{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// ResetCounters clears recorded hit/miss counters.
func (c *Cached) ResetCounters() {
	c.hits.Store(0)
	c.misses.Store(0)
}

// CacheCounters summarises cache effectiveness during a run.
type CacheCounters struct {
	Hits   int64
	Misses int64
}
