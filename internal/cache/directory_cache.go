// Package cache holds the optional Redis layer in front of directory reads.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/unilink/backend/internal/models"
)

// DirectoryCache caches denormalized directory entries keyed by user id.
// A nil *DirectoryCache is a no-op, so callers never branch on configuration.
type DirectoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDirectoryCache(addr, password string, ttl time.Duration) *DirectoryCache {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis unreachable, directory cache disabled")
		return nil
	}
	log.Info().Str("addr", addr).Msg("redis connected (directory cache)")
	return &DirectoryCache{client: client, ttl: ttl}
}

func (c *DirectoryCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func key(userID string) string { return "directory:entry:" + userID }

func (c *DirectoryCache) Get(ctx context.Context, userID string) (*models.DirectoryEntry, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var entry models.DirectoryEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

func (c *DirectoryCache) Set(ctx context.Context, entry models.DirectoryEntry) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	// Best effort; a failed write just means a re-fetch later.
	_ = c.client.Set(ctx, key(entry.UserID), raw, c.ttl).Err()
}

// Invalidate drops the cached entry after a profile or academics write.
func (c *DirectoryCache) Invalidate(ctx context.Context, userID string) {
	if c == nil {
		return
	}
	_ = c.client.Del(ctx, key(userID)).Err()
}
