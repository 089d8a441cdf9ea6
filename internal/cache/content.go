// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// content.go provides a Valkey-backed cache of raw content-store query
// results. Entries are keyed by a hash of the query text and parameters, so
// identical queries from different pages share one entry.
package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

const (
	// contentKeyPrefix is the Valkey key prefix for cached query results.
	contentKeyPrefix = "content:"

	// DefaultContentTTL is how long a query result stays cached.
	DefaultContentTTL = 5 * time.Minute
)

// ContentCache manages query result caching in Valkey.
type ContentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewContentCache creates a content cache backed by the given Valkey client.
func NewContentCache(client *redis.Client, ttl time.Duration) *ContentCache {
	if ttl == 0 {
		ttl = DefaultContentTTL
	}
	return &ContentCache{client: client, ttl: ttl}
}

// Get retrieves a cached result. Errors are logged and reported as a miss.
func (cc *ContentCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := cc.client.Get(ctx, contentKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("content cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("content cache hit", "key", key)
	return val, true
}

// Set stores a result with the configured TTL.
func (cc *ContentCache) Set(ctx context.Context, key string, data []byte) {
	if err := cc.client.Set(ctx, contentKeyPrefix+key, data, cc.ttl).Err(); err != nil {
		slog.Warn("content cache set error", "key", key, "error", err)
	}
}

// InvalidateAll removes every cached result by scanning for the prefix.
// Used when the content store reports a change, since any query could be
// affected. Returns the number of deleted entries.
func (cc *ContentCache) InvalidateAll(ctx context.Context) int {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := cc.client.Scan(ctx, cursor, contentKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("content cache scan error", "error", err)
			return deleted
		}
		if len(keys) > 0 {
			if err := cc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("content cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("content cache fully cleared", "deleted", deleted)
	}
	return deleted
}

// QueryKey returns the cache key for a query. Parameter maps are encoded
// with sorted keys, so the key does not depend on map iteration order.
func QueryKey(text string, params map[string]any) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(text))
	h.Write([]byte{0})
	if len(params) > 0 {
		enc, err := json.Marshal(params)
		if err == nil {
			h.Write(enc)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
