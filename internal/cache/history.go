// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// history.go provides a Valkey-backed cache for the rendered history text.
// Rendering walks the whole gallery document and may call the summarizer,
// so repeated prompt queries within the TTL reuse the cached text. Every
// gallery mutation invalidates the entry.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// historyKey is the single Valkey key holding the rendered history.
	historyKey = "history:rendered"

	// DefaultHistoryTTL bounds staleness if an invalidation is ever missed.
	DefaultHistoryTTL = 5 * time.Minute
)

// HistoryCache caches the rendered history text in Valkey. All methods are
// best-effort: a cache error degrades to a miss, never a failure.
type HistoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewHistoryCache creates a history cache backed by the given Valkey client.
func NewHistoryCache(client *redis.Client, ttl time.Duration) *HistoryCache {
	if ttl == 0 {
		ttl = DefaultHistoryTTL
	}
	return &HistoryCache{client: client, ttl: ttl}
}

// Get retrieves the cached rendered history. The second return is false on miss.
func (hc *HistoryCache) Get(ctx context.Context) (string, bool) {
	val, err := hc.client.Get(ctx, historyKey).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		slog.Warn("history cache get error", "error", err)
		return "", false
	}
	slog.Debug("history cache hit")
	return val, true
}

// Set stores the rendered history with the configured TTL.
func (hc *HistoryCache) Set(ctx context.Context, text string) {
	if err := hc.client.Set(ctx, historyKey, text, hc.ttl).Err(); err != nil {
		slog.Warn("history cache set error", "error", err)
	}
}

// Invalidate removes the cached history. Called after every gallery mutation.
func (hc *HistoryCache) Invalidate(ctx context.Context) {
	if err := hc.client.Del(ctx, historyKey).Err(); err != nil {
		slog.Warn("history cache invalidate error", "error", err)
	}
	slog.Debug("history cache invalidated")
}
