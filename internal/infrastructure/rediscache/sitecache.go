// Package rediscache backs the site snapshot cache and the per-site run
// locks with Redis. The cache is an optimization only: configuration stays
// the source of truth and a Redis outage degrades to direct reads, never to
// wrong answers.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
)

const (
	siteSnapshotKey = "deals:sites:snapshot"
	siteSnapshotTTL = 15 * time.Minute
)

// SiteCache implements SiteSource over a static configuration snapshot,
// cached in Redis with an externally triggered invalidation.
type SiteCache struct {
	client *redis.Client
	sites  []domain.Site
	logger *slog.Logger
}

var _ ports.SiteSource = (*SiteCache)(nil)

// NewSiteCache wires the configured sites and an optional Redis client.
func NewSiteCache(client *redis.Client, sites []domain.Site, logger *slog.Logger) *SiteCache {
	return &SiteCache{client: client, sites: sites, logger: logger}
}

// Sites returns the site snapshot, serving from Redis when warm and
// repopulating it otherwise.
func (c *SiteCache) Sites(ctx context.Context) ([]domain.Site, error) {
	if c.client == nil {
		return c.sites, nil
	}

	raw, err := c.client.Get(ctx, siteSnapshotKey).Result()
	if err == nil {
		var cached []domain.Site
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return cached, nil
		}
		// Unreadable snapshot: drop it and fall through to the source.
		_ = c.client.Del(ctx, siteSnapshotKey).Err()
	} else if !errors.Is(err, redis.Nil) {
		c.warn("site cache read failed", "error", err)
		return c.sites, nil
	}

	if encoded, jsonErr := json.Marshal(c.sites); jsonErr == nil {
		if setErr := c.client.Set(ctx, siteSnapshotKey, encoded, siteSnapshotTTL).Err(); setErr != nil {
			c.warn("site cache write failed", "error", setErr)
		}
	}
	return c.sites, nil
}

// Invalidate drops the cached snapshot so the next read repopulates it.
func (c *SiteCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, siteSnapshotKey).Err(); err != nil {
		return fmt.Errorf("invalidate site cache: %w", err)
	}
	return nil
}

func (c *SiteCache) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
