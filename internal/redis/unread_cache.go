package redis

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
	"github.com/biscuits-internet-project/bip-engage/internal/metrics"
)

// UnreadCache serves per-user unread notification counts from Redis with a
// short TTL. The unread endpoint is a polling contract; a few seconds of
// staleness is acceptable, so a cache miss recomputes from Postgres under
// singleflight and the dispatcher invalidates on change.
type UnreadCache struct {
	rdb     *goredis.Client
	repo    domain.NotificationRepository
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.EngagementMetrics
}

func NewUnreadCache(rdb *goredis.Client, repo domain.NotificationRepository, ttl time.Duration, m *metrics.EngagementMetrics) *UnreadCache {
	return &UnreadCache{rdb: rdb, repo: repo, ttl: ttl, metrics: m}
}

// Count returns the user's unread count, cached. Redis failures fall back
// to Postgres so the read path degrades instead of erroring.
func (c *UnreadCache) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	key := unreadKey(userID)

	cached, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		if count, parseErr := strconv.Atoi(cached); parseErr == nil {
			c.metrics.UnreadCacheLookups.WithLabelValues("hit").Inc()
			return count, nil
		}
	} else if err != goredis.Nil {
		slog.Warn("Unread cache read failed, falling back to database", "user_id", userID.String(), "error", err)
	}

	c.metrics.UnreadCacheLookups.WithLabelValues("miss").Inc()

	// Collapse concurrent recomputes for the same user.
	result, err, _ := c.group.Do(key, func() (any, error) {
		count, err := c.repo.CountUnread(ctx, userID)
		if err != nil {
			return 0, err
		}

		if err := c.rdb.Set(ctx, key, strconv.Itoa(count), c.ttl).Err(); err != nil {
			slog.Warn("Failed to cache unread count", "user_id", userID.String(), "error", err)
		}
		return count, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

// InvalidateUnread drops the cached count after the user's notification set
// changed. Best-effort: a failed delete only extends staleness to the TTL.
func (c *UnreadCache) InvalidateUnread(ctx context.Context, userID uuid.UUID) {
	if err := c.rdb.Del(ctx, unreadKey(userID)).Err(); err != nil {
		slog.Warn("Failed to invalidate unread cache", "user_id", userID.String(), "error", err)
	}
}

func unreadKey(userID uuid.UUID) string {
	return "unread:" + userID.String()
}
