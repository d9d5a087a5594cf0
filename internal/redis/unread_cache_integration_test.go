package redis

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
	"github.com/biscuits-internet-project/bip-engage/internal/metrics"
)

var (
	testRedisURL   string
	redisContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	// Parse flags to check for -short
	flag.Parse()

	// Skip container setup if running in short mode
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	redisContainer, err = tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis endpoint: %v\n", err)
		os.Exit(1)
	}
	testRedisURL = "redis://" + endpoint

	code := m.Run()

	if err := redisContainer.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
	}
	os.Exit(code)
}

func setupTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, testRedisURL)
	require.NoError(t, err)

	// Flush all keys before each test
	require.NoError(t, client.FlushAll(ctx).Err())

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

// countingNotificationRepo serves a fixed unread count and tracks how often
// the database path actually runs.
type countingNotificationRepo struct {
	count   int
	err     error
	calls   atomic.Int64
	release chan struct{} // when non-nil, CountUnread blocks until closed
}

func (r *countingNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	r.calls.Add(1)
	if r.release != nil {
		<-r.release
	}
	return r.count, r.err
}

func (r *countingNotificationRepo) Create(ctx context.Context, recipientID, actorID, postID uuid.UUID, typ domain.NotificationType) (*domain.Notification, error) {
	panic("not implemented")
}

func (r *countingNotificationRepo) List(ctx context.Context, userID uuid.UUID, filter domain.NotificationFilter) ([]*domain.Notification, error) {
	panic("not implemented")
}

func (r *countingNotificationRepo) MarkRead(ctx context.Context, userID uuid.UUID, notificationIDs []uuid.UUID) (int, error) {
	panic("not implemented")
}

func (r *countingNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	panic("not implemented")
}

func newTestUnreadCache(rdb *goredis.Client, repo domain.NotificationRepository, ttl time.Duration) *UnreadCache {
	return NewUnreadCache(rdb, repo, ttl, metrics.NewEngagementMetrics(metrics.NewRegistry()))
}

func TestUnreadCache_MissThenHit(t *testing.T) {
	rdb := setupTestClient(t)
	ctx := context.Background()

	repo := &countingNotificationRepo{count: 7}
	cache := newTestUnreadCache(rdb, repo, time.Minute)
	userID := uuid.New()

	count, err := cache.Count(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.EqualValues(t, 1, repo.calls.Load())

	// Second read is served from Redis.
	count, err = cache.Count(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.EqualValues(t, 1, repo.calls.Load())
}

func TestUnreadCache_InvalidateForcesRecompute(t *testing.T) {
	rdb := setupTestClient(t)
	ctx := context.Background()

	repo := &countingNotificationRepo{count: 3}
	cache := newTestUnreadCache(rdb, repo, time.Minute)
	userID := uuid.New()

	_, err := cache.Count(ctx, userID)
	require.NoError(t, err)

	repo.count = 4
	cache.InvalidateUnread(ctx, userID)

	count, err := cache.Count(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.EqualValues(t, 2, repo.calls.Load())
}

func TestUnreadCache_UsersAreIsolated(t *testing.T) {
	rdb := setupTestClient(t)
	ctx := context.Background()

	repo := &countingNotificationRepo{count: 1}
	cache := newTestUnreadCache(rdb, repo, time.Minute)
	userA := uuid.New()
	userB := uuid.New()

	_, err := cache.Count(ctx, userA)
	require.NoError(t, err)

	cache.InvalidateUnread(ctx, userB)

	// Invalidating B does not evict A.
	_, err = cache.Count(ctx, userA)
	require.NoError(t, err)
	assert.EqualValues(t, 1, repo.calls.Load())
}

func TestUnreadCache_GarbageValueFallsBack(t *testing.T) {
	rdb := setupTestClient(t)
	ctx := context.Background()

	repo := &countingNotificationRepo{count: 9}
	cache := newTestUnreadCache(rdb, repo, time.Minute)
	userID := uuid.New()

	require.NoError(t, rdb.Set(ctx, "unread:"+userID.String(), "not-a-number", time.Minute).Err())

	count, err := cache.Count(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 9, count)
	assert.EqualValues(t, 1, repo.calls.Load())
}

func TestUnreadCache_DatabaseErrorPropagates(t *testing.T) {
	rdb := setupTestClient(t)
	ctx := context.Background()

	repo := &countingNotificationRepo{err: errors.New("connection refused")}
	cache := newTestUnreadCache(rdb, repo, time.Minute)

	_, err := cache.Count(ctx, uuid.New())
	assert.Error(t, err)
}

func TestUnreadCache_ConcurrentMissesCollapse(t *testing.T) {
	rdb := setupTestClient(t)
	ctx := context.Background()

	repo := &countingNotificationRepo{count: 5, release: make(chan struct{})}
	cache := newTestUnreadCache(rdb, repo, time.Minute)
	userID := uuid.New()

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			count, err := cache.Count(ctx, userID)
			assert.NoError(t, err)
			results[i] = count
		}(i)
	}

	// Let the goroutines pile up on the cold key before the database answers.
	time.Sleep(50 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	for _, count := range results {
		assert.Equal(t, 5, count)
	}
	assert.EqualValues(t, 1, repo.calls.Load())
}
