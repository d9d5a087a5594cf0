package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/biscuits-internet-project/bip-engage/internal/app"
	"github.com/biscuits-internet-project/bip-engage/internal/config"
	"github.com/biscuits-internet-project/bip-engage/internal/engage"
	"github.com/biscuits-internet-project/bip-engage/internal/httpserver"
	"github.com/biscuits-internet-project/bip-engage/internal/logging"
	"github.com/biscuits-internet-project/bip-engage/internal/metrics"
	"github.com/biscuits-internet-project/bip-engage/internal/postgres"
	"github.com/biscuits-internet-project/bip-engage/internal/redis"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *httpserver.Server, dispatcher *engage.Dispatcher) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Drain queued notifications before exiting.
		dispatcher.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	defer func() { _ = redisClient.Close() }()

	registry := metrics.NewRegistry()
	engagementMetrics := metrics.NewEngagementMetrics(registry)

	// Construct repositories
	userRepo := postgres.NewUserRepo(pool)
	postRepo := postgres.NewPostRepo(pool)
	voteRepo := postgres.NewVoteRepo(pool)
	reactionRepo := postgres.NewReactionRepo(pool)
	moderationRepo := postgres.NewModerationRepo(pool)
	notificationRepo := postgres.NewNotificationRepo(pool)

	ranker := engage.NewRanker(cfg.HotGravity)
	feedRepo := postgres.NewFeedRepo(pool, ranker)

	unreadCache := redis.NewUnreadCache(redisClient, notificationRepo, cfg.UnreadCacheTTL, engagementMetrics)
	dispatcher := engage.NewDispatcher(notificationRepo, unreadCache, engagementMetrics)

	appSvc := app.NewService(
		userRepo,
		postRepo,
		voteRepo,
		reactionRepo,
		moderationRepo,
		notificationRepo,
		feedRepo,
		dispatcher,
		unreadCache,
		ranker,
		clock,
		engagementMetrics,
		cfg.FeedMaxLimit,
	)

	srv := httpserver.NewServer(cfg, appSvc, metrics.Handler(registry), pool, redisClient)

	done := runGracefulShutdown(srv, dispatcher)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
