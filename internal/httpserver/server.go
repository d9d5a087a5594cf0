package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"

	"github.com/biscuits-internet-project/bip-engage/internal/app"
	"github.com/biscuits-internet-project/bip-engage/internal/config"
	"github.com/biscuits-internet-project/bip-engage/internal/domain"
)

// engageService is the application surface the HTTP layer depends on.
type engageService interface {
	ToggleVote(ctx context.Context, postID, userID uuid.UUID, voteType domain.VoteType) (*domain.VoteResult, error)
	ToggleReaction(ctx context.Context, postID, userID uuid.UUID, emojiCode string) (*domain.ReactionResult, error)
	ReactionCounts(ctx context.Context, postID uuid.UUID) ([]domain.ReactionCount, error)

	CreatePost(ctx context.Context, params domain.CreatePostParams) (*domain.Post, error)
	EditPost(ctx context.Context, postID, authorID uuid.UUID, content string) (*domain.Post, error)
	DeletePost(ctx context.Context, postID, callerID uuid.UUID, asModerator bool) error
	GetThread(ctx context.Context, postID uuid.UUID, asModerator bool) (*domain.Post, []*domain.Post, error)
	GetFeed(ctx context.Context, sort domain.FeedSort, limit int, cursor string) (*app.FeedResult, error)

	FlagPost(ctx context.Context, postID, reporterID uuid.UUID, reason domain.FlagReason, description *string) (*domain.ModerationFlag, error)
	ListFlags(ctx context.Context, filter domain.FlagFilter) ([]*domain.ModerationFlag, error)
	ReviewFlag(ctx context.Context, flagID uuid.UUID, action domain.ModerationAction, reviewerID uuid.UUID) (*domain.ModerationFlag, error)
	RestorePost(ctx context.Context, postID, reviewerID uuid.UUID) error

	ListNotifications(ctx context.Context, userID uuid.UUID, filter domain.NotificationFilter) ([]*domain.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkNotificationsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error)
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app            engageService
	sessionStore   *sessions.CookieStore
	metricsHandler http.Handler

	pool      *pgxpool.Pool
	rdb       *goredis.Client
	startTime time.Time

	// overridable health checkers for tests
	redisHealthCheck    redisHealthChecker
	postgresHealthCheck postgresHealthChecker
}

func NewServer(cfg *config.Config, app engageService, metricsHandler http.Handler, pool *pgxpool.Pool, rdb *goredis.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		app:            app,
		sessionStore:   setupSessionStore(cfg),
		metricsHandler: metricsHandler,
		pool:           pool,
		rdb:            rdb,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Session keys. The main fan-site application writes these values with the
// shared session secret; this service only reads them.
const (
	sessionName    = "bip-session"
	sessionKeyUser = "user_id"
	sessionKeyRole = "role"
)

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}
