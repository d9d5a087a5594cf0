package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/biscuits-internet-project/bip-engage/internal/app"
	"github.com/biscuits-internet-project/bip-engage/internal/config"
	"github.com/biscuits-internet-project/bip-engage/internal/domain"
	apperrors "github.com/biscuits-internet-project/bip-engage/internal/errors"
	"github.com/biscuits-internet-project/bip-engage/internal/metrics"
)

// --- Mock implementations ---

type mockEngageService struct {
	toggleVoteFn      func(ctx context.Context, postID, userID uuid.UUID, voteType domain.VoteType) (*domain.VoteResult, error)
	toggleReactionFn  func(ctx context.Context, postID, userID uuid.UUID, emojiCode string) (*domain.ReactionResult, error)
	reactionCountsFn  func(ctx context.Context, postID uuid.UUID) ([]domain.ReactionCount, error)
	createPostFn      func(ctx context.Context, params domain.CreatePostParams) (*domain.Post, error)
	editPostFn        func(ctx context.Context, postID, authorID uuid.UUID, content string) (*domain.Post, error)
	deletePostFn      func(ctx context.Context, postID, callerID uuid.UUID, asModerator bool) error
	getThreadFn       func(ctx context.Context, postID uuid.UUID, asModerator bool) (*domain.Post, []*domain.Post, error)
	getFeedFn         func(ctx context.Context, sort domain.FeedSort, limit int, cursor string) (*app.FeedResult, error)
	flagPostFn        func(ctx context.Context, postID, reporterID uuid.UUID, reason domain.FlagReason, description *string) (*domain.ModerationFlag, error)
	listFlagsFn       func(ctx context.Context, filter domain.FlagFilter) ([]*domain.ModerationFlag, error)
	reviewFlagFn      func(ctx context.Context, flagID uuid.UUID, action domain.ModerationAction, reviewerID uuid.UUID) (*domain.ModerationFlag, error)
	restorePostFn     func(ctx context.Context, postID, reviewerID uuid.UUID) error
	listNotifsFn      func(ctx context.Context, userID uuid.UUID, filter domain.NotificationFilter) ([]*domain.Notification, error)
	unreadCountFn     func(ctx context.Context, userID uuid.UUID) (int, error)
	markNotifsReadFn  func(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error)
	markAllNotifsReadFn func(ctx context.Context, userID uuid.UUID) (int, error)
}

func (m *mockEngageService) ToggleVote(ctx context.Context, postID, userID uuid.UUID, voteType domain.VoteType) (*domain.VoteResult, error) {
	if m.toggleVoteFn != nil {
		return m.toggleVoteFn(ctx, postID, userID, voteType)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEngageService) ToggleReaction(ctx context.Context, postID, userID uuid.UUID, emojiCode string) (*domain.ReactionResult, error) {
	if m.toggleReactionFn != nil {
		return m.toggleReactionFn(ctx, postID, userID, emojiCode)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEngageService) ReactionCounts(ctx context.Context, postID uuid.UUID) ([]domain.ReactionCount, error) {
	if m.reactionCountsFn != nil {
		return m.reactionCountsFn(ctx, postID)
	}
	return nil, nil
}

func (m *mockEngageService) CreatePost(ctx context.Context, params domain.CreatePostParams) (*domain.Post, error) {
	if m.createPostFn != nil {
		return m.createPostFn(ctx, params)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEngageService) EditPost(ctx context.Context, postID, authorID uuid.UUID, content string) (*domain.Post, error) {
	if m.editPostFn != nil {
		return m.editPostFn(ctx, postID, authorID, content)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEngageService) DeletePost(ctx context.Context, postID, callerID uuid.UUID, asModerator bool) error {
	if m.deletePostFn != nil {
		return m.deletePostFn(ctx, postID, callerID, asModerator)
	}
	return nil
}

func (m *mockEngageService) GetThread(ctx context.Context, postID uuid.UUID, asModerator bool) (*domain.Post, []*domain.Post, error) {
	if m.getThreadFn != nil {
		return m.getThreadFn(ctx, postID, asModerator)
	}
	return nil, nil, fmt.Errorf("not implemented")
}

func (m *mockEngageService) GetFeed(ctx context.Context, sort domain.FeedSort, limit int, cursor string) (*app.FeedResult, error) {
	if m.getFeedFn != nil {
		return m.getFeedFn(ctx, sort, limit, cursor)
	}
	return &app.FeedResult{}, nil
}

func (m *mockEngageService) FlagPost(ctx context.Context, postID, reporterID uuid.UUID, reason domain.FlagReason, description *string) (*domain.ModerationFlag, error) {
	if m.flagPostFn != nil {
		return m.flagPostFn(ctx, postID, reporterID, reason, description)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEngageService) ListFlags(ctx context.Context, filter domain.FlagFilter) ([]*domain.ModerationFlag, error) {
	if m.listFlagsFn != nil {
		return m.listFlagsFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockEngageService) ReviewFlag(ctx context.Context, flagID uuid.UUID, action domain.ModerationAction, reviewerID uuid.UUID) (*domain.ModerationFlag, error) {
	if m.reviewFlagFn != nil {
		return m.reviewFlagFn(ctx, flagID, action, reviewerID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEngageService) RestorePost(ctx context.Context, postID, reviewerID uuid.UUID) error {
	if m.restorePostFn != nil {
		return m.restorePostFn(ctx, postID, reviewerID)
	}
	return nil
}

func (m *mockEngageService) ListNotifications(ctx context.Context, userID uuid.UUID, filter domain.NotificationFilter) ([]*domain.Notification, error) {
	if m.listNotifsFn != nil {
		return m.listNotifsFn(ctx, userID, filter)
	}
	return nil, nil
}

func (m *mockEngageService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.unreadCountFn != nil {
		return m.unreadCountFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockEngageService) MarkNotificationsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	if m.markNotifsReadFn != nil {
		return m.markNotifsReadFn(ctx, userID, ids)
	}
	return 0, nil
}

func (m *mockEngageService) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.markAllNotifsReadFn != nil {
		return m.markAllNotifsReadFn(ctx, userID)
	}
	return 0, nil
}

// --- Test helpers ---

func newTestServer(t *testing.T, svc engageService, opts ...func(*Server)) *Server {
	t.Helper()

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	e := echo.New()
	// Install error middleware for tests to match production behavior
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:           e,
		config:         &config.Config{Port: "8080"},
		app:            svc,
		sessionStore:   store,
		metricsHandler: metrics.Handler(metrics.NewRegistry()),
		startTime:      time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv
}

func withRedisHealthCheck(redis redisHealthChecker) func(*Server) {
	return func(s *Server) {
		s.redisHealthCheck = redis
	}
}

func withPostgresHealthCheck(pg postgresHealthChecker) func(*Server) {
	return func(s *Server) {
		s.postgresHealthCheck = pg
	}
}

// setSessionUser stamps an authenticated session cookie onto the request the
// way the main fan-site application would.
func setSessionUser(t *testing.T, srv *Server, req *http.Request, userID uuid.UUID, role domain.Role) {
	t.Helper()

	rec := httptest.NewRecorder()
	session, err := srv.sessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyUser] = userID.String()
	session.Values[sessionKeyRole] = string(role)
	require.NoError(t, session.Save(req, rec))

	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
}

// doRequest runs a request through the full echo router so middleware,
// routing and error translation all apply.
func doRequest(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}
