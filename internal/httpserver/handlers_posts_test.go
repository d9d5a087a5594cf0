package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biscuits-internet-project/bip-engage/internal/app"
	"github.com/biscuits-internet-project/bip-engage/internal/domain"
	"github.com/biscuits-internet-project/bip-engage/internal/engage"
)

func TestHandleCreatePost_TopLevel(t *testing.T) {
	userID := uuid.New()

	svc := &mockEngageService{
		createPostFn: func(ctx context.Context, params domain.CreatePostParams) (*domain.Post, error) {
			assert.Equal(t, userID, params.AuthorID)
			assert.Nil(t, params.ParentID)
			return &domain.Post{
				ID:               uuid.New(),
				AuthorID:         params.AuthorID,
				Content:          params.Content,
				ModerationStatus: domain.StatusClean,
				CreatedAt:        time.Now().UTC(),
			}, nil
		},
	}
	srv := newTestServer(t, svc)

	body := `{"content":"anyone catch the soundcheck today?"}`
	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	setSessionUser(t, srv, req, userID, domain.RoleMember)

	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "soundcheck")
}

func TestHandleCreatePost_Reply(t *testing.T) {
	parentID := uuid.New()

	svc := &mockEngageService{
		createPostFn: func(ctx context.Context, params domain.CreatePostParams) (*domain.Post, error) {
			require.NotNil(t, params.ParentID)
			assert.Equal(t, parentID, *params.ParentID)
			return &domain.Post{ID: uuid.New(), AuthorID: params.AuthorID, ParentID: params.ParentID}, nil
		},
	}
	srv := newTestServer(t, svc)

	body := `{"content":"yes! they teased a new jam","parentId":"` + parentID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	setSessionUser(t, srv, req, uuid.New(), domain.RoleMember)

	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandleCreatePost_EmptyContent(t *testing.T) {
	srv := newTestServer(t, &mockEngageService{})

	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(`{"content":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	setSessionUser(t, srv, req, uuid.New(), domain.RoleMember)

	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreatePost_DeletedParent(t *testing.T) {
	svc := &mockEngageService{
		createPostFn: func(ctx context.Context, params domain.CreatePostParams) (*domain.Post, error) {
			return nil, domain.ErrPostDeleted
		},
	}
	srv := newTestServer(t, svc)

	body := `{"content":"reply","parentId":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	setSessionUser(t, srv, req, uuid.New(), domain.RoleMember)

	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleEditPost_NotAuthor(t *testing.T) {
	svc := &mockEngageService{
		editPostFn: func(ctx context.Context, postID, authorID uuid.UUID, content string) (*domain.Post, error) {
			return nil, domain.ErrNotPostAuthor
		},
	}
	srv := newTestServer(t, svc)

	body := `{"content":"rewritten"}`
	req := httptest.NewRequest(http.MethodPatch, "/posts/"+uuid.NewString(), strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	setSessionUser(t, srv, req, uuid.New(), domain.RoleMember)

	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleDeletePost_ModeratorFlagPassed(t *testing.T) {
	var gotAsModerator bool
	svc := &mockEngageService{
		deletePostFn: func(ctx context.Context, postID, callerID uuid.UUID, asModerator bool) error {
			gotAsModerator = asModerator
			return nil
		},
	}
	srv := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodDelete, "/posts/"+uuid.NewString(), nil)
	setSessionUser(t, srv, req, uuid.New(), domain.RoleModerator)

	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotAsModerator)
}

func TestHandleGetFeed_Defaults(t *testing.T) {
	svc := &mockEngageService{
		getFeedFn: func(ctx context.Context, sort domain.FeedSort, limit int, cursor string) (*app.FeedResult, error) {
			assert.Equal(t, domain.SortChronological, sort)
			assert.Zero(t, limit)
			assert.Empty(t, cursor)
			return &app.FeedResult{}, nil
		},
	}
	srv := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"posts":[]`)
}

func TestHandleGetFeed_HotWithCursor(t *testing.T) {
	post := &domain.Post{ID: uuid.New(), AuthorID: uuid.New(), CreatedAt: time.Now().UTC()}
	next := engage.EncodeCursor(engage.Cursor{
		Sort: domain.SortHot, RankedAt: time.Now().UTC(),
		HotScore: 1.0, CreatedAt: post.CreatedAt, ID: post.ID,
	})

	svc := &mockEngageService{
		getFeedFn: func(ctx context.Context, sort domain.FeedSort, limit int, cursor string) (*app.FeedResult, error) {
			assert.Equal(t, domain.SortHot, sort)
			assert.Equal(t, 10, limit)
			return &app.FeedResult{
				Items:      []domain.FeedItem{{Post: post, HotScore: 1.0}},
				NextCursor: next,
			}, nil
		},
	}
	srv := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/posts?sort=hot&limit=10", nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"nextCursor"`)
}

func TestHandleGetFeed_InvalidSort(t *testing.T) {
	srv := newTestServer(t, &mockEngageService{})

	req := httptest.NewRequest(http.MethodGet, "/posts?sort=controversial", nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetFeed_InvalidCursor(t *testing.T) {
	svc := &mockEngageService{
		getFeedFn: func(ctx context.Context, sort domain.FeedSort, limit int, cursor string) (*app.FeedResult, error) {
			return nil, domain.ErrInvalidCursor
		},
	}
	srv := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/posts?sort=hot&cursor=garbage", nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetThread_Public(t *testing.T) {
	postID := uuid.New()

	svc := &mockEngageService{
		getThreadFn: func(ctx context.Context, pID uuid.UUID, asModerator bool) (*domain.Post, []*domain.Post, error) {
			assert.False(t, asModerator)
			return &domain.Post{ID: pID, AuthorID: uuid.New()},
				[]*domain.Post{{ID: uuid.New(), AuthorID: uuid.New()}}, nil
		},
	}
	srv := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/posts/"+postID.String(), nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"replies"`)
}

func TestHandleGetThread_ModeratorSession(t *testing.T) {
	var gotAsModerator bool
	svc := &mockEngageService{
		getThreadFn: func(ctx context.Context, postID uuid.UUID, asModerator bool) (*domain.Post, []*domain.Post, error) {
			gotAsModerator = asModerator
			return &domain.Post{ID: postID, AuthorID: uuid.New(), ModerationStatus: domain.StatusHidden}, nil, nil
		},
	}
	srv := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/posts/"+uuid.NewString(), nil)
	setSessionUser(t, srv, req, uuid.New(), domain.RoleModerator)

	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotAsModerator)
}

func TestHandleGetThread_NotFound(t *testing.T) {
	svc := &mockEngageService{
		getThreadFn: func(ctx context.Context, postID uuid.UUID, asModerator bool) (*domain.Post, []*domain.Post, error) {
			return nil, nil, domain.ErrPostNotFound
		},
	}
	srv := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/posts/"+uuid.NewString(), nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
