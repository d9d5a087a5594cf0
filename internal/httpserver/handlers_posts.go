package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
	apperrors "github.com/biscuits-internet-project/bip-engage/internal/errors"
)

type createPostRequest struct {
	Content      string  `json:"content"`
	ParentID     *string `json:"parentId"`
	QuotedPostID *string `json:"quotedPostId"`
	MediaRef     *string `json:"mediaRef"`
}

func (s *Server) handleCreatePost(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Content == "" {
		return apperrors.ValidationError("content is required")
	}

	params := domain.CreatePostParams{
		AuthorID: userID,
		Content:  req.Content,
		MediaRef: req.MediaRef,
	}
	if req.ParentID != nil {
		parentID, err := uuid.Parse(*req.ParentID)
		if err != nil {
			return apperrors.ValidationError("invalid parent ID").WithField("parentId", *req.ParentID)
		}
		params.ParentID = &parentID
	}
	if req.QuotedPostID != nil {
		quotedID, err := uuid.Parse(*req.QuotedPostID)
		if err != nil {
			return apperrors.ValidationError("invalid quoted post ID").WithField("quotedPostId", *req.QuotedPostID)
		}
		params.QuotedPostID = &quotedID
	}

	post, err := s.app.CreatePost(ctx, params)
	if err != nil {
		return toAPIError(err)
	}

	if err := c.JSON(http.StatusCreated, map[string]any{"post": toPostResponse(post)}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type editPostRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleEditPost(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid post ID").WithField("id", c.Param("id"))
	}

	var req editPostRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Content == "" {
		return apperrors.ValidationError("content is required")
	}

	post, err := s.app.EditPost(ctx, postID, userID, req.Content)
	if err != nil {
		return toAPIError(err)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"post": toPostResponse(post)}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDeletePost(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid post ID").WithField("id", c.Param("id"))
	}

	if err := s.app.DeletePost(ctx, postID, userID, isModerator(c)); err != nil {
		return toAPIError(err)
	}

	if err := c.JSON(http.StatusOK, map[string]bool{"success": true}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetFeed(c echo.Context) error {
	ctx := c.Request().Context()

	sort := domain.FeedSort(c.QueryParam("sort"))
	if sort == "" {
		sort = domain.SortChronological
	}
	if !sort.Valid() {
		return apperrors.ValidationError("sort must be \"hot\" or \"chronological\"").WithField("sort", c.QueryParam("sort"))
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return apperrors.ValidationError("limit must be a positive integer").WithField("limit", raw)
		}
		limit = parsed
	}

	result, err := s.app.GetFeed(ctx, sort, limit, c.QueryParam("cursor"))
	if err != nil {
		return toAPIError(err)
	}

	posts := make([]postResponse, 0, len(result.Items))
	for _, item := range result.Items {
		posts = append(posts, toPostResponse(item.Post))
	}

	response := map[string]any{"posts": posts}
	if result.NextCursor != "" {
		response["nextCursor"] = result.NextCursor
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetThread(c echo.Context) error {
	ctx := c.Request().Context()

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid post ID").WithField("id", c.Param("id"))
	}

	// Thread view is public, but moderators see hidden/removed posts for
	// review. Auth here is best-effort: an absent session just means a
	// regular viewer.
	asModerator := false
	if session, err := s.sessionStore.Get(c.Request(), sessionName); err == nil {
		if role, ok := session.Values[sessionKeyRole].(string); ok {
			asModerator = domain.Role(role).IsModerator()
		}
	}

	post, replies, err := s.app.GetThread(ctx, postID, asModerator)
	if err != nil {
		return toAPIError(err)
	}

	response := map[string]any{
		"post":    toPostResponse(post),
		"replies": toPostResponses(replies),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
