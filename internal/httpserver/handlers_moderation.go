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

type flagPostRequest struct {
	PostID      string  `json:"postId"`
	Reason      string  `json:"reason"`
	Description *string `json:"description"`
}

func (s *Server) handleFlagPost(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req flagPostRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	postID, err := uuid.Parse(req.PostID)
	if err != nil {
		return apperrors.ValidationError("invalid post ID").WithField("postId", req.PostID)
	}

	reason := domain.FlagReason(req.Reason)
	if !reason.Valid() {
		return apperrors.ValidationError("invalid flag reason").WithField("reason", req.Reason)
	}

	flag, err := s.app.FlagPost(ctx, postID, userID, reason, req.Description)
	if err != nil {
		return toAPIError(err)
	}

	if err := c.JSON(http.StatusCreated, map[string]any{"flag": toFlagResponse(flag)}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListFlags(c echo.Context) error {
	ctx := c.Request().Context()

	filter := domain.FlagFilter{}
	if raw := c.QueryParam("status"); raw != "" {
		status := domain.FlagStatus(raw)
		switch status {
		case domain.FlagPending, domain.FlagReviewed, domain.FlagDismissed, domain.FlagActioned:
			filter.Status = status
		default:
			return apperrors.ValidationError("invalid flag status").WithField("status", raw)
		}
	}
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return apperrors.ValidationError("limit must be a positive integer").WithField("limit", raw)
		}
		filter.Limit = parsed
	}
	if raw := c.QueryParam("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return apperrors.ValidationError("offset must not be negative").WithField("offset", raw)
		}
		filter.Offset = parsed
	}

	flags, err := s.app.ListFlags(ctx, filter)
	if err != nil {
		return toAPIError(err)
	}

	responses := make([]flagResponse, 0, len(flags))
	for _, f := range flags {
		responses = append(responses, toFlagResponse(f))
	}

	if err := c.JSON(http.StatusOK, map[string]any{"flags": responses}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type reviewFlagRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleReviewFlag(c echo.Context) error {
	ctx := c.Request().Context()

	reviewerID, err := currentUser(c)
	if err != nil {
		return err
	}

	flagID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid flag ID").WithField("id", c.Param("id"))
	}

	var req reviewFlagRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	action := domain.ModerationAction(req.Action)
	switch action {
	case domain.ActionDismiss, domain.ActionHide, domain.ActionRemove:
	default:
		return apperrors.ValidationError("action must be \"dismiss\", \"hide\" or \"remove\"").WithField("action", req.Action)
	}

	flag, err := s.app.ReviewFlag(ctx, flagID, action, reviewerID)
	if err != nil {
		return toAPIError(err)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"flag": toFlagResponse(flag)}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleRestorePost(c echo.Context) error {
	ctx := c.Request().Context()

	reviewerID, err := currentUser(c)
	if err != nil {
		return err
	}

	postID, err := uuid.Parse(c.Param("postId"))
	if err != nil {
		return apperrors.ValidationError("invalid post ID").WithField("postId", c.Param("postId"))
	}

	if err := s.app.RestorePost(ctx, postID, reviewerID); err != nil {
		return toAPIError(err)
	}

	if err := c.JSON(http.StatusOK, map[string]bool{"success": true}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
