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

// handleListNotifications serves the polling endpoint for the site's bell
// icon. With unread=count only the cached counter is returned, which is the
// cheap call clients poll on an interval.
func (s *Server) handleListNotifications(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	if c.QueryParam("unread") == "count" {
		count, err := s.app.UnreadCount(ctx, userID)
		if err != nil {
			return toAPIError(err)
		}
		if err := c.JSON(http.StatusOK, map[string]int{"unreadCount": count}); err != nil {
			return fmt.Errorf("failed to send JSON response: %w", err)
		}
		return nil
	}

	filter := domain.NotificationFilter{
		UnreadOnly: c.QueryParam("unread") == "true",
	}
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return apperrors.ValidationError("limit must be a positive integer").WithField("limit", raw)
		}
		filter.Limit = parsed
	}

	notifications, err := s.app.ListNotifications(ctx, userID, filter)
	if err != nil {
		return toAPIError(err)
	}

	responses := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, toNotificationResponse(n))
	}

	if err := c.JSON(http.StatusOK, map[string]any{"notifications": responses}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type markNotificationsRequest struct {
	NotificationIDs []string `json:"notificationIds"`
	MarkAllAsRead   bool     `json:"markAllAsRead"`
}

func (s *Server) handleMarkNotifications(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req markNotificationsRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	var marked int
	switch {
	case req.MarkAllAsRead:
		marked, err = s.app.MarkAllNotificationsRead(ctx, userID)
	case len(req.NotificationIDs) > 0:
		ids := make([]uuid.UUID, 0, len(req.NotificationIDs))
		for _, raw := range req.NotificationIDs {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				return apperrors.ValidationError("invalid notification ID").WithField("notificationId", raw)
			}
			ids = append(ids, id)
		}
		marked, err = s.app.MarkNotificationsRead(ctx, userID, ids)
	default:
		return apperrors.ValidationError("either notificationIds or markAllAsRead is required")
	}
	if err != nil {
		return toAPIError(err)
	}

	response := map[string]any{
		"success":     true,
		"markedCount": marked,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
