package httpserver

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/biscuits-internet-project/bip-engage/internal/errors"
)

type toggleReactionRequest struct {
	PostID    string `json:"postId"`
	EmojiCode string `json:"emojiCode"`
}

func (s *Server) handleToggleReaction(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req toggleReactionRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	postID, err := uuid.Parse(req.PostID)
	if err != nil {
		return apperrors.ValidationError("invalid post ID").WithField("postId", req.PostID)
	}

	result, err := s.app.ToggleReaction(ctx, postID, userID, req.EmojiCode)
	if err != nil {
		return toAPIError(err)
	}

	response := map[string]any{"success": true, "added": result.Added}
	if result.Reaction != nil {
		response["reaction"] = map[string]string{"emojiCode": result.Reaction.EmojiCode}
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetReactionCounts(c echo.Context) error {
	ctx := c.Request().Context()

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid post ID").WithField("id", c.Param("id"))
	}

	counts, err := s.app.ReactionCounts(ctx, postID)
	if err != nil {
		return toAPIError(err)
	}

	type reactionCountResponse struct {
		EmojiCode string `json:"emojiCode"`
		Count     int    `json:"count"`
	}
	responses := make([]reactionCountResponse, 0, len(counts))
	for _, count := range counts {
		responses = append(responses, reactionCountResponse{EmojiCode: count.EmojiCode, Count: count.Count})
	}

	if err := c.JSON(http.StatusOK, map[string]any{"reactions": responses}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
